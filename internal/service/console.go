package service

import (
	"fmt"
	"io"
)

// Console writes the human readable lines of a run, one "# message" line
// per operation.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Op prints "# msg". With preLine two blank lines come first, which sets
// section headings apart.
func (c *Console) Op(msg string, preLine bool) error {
	if preLine {
		if _, err := io.WriteString(c.out, "\n\n"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(c.out, "# %s\n", msg)
	return err
}
