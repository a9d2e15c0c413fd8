package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/pgdemo/internal/errs"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"run", "reset", "migrate", "report"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.RunE, name)
	}

	assert.NotNil(t, root.RunE, "bare pgdemo runs the full demo")
}

func TestRootCommandFailsWithoutConfig(t *testing.T) {
	t.Setenv("PGDEMO_DATABASE_USER", "")
	t.Setenv("PGDEMO_DATABASE_NAME", "")

	root := newRootCmd()
	root.SetArgs([]string{"report"})

	assert.Error(t, root.Execute())
}

func TestRunPrintsBannerBeforeConnecting(t *testing.T) {
	t.Setenv("PGDEMO_PRIMARY_ENV", "test")
	t.Setenv("PGDEMO_DATABASE_HOST", "127.0.0.1")
	t.Setenv("PGDEMO_DATABASE_PORT", "1")
	t.Setenv("PGDEMO_DATABASE_USER", "shahzad")
	t.Setenv("PGDEMO_DATABASE_NAME", "shazdb")
	t.Setenv("PGDEMO_NEWRELIC_LICENSE_KEY", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"run"})

	err := root.Execute()

	require.ErrorIs(t, err, errs.ErrConnection)
	assert.Contains(t, out.String(), "# PostgreSQL db example ...\n")
	assert.NotContains(t, out.String(), "DB recreated")
}

func TestLogFailureAddsKind(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logFailure(&logger, errs.NewAuthorizationError("denied", nil), "run", "run failed")
	assert.Contains(t, buf.String(), `"kind":"AUTHORIZATION"`)
	assert.Contains(t, buf.String(), `"command":"run"`)

	buf.Reset()
	logFailure(&logger, errors.New("boom"), "report", "run failed")
	assert.Contains(t, buf.String(), `"kind":"INTERNAL"`)
}
