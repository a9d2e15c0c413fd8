package model

import "github.com/deppfellow/pgdemo/internal/validation"

// Thing is owned by any number of Owners.
type Thing struct {
	ID     int64
	Name   string   `validate:"required"`
	Owners []*Owner `validate:"-"`
}

// Owner owns any number of Things.
type Owner struct {
	ID     int64
	Name   string
	Things []*Thing `validate:"-"`
}

// AddOwner links t and o on both sides. Linking the same pair twice is a
// no-op.
func (t *Thing) AddOwner(o *Owner) {
	if !containsOwner(t.Owners, o) {
		t.Owners = append(t.Owners, o)
	}
	if !containsThing(o.Things, t) {
		o.Things = append(o.Things, t)
	}
}

// AddThing is AddOwner seen from the owner's side.
func (o *Owner) AddThing(t *Thing) {
	t.AddOwner(o)
}

func (t *Thing) Validate() error {
	return validation.Struct(t)
}

func (o *Owner) Validate() error {
	return validation.Struct(o)
}

func containsOwner(owners []*Owner, o *Owner) bool {
	for _, cur := range owners {
		if cur == o || (o.ID != 0 && cur.ID == o.ID) {
			return true
		}
	}
	return false
}

func containsThing(things []*Thing, t *Thing) bool {
	for _, cur := range things {
		if cur == t || (t.ID != 0 && cur.ID == t.ID) {
			return true
		}
	}
	return false
}
