package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/pgdemo/internal/errs"
)

type account struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
	Seats int    `validate:"min=1,max=10"`
	Plan  string `validate:"oneof=free paid"`
	Note  string
}

func (a *account) Validate() error {
	var custom CustomValidationErrors
	if a.Note == "forbidden" {
		custom = append(custom, CustomValidationError{Field: "note", Message: "is not allowed"})
	}
	return Join(Struct(a), custom)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	var appErr *errs.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errs.KindValidation, appErr.Kind)

	out := make(map[string]string, len(appErr.Errors))
	for _, fe := range appErr.Errors {
		out[fe.Field] = fe.Error
	}
	return out
}

func TestCheckPasses(t *testing.T) {
	assert.NoError(t, Check("Account", &account{Name: "a", Seats: 1, Plan: "free"}))
}

func TestCheckTagMessages(t *testing.T) {
	err := Check("Account", &account{Email: "nope", Seats: 11, Plan: "gold"})

	fields := fieldErrors(t, err)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must not exceed 10", fields["seats"])
	assert.Equal(t, "must be one of: free paid", fields["plan"])
	assert.Contains(t, err.Error(), "Account validation failed")
}

func TestCheckCombinesCustomErrors(t *testing.T) {
	err := Check("Account", &account{Seats: 0, Plan: "free", Note: "forbidden"})

	fields := fieldErrors(t, err)
	assert.Equal(t, "is not allowed", fields["note"])
	assert.Equal(t, "must be at least 1", fields["seats"])
	assert.Equal(t, "is required", fields["name"])
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	custom := CustomValidationErrors{{Field: "x", Message: "bad"}}
	assert.Equal(t, custom, Join(nil, custom))
}
