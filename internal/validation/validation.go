// Package validation contains the logic for validating entities
// before they are written.
//
// It uses the `validator` library to enforce rules (like required
// fields or minimum quantities) defined in struct tags and converts
// validation errors into errs.FieldError lists that can be printed.
package validation
