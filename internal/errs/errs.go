// Package errs defines the application's error types.
//
// Every failure the program can hit ends up as an *Error carrying a Kind
// (connection, authorization, constraint, validation, precondition,
// internal), a machine-friendly Code and a human-friendly Message, so the
// command line can print one consistent diagnostic before exiting.
package errs
