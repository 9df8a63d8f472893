// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors defines the two error kinds raised inside the code
// generator.  Internal errors are panicked and never recovered: they signal a
// broken invariant in the backend or a driver violating its contract.
// Configuration errors are reported through pan and returned to the caller.
package errors

import (
	"fmt"
)

type internalError struct {
	text string
}

// Internal error value for panicking.
func Internal(text string) error {
	return &internalError{text}
}

// Internalf formats an internal error value for panicking.
func Internalf(format string, args ...interface{}) error {
	return &internalError{fmt.Sprintf(format, args...)}
}

func (e *internalError) Error() string       { return "hostgen internal error: " + e.text }
func (e *internalError) InternalError() bool { return true }

// Assert panics with an internal error if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(Internalf(format, args...))
	}
}

type configError struct {
	text  string
	cause error
}

func ConfigError(text string) error {
	return &configError{text, nil}
}

func ConfigErrorf(format string, args ...interface{}) error {
	return &configError{fmt.Sprintf(format, args...), nil}
}

func WrapConfigError(cause error, text string) error {
	return &configError{text, cause}
}

func (e *configError) Error() string {
	if e.cause != nil {
		return e.text + ": " + e.cause.Error()
	}
	return e.text
}

func (e *configError) PublicError() string { return e.text }
func (e *configError) ConfigError() bool   { return true }
func (e *configError) Unwrap() error       { return e.cause }
