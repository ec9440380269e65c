// util/error.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fbogfx/fbogfx/log"
)

// ErrorLogger accumulates errors while a config file is being applied,
// tracking which entry is being looked at so that all of the problems
// can be reported at once rather than stopping at the first.
type ErrorLogger struct {
	// Tracked via Push()/Pop() calls to remember what we're looking at if
	// an error is found.
	hierarchy []string
	errs      []error
}

func (e *ErrorLogger) Push(s string) {
	e.hierarchy = append(e.hierarchy, s)
}

func (e *ErrorLogger) Pop() {
	e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
}

func (e *ErrorLogger) ErrorString(s string, args ...any) {
	e.errs = append(e.errs, errors.New(e.prefix()+fmt.Sprintf(s, args...)))
}

// Error records err, keeping it available to errors.Is through Err.
func (e *ErrorLogger) Error(err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%w", e.prefix(), err))
}

func (e *ErrorLogger) prefix() string {
	if len(e.hierarchy) == 0 {
		return ""
	}
	return strings.Join(e.hierarchy, " / ") + ": "
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errs) > 0
}

// Err returns all of the recorded errors joined together, or nil.
func (e *ErrorLogger) Err() error {
	return errors.Join(e.errs...)
}

func (e *ErrorLogger) PrintErrors(lg *log.Logger) {
	for _, err := range e.errs {
		lg.Errorf("%+v", err)
	}
}

func (e *ErrorLogger) String() string {
	var s []string
	for _, err := range e.errs {
		s = append(s, err.Error())
	}
	return strings.Join(s, "\n")
}
