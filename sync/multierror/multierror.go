// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package multierror collects the errors of concurrent file tasks into
// a single error.
package multierror

import (
	"fmt"
	"strings"
	"sync"

	"github.com/grailbio/ideafile/errors"
)

// MultiError captures errors from parallel goroutines. Usage:
//
//	errs := multierror.New(10)
//	for _, req := range reqs {
//		go func(req task.Request) { errs.Add(run(req)) }(req)
//	}
//	// wait for completion
//	return errs.ErrorOrNil()
//
// At most max errors are retained; the rest are counted.
type MultiError struct {
	mu      sync.Mutex
	errs    []error
	dropped int
	max     int
}

// New returns a MultiError retaining up to max errors. A max of zero
// or less retains every error.
func New(max int) *MultiError {
	return &MultiError{max: max}
}

// Add records err; nil errors are ignored. Nested MultiErrors are
// flattened. Add returns me so that calls can be chained.
func (me *MultiError) Add(err error) *MultiError {
	if err == nil || me == nil {
		return me
	}
	var (
		errs    = []error{err}
		dropped int
	)
	if multi, ok := err.(*MultiError); ok {
		multi.mu.Lock()
		errs = append([]error(nil), multi.errs...)
		dropped = multi.dropped
		multi.mu.Unlock()
	}
	me.mu.Lock()
	defer me.mu.Unlock()
	for _, err := range errs {
		if me.max > 0 && len(me.errs) >= me.max {
			me.dropped++
			continue
		}
		me.errs = append(me.errs, err)
	}
	me.dropped += dropped
	return me
}

// Errors returns the retained errors in the order they were added.
func (me *MultiError) Errors() []error {
	me.mu.Lock()
	defer me.mu.Unlock()
	return append([]error(nil), me.errs...)
}

// Len returns the total number of errors added, including dropped
// ones.
func (me *MultiError) Len() int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return len(me.errs) + me.dropped
}

// Error returns a string version of the MultiError: a single error is
// rendered as is, several errors one per line.
func (me *MultiError) Error() string {
	if me == nil {
		return ""
	}
	me.mu.Lock()
	defer me.mu.Unlock()
	switch len(me.errs) {
	case 0:
		return ""
	case 1:
		if me.dropped == 0 {
			return me.errs[0].Error()
		}
	}
	s := make([]string, len(me.errs))
	for i, e := range me.errs {
		s[i] = e.Error()
	}
	msg := fmt.Sprintf("%d errors:\n%s", len(me.errs)+me.dropped, strings.Join(s, "\n"))
	if me.dropped > 0 {
		msg += fmt.Sprintf("\n(plus %d other error(s))", me.dropped)
	}
	return msg
}

// Is tells whether any of the captured errors has the given kind.
func (me *MultiError) Is(kind errors.Kind) bool {
	for _, err := range me.Errors() {
		if errors.Is(kind, err) {
			return true
		}
	}
	return false
}

// ErrorOrNil returns nil if no errors were captured, itself otherwise.
func (me *MultiError) ErrorOrNil() error {
	if me == nil || me.Len() == 0 {
		return nil
	}
	return me
}
