// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cryptogram

import "github.com/grailbio/ideafile/log"

// A Reporter receives events from an ongoing transform. Both methods
// are called from the goroutine running Transform and must not block
// for long.
type Reporter interface {
	// Status is called with a human-readable description of each
	// processing stage.
	Status(msg string)
	// Progress is called with the fraction of the data processed so
	// far, in [0, 1].
	Progress(fraction float64)
}

type nopReporter struct{}

func (nopReporter) Status(string)    {}
func (nopReporter) Progress(float64) {}

// NewLogReporter returns a reporter that logs status messages at the
// given level, prefixed by name. Progress is ignored.
func NewLogReporter(name string, level log.Level) Reporter {
	return logReporter{name, level}
}

type logReporter struct {
	name  string
	level log.Level
}

func (r logReporter) Status(msg string) {
	r.level.Printf("%s: %s", r.name, msg)
}

func (logReporter) Progress(float64) {}
