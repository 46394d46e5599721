// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package log

import (
	"flag"
	"io"
	golog "log"
	"os"
)

// EnvLevel names the environment variable consulted for the initial
// log level. The -log flag, when given, overrides it.
const EnvLevel = "IDEAFILE_LOG"

var golevel = Info

func init() {
	if s, ok := os.LookupEnv(EnvLevel); ok {
		if l, err := ParseLevel(s); err == nil {
			golevel = l
		}
	}
}

// AddFlags adds the standard -log flag to the provided flag set.
func AddFlags(fs *flag.FlagSet) {
	fs.Var(new(logFlag), "log", "set log level (off, error, info, debug)")
}

const (
	Ldate         = golog.Ldate         // the date in the local time zone: 2009/01/23
	Ltime         = golog.Ltime         // the time in the local time zone: 01:23:23
	Lmicroseconds = golog.Lmicroseconds // microsecond resolution: 01:23:23.123123.  assumes Ltime.
	Lshortfile    = golog.Lshortfile    // final file name element and line number: d.go:23.
	LstdFlags     = Ldate | Ltime       // initial values for the standard logger
)

// SetFlags sets the output flags for the Go standard logger.
func SetFlags(flag int) {
	golog.SetFlags(flag)
}

// SetOutput sets the output destination for the Go standard logger.
func SetOutput(w io.Writer) {
	golog.SetOutput(w)
}

// SetLevel sets the log level for the Go standard logger.
// It should be called once at the beginning of a program's main.
func SetLevel(level Level) {
	golevel = level
}

type logFlag string

func (f logFlag) String() string {
	return string(f)
}

func (f *logFlag) Set(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	*f = logFlag(level)
	golevel = l
	return nil
}

// Get implements flag.Getter.
func (logFlag) Get() interface{} {
	return golevel
}

type gologOutputter struct{}

func (gologOutputter) Level() Level { return golevel }

func (gologOutputter) Output(calldepth int, level Level, s string) error {
	if golevel < level {
		return nil
	}
	if level != Info {
		s = level.String() + ": " + s
	}
	return golog.Output(calldepth+1, s)
}
