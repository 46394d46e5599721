// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package passwd obtains the passphrase for a file transform, either
// from the environment or interactively from the terminal.
package passwd

import (
	"fmt"
	"io"
	"syscall"

	"github.com/grailbio/ideafile/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// EnvVar is the environment variable consulted before prompting.
const EnvVar = "IDEAFILE_PASSPHRASE"

// ReadFunc reads one line of input without echoing it.
type ReadFunc func() ([]byte, error)

// Terminal reads from standard input with echo disabled.
func Terminal() ([]byte, error) {
	return terminal.ReadPassword(int(syscall.Stdin))
}

// IsTerminal tells whether standard input is a terminal.
func IsTerminal() bool {
	return terminal.IsTerminal(int(syscall.Stdin))
}

// Lookup returns the passphrase from vars[EnvVar], if it is set.
func Lookup(vars map[string]string) (string, bool) {
	p, ok := vars[EnvVar]
	return p, ok
}

// Read prompts on w and reads a passphrase with read. If confirm is
// true, the passphrase is read a second time and both entries must
// match. An empty passphrase is rejected.
func Read(read ReadFunc, w io.Writer, confirm bool) (string, error) {
	p, err := prompt(read, w, "Enter passphrase: ")
	if err != nil {
		return "", err
	}
	defer zero(p)
	if len(p) == 0 {
		return "", errors.E(errors.Invalid, "empty passphrase")
	}
	if confirm {
		again, err := prompt(read, w, "Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		defer zero(again)
		if string(again) != string(p) {
			return "", errors.E(errors.Invalid, "passphrases do not match")
		}
	}
	return string(p), nil
}

func prompt(read ReadFunc, w io.Writer, msg string) ([]byte, error) {
	fmt.Fprint(w, msg)
	p, err := read()
	fmt.Fprintln(w)
	if err != nil {
		return nil, errors.E(errors.IO, "reading passphrase", err)
	}
	return p, nil
}

// zero clears a passphrase as soon as it has been converted.
func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
