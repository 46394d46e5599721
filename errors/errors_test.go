// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package errors_test

import (
	"context"
	goerrors "errors"
	"os"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/grailbio/ideafile/errors"
)

func TestError(t *testing.T) {
	_, err := os.Open("/dev/notexist")
	e1 := errors.E(errors.NotExist, "opening file", err)
	if got, want := e1.Error(), "opening file: file does not exist: open /dev/notexist: no such file or directory"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	e2 := errors.E(err)
	if got, want := e2.Error(), "file does not exist: open /dev/notexist: no such file or directory"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	for _, e := range []error{e1, e2} {
		if !errors.Is(errors.NotExist, e) {
			t.Errorf("error %v should be NotExist", e)
		}
	}
}

func TestErrorChaining(t *testing.T) {
	err := errors.E(errors.MalformedCryptogram, "wrong file size")
	err = errors.E("decrypt secret.idea", err)
	if got, want := err.Error(), "decrypt secret.idea: input file is not a valid cryptogram:\n\twrong file size"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !errors.Is(errors.MalformedCryptogram, err) {
		t.Errorf("error %v should be MalformedCryptogram", err)
	}
	if got, want := errors.KindOf(err), errors.MalformedCryptogram; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClassify(t *testing.T) {
	for _, c := range []struct {
		err  error
		kind errors.Kind
	}{
		{errors.E(context.Canceled), errors.Canceled},
		{errors.E(&os.PathError{Op: "write", Path: "x", Err: goerrors.New("disk full")}), errors.IO},
		{errors.E("no idea"), errors.Other},
		{errors.E(errors.FileTooLarge, "45 bits"), errors.FileTooLarge},
		{errors.E(errors.EmptyInput, errors.E(errors.IO, "inner")), errors.EmptyInput},
		{goerrors.New("plain"), errors.Other},
	} {
		if got, want := errors.KindOf(c.err), c.kind; got != want {
			t.Errorf("error %v: got %v, want %v", c.err, got, want)
		}
	}
}

func TestMessage(t *testing.T) {
	for _, c := range []struct {
		err     error
		message string
	}{
		{errors.E("hello"), "hello"},
		{errors.E("hello", "world"), "hello world"},
		{errors.E(errors.UnalignedInput, "size 13"), "size 13: input size is not a multiple of the block size"},
	} {
		if got, want := c.err.Error(), c.message; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestStdInterop(t *testing.T) {
	_, err := os.Open("/dev/notexist")
	wrapped := errors.E("decrypt", errors.E(err))
	if !goerrors.Is(wrapped, os.ErrNotExist) {
		t.Errorf("%v should match os.ErrNotExist", wrapped)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wrapped = errors.E("transform", ctx.Err())
	if !goerrors.Is(wrapped, context.Canceled) {
		t.Errorf("%v should match context.Canceled", wrapped)
	}
	if !errors.Is(errors.Canceled, wrapped) {
		t.Errorf("%v should be Canceled", wrapped)
	}
}

func TestMatchFuzz(t *testing.T) {
	fz := fuzz.New().NilChance(0).Funcs(
		func(k *errors.Kind, c fuzz.Continue) {
			*k = errors.Kind(c.Intn(int(errors.Invalid) + 1))
		},
		func(e *errors.Error, c fuzz.Continue) {
			c.Fuzz(&e.Kind)
			c.Fuzz(&e.Message)
			if c.Float32() < 0.5 {
				var e2 errors.Error
				c.Fuzz(&e2)
				e.Err = &e2
			}
		},
	)
	for i := 0; i < 1000; i++ {
		var err errors.Error
		fz.Fuzz(&err)
		if !errors.Match(&err, errors.E(&err)) {
			t.Errorf("error %v does not match its copy", &err)
		}
	}
}
