// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package data

import (
	"flag"
	"testing"
	"time"

	"github.com/grailbio/ideafile/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSizeString(t *testing.T) {
	for _, c := range []struct {
		Size
		expect string
	}{
		{10 * B, "10B"},
		{727 * B, "727B"},
		{KiB, "1.0KiB"},
		{4*KiB + 100*B, "4.1KiB"},
		{2*MiB + 800*KiB, "2.8MiB"},
		{TiB, "1.0TiB"},
		{2*EiB + 100000*TiB, "2.1EiB"},
	} {
		if got, want := c.Size.String(), c.expect; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
		if got, want := (-c.Size).String(), "-"+c.expect; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestKB(t *testing.T) {
	expect.EQ(t, Size(0).KB(), int64(0))
	expect.EQ(t, Size(1023).KB(), int64(0))
	expect.EQ(t, (3*KiB + 17).KB(), int64(3))
}

func TestParseSize(t *testing.T) {
	for _, c := range []struct {
		in   string
		want Size
	}{
		{"0", 0},
		{"512", 512 * B},
		{"8B", 8},
		{"64KiB", 64 * KiB},
		{"64k", 64 * KiB},
		{"2MiB", 2 * MiB},
		{"2 mb", 2 * MiB},
		{"1GiB", GiB},
		{"3t", 3 * TiB},
	} {
		got, err := ParseSize(c.in)
		assert.NoError(t, err, c.in)
		expect.EQ(t, got, c.want, c.in)
	}
	for _, in := range []string{"", "MiB", "-1", "12XB", "1.5MiB", "9EiB"} {
		_, err := ParseSize(in)
		expect.True(t, errors.Is(errors.Invalid, err), in)
	}
}

func TestSizeFlag(t *testing.T) {
	var (
		fs   = flag.NewFlagSet("test", flag.ContinueOnError)
		size = 2 * MiB
	)
	fs.Var(&size, "chunk", "chunk size")
	assert.NoError(t, fs.Parse([]string{"-chunk=64KiB"}))
	expect.EQ(t, size, 64*KiB)
}

func TestRate(t *testing.T) {
	expect.EQ(t, Rate(MiB, time.Second), "1.0MiB/s")
	expect.EQ(t, Rate(MiB, 500*time.Millisecond), "2.0MiB/s")
	expect.EQ(t, Rate(MiB, 0), "-")
}
