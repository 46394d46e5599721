// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides functionality for measuring and displaying
// data quantities: file sizes, chunk sizes and throughput.
package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/ideafile/errors"
)

// A Size represents a data quantity in number of bytes.
type Size int64

// Common data quantities.
const (
	B Size = 1 << (10 * iota)
	KiB
	MiB
	GiB
	TiB
	PiB
	EiB
)

var units = []struct {
	name string
	size Size
}{
	{"EiB", EiB}, {"PiB", PiB}, {"TiB", TiB},
	{"GiB", GiB}, {"MiB", MiB}, {"KiB", KiB},
	{"B", B},
}

// Bytes returns the size as an integer byte count.
func (s Size) Bytes() int64 {
	return int64(s)
}

// Count returns the number of us in s.
func (s Size) Count(u Size) float64 {
	return float64(s) / float64(u)
}

// KB returns the number of whole kibibytes in s, the unit used in
// codec status messages.
func (s Size) KB() int64 {
	return int64(s / KiB)
}

// String returns a string representation of the data quantity b,
// picking the largest appropriate unit.
func (s Size) String() string {
	abs := s
	if abs < 0 {
		abs = -abs
	}
	for _, u := range units[:len(units)-1] {
		if abs >= u.size {
			return fmt.Sprintf("%.1f%s", s.Count(u.size), u.name)
		}
	}
	return fmt.Sprintf("%dB", s)
}

// Set implements flag.Value. It accepts the syntax of ParseSize.
func (s *Size) Set(v string) error {
	size, err := ParseSize(v)
	if err != nil {
		return err
	}
	*s = size
	return nil
}

// ParseSize parses a data quantity: a non-negative integer optionally
// followed by one of the units B, KiB, MiB, GiB, TiB, PiB or EiB
// (case-insensitive; "K", "KB", "M", "MB" and so on are accepted as
// binary units too).
func ParseSize(v string) (Size, error) {
	v = strings.TrimSpace(v)
	i := strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' })
	if i < 0 {
		i = len(v)
	}
	n, err := strconv.ParseInt(v[:i], 10, 64)
	if err != nil {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("invalid data size %q", v), err)
	}
	suffix := strings.ToLower(strings.TrimSpace(v[i:]))
	if suffix == "" {
		return Size(n), nil
	}
	for _, u := range units {
		name := strings.ToLower(u.name)
		if suffix == name || suffix == name[:1] || suffix == name[:1]+"b" {
			if n > 0 && Size(n) > EiB*7/u.size {
				break
			}
			return Size(n) * u.size, nil
		}
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("invalid data size %q", v))
}

// Rate returns a human-readable throughput for s bytes processed in d.
func Rate(s Size, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return Size(float64(s)/d.Seconds()).String() + "/s"
}
