// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package cmdutil provides utility routines for implementing command line
// tools.
package cmdutil

import (
	"fmt"
	"io"
	"strings"
)

// Errorf writes a message to w with no prefix and no timestamp,
// terminating it with exactly one newline.
func Errorf(w io.Writer, format string, args ...interface{}) {
	m := fmt.Sprintf(format, args...)
	fmt.Fprint(w, strings.TrimSuffix(m, "\n")+"\n")
}
