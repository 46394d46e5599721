// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmdutil

import (
	"fmt"
	"io"
	"strings"

	"v.io/x/lib/textutil"
)

// DefaultWidth is the wrapping width used when the terminal size is
// unknown, e.g. when stderr is redirected.
const DefaultWidth = 80

// WriteWrappedMessage writes m to w, line wrapped to the terminal width.
func WriteWrappedMessage(w io.Writer, m string) {
	writeWrapped(w, "", m)
}

// WriteHint writes m to w as a wrapped, indented hint following an
// error message.
func WriteHint(w io.Writer, m string) {
	writeWrapped(w, "hint: ", m)
}

func writeWrapped(w io.Writer, prefix, m string) {
	cols := DefaultWidth
	if _, c, err := textutil.TerminalSize(); err == nil && c > 0 {
		cols = c
	}
	wrapped := textutil.NewUTF8WrapWriter(w, cols)
	if prefix != "" {
		indent := strings.Repeat(" ", len(prefix))
		if err := wrapped.SetIndents(prefix, indent); err != nil {
			fmt.Fprint(w, prefix+m)
			return
		}
	}
	fmt.Fprint(wrapped, m)
	wrapped.Flush()
}
