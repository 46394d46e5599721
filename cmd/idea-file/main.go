// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command idea-file encrypts and decrypts files with the IDEA block
// cipher. Run "idea-file help" for usage.
package main

import (
	"flag"
	"regexp"

	"github.com/grailbio/ideafile/cmd/idea-file/cmd"
	"github.com/grailbio/ideafile/log"
	"v.io/x/lib/cmdline"
)

func main() {
	log.AddFlags(flag.CommandLine)
	cmdline.HideGlobalFlagsExcept(regexp.MustCompile(`^log$`))
	cmdline.Main(cmd.New())
}
