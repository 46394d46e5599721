// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package cmd implements the idea-file command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grailbio/ideafile/batch"
	"github.com/grailbio/ideafile/cmdutil"
	"github.com/grailbio/ideafile/crypto/modes"
	"github.com/grailbio/ideafile/crypto/passwd"
	"github.com/grailbio/ideafile/cryptogram"
	"github.com/grailbio/ideafile/data"
	"github.com/grailbio/ideafile/errors"
	"github.com/grailbio/ideafile/log"
	"github.com/grailbio/ideafile/shutdown"
	"github.com/grailbio/ideafile/sync/multierror"
	"github.com/grailbio/ideafile/task"
	"v.io/x/lib/cmdline"
)

const decryptSuffix = ".out"

const malformedHint = `Decryption yields a valid length trailer only with the passphrase and the
mode of operation used for encryption; check both.
`

// ReadPassphrase reads the passphrase when it is not set in the
// environment. It is a variable so that tests can replace it.
var ReadPassphrase passwd.ReadFunc = passwd.Terminal

// stdinIsTerminal tells whether the passphrase can be prompted for.
var stdinIsTerminal = passwd.IsTerminal

type flags struct {
	mode     modes.Kind
	out      string
	suffix   string
	jobs     int
	chunk    data.Size
	failFast bool
	force    bool
	quiet    bool
}

// New returns the root idea-file command.
func New() *cmdline.Command {
	return &cmdline.Command{
		Name:  "idea-file",
		Short: "Encrypts and decrypts files with the IDEA block cipher",
		Long: `
Command idea-file encrypts and decrypts files with the IDEA block cipher in
ECB, CBC, CFB or OFB mode. The cipher key and the initialization vector are
derived from a passphrase, taken from $` + passwd.EnvVar + ` when it is set
and otherwise read from the terminal.

An encrypted file holds the data, zero-padded to a multiple of 8 bytes, and
an encrypted 8-byte trailer recording the original length. Files are
processed in chunks, so their size is not limited by memory.
`,
		Children: []*cmdline.Command{
			newCryptCmd(true),
			newCryptCmd(false),
			cmdutil.CreateVersionCommand("version", "idea-file"),
		},
	}
}

func newCryptCmd(encrypt bool) *cmdline.Command {
	f := &flags{mode: modes.CBC, chunk: cryptogram.DefaultChunkSize}
	cmd := &cmdline.Command{
		Runner: cmdutil.RunnerFunc(func(ctx context.Context, env *cmdline.Env, args []string) error {
			return run(ctx, env, args, encrypt, f)
		}),
		ArgsName: "<input>...",
		ArgsLong: `
<input>... are the files to process. Each may be a glob pattern as defined in
https://github.com/gobwas/glob; "**" matches across directories.
`,
	}
	if encrypt {
		cmd.Name = "encrypt"
		cmd.Short = "Encrypt files"
		cmd.Long = `
Command encrypt encrypts each input into <input>` + "<suffix>" + ` (or the
path given by -out, for a single input). Inputs are processed concurrently.
Outputs of failed or interrupted encryptions are removed.
`
	} else {
		cmd.Name = "decrypt"
		cmd.Short = "Decrypt files"
		cmd.Long = `
Command decrypt decrypts each input into the input path with the suffix
removed; inputs without the suffix are decrypted into <input>` + decryptSuffix + `.
The passphrase and the mode must match those used to encrypt. Outputs of
failed or interrupted decryptions are removed.
`
	}
	cmd.Flags.Var(&f.mode, "mode", "mode of operation: ECB, CBC, CFB or OFB")
	cmd.Flags.StringVar(&f.out, "out", "", "output path; only valid with a single input")
	cmd.Flags.StringVar(&f.suffix, "suffix", ".idea", "suffix of encrypted files")
	cmd.Flags.IntVar(&f.jobs, "j", 0, "maximum number of files processed concurrently; 0 means the number of CPUs")
	cmd.Flags.Var(&f.chunk, "chunk", "processing chunk size, e.g. 64KiB or 2MiB")
	cmd.Flags.BoolVar(&f.failFast, "fail-fast", false, "stop processing after the first failure")
	cmd.Flags.BoolVar(&f.force, "f", false, "overwrite existing output files")
	cmd.Flags.BoolVar(&f.quiet, "q", false, "do not report progress")
	return cmd
}

// outputPath returns the output path for input.
func outputPath(input string, encrypt bool, suffix string) string {
	if encrypt {
		return input + suffix
	}
	if suffix != "" && strings.HasSuffix(input, suffix) && len(input) > len(suffix) {
		return strings.TrimSuffix(input, suffix)
	}
	return input + decryptSuffix
}

func run(ctx context.Context, env *cmdline.Env, args []string, encrypt bool, f *flags) error {
	if len(args) == 0 {
		return env.UsageErrorf("at least one input is required")
	}
	if f.jobs < 0 {
		return env.UsageErrorf("-j must not be negative")
	}
	if f.chunk.Bytes() <= 0 || f.chunk > data.GiB {
		return env.UsageErrorf("-chunk must be between 1B and 1GiB")
	}
	inputs := expandGlobs(args)
	if f.out != "" && len(inputs) != 1 {
		return env.UsageErrorf("-out requires a single input, got %d", len(inputs))
	}
	passphrase, ok := passwd.Lookup(env.Vars)
	if !ok {
		if !stdinIsTerminal() {
			return errors.E(errors.Invalid, "no passphrase: set $"+passwd.EnvVar+" or run from a terminal")
		}
		var err error
		if passphrase, err = passwd.Read(ReadPassphrase, env.Stderr, encrypt); err != nil {
			return err
		}
	}

	reqs := make([]task.Request, len(inputs))
	for i, in := range inputs {
		out := f.out
		if out == "" {
			out = outputPath(in, encrypt, f.suffix)
		}
		if _, err := os.Stat(out); err == nil && !f.force {
			return errors.E(errors.Invalid, out, "output exists; use -f to overwrite")
		}
		reqs[i] = task.Request{
			Input:      in,
			Output:     out,
			Passphrase: passphrase,
			Encrypt:    encrypt,
			Mode:       f.mode,
			ChunkSize:  int(f.chunk.Bytes()),
		}
	}
	b := batch.B{Limit: f.jobs, FailFast: f.failFast}
	if f.quiet {
		b.Reporter = batch.NewLogReporter(log.Debug)
	} else {
		b.Reporter = batch.NewProgressReporter(env.Stderr, "idea-file", 500*time.Millisecond)
	}
	log.Debug.Printf("%d inputs, mode %v, limit %d", len(reqs), f.mode, f.jobs)
	results, err := b.Run(ctx, reqs)
	for _, res := range results {
		if res.Err == nil || !res.OutputCreated {
			continue
		}
		path := res.Request.Output
		shutdown.Register(func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Error.Printf("removing partial output %s: %v", path, err)
			}
		})
	}
	if err != nil {
		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
			}
		}
		if f.quiet {
			cmdutil.Errorf(env.Stderr, "%v", err)
		}
		if multi, ok := err.(*multierror.MultiError); ok && !encrypt && multi.Is(errors.MalformedCryptogram) {
			cmdutil.WriteHint(env.Stderr, malformedHint)
		}
		return errors.E(fmt.Sprintf("%d of %d files failed", failed, len(results)))
	}
	return nil
}
