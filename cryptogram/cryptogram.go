// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package cryptogram encrypts and decrypts files with IDEA.
//
// A cryptogram is the plaintext, zero-padded to a whole number of
// blocks and transformed by a mode of operation, followed by one
// suffix block holding the plaintext length (see PackLength). The
// suffix is transformed with the same, continuing mode state, so it
// is bound to the data before it. A cryptogram is thus always a
// nonzero multiple of the block size.
//
// Files are processed sequentially in chunks; the whole file is never
// held in memory.
package cryptogram

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/grailbio/ideafile/crypto/idea"
	"github.com/grailbio/ideafile/crypto/modes"
	"github.com/grailbio/ideafile/data"
	"github.com/grailbio/ideafile/errors"
	"github.com/grailbio/ideafile/log"
)

// DefaultChunkSize is the amount of data read, transformed and written
// at a time.
const DefaultChunkSize = 2 << 20

// Options configures a Transform.
type Options struct {
	// Input and Output are the source and destination paths. Output is
	// created or truncated; it must not name the same file as Input.
	Input, Output string
	// Passphrase is folded into the cipher key and the initialization
	// vector.
	Passphrase string
	// Encrypt selects encryption; otherwise Input is decrypted.
	Encrypt bool
	// Mode is the mode of operation.
	Mode modes.Kind
	// ChunkSize is the processing chunk size. It is rounded down to a
	// multiple of the block size; zero selects DefaultChunkSize.
	ChunkSize int
	// Reporter, if not nil, receives status and progress.
	Reporter Reporter
}

// Result describes a completed transform.
type Result struct {
	// InputSize and OutputSize are the file sizes in bytes.
	InputSize, OutputSize int64
	// Elapsed is the wall time spent in Transform.
	Elapsed time.Duration
	// OutputCreated tells whether Transform created or truncated the
	// output file. It is set on failure too, so that callers know
	// whether there is a partial output to remove.
	OutputCreated bool
}

// Transform encrypts or decrypts opts.Input into opts.Output.
//
// Decryption requires a nonempty input (errors.EmptyInput) whose size
// is a multiple of the block size (errors.UnalignedInput) and whose
// decrypted suffix holds a length consistent with the file size
// (errors.MalformedCryptogram); a wrong passphrase or mode is usually
// caught by the latter. Inputs too large for the suffix fail with
// errors.FileTooLarge before any output is created.
//
// Transform checks ctx between chunks and fails with errors.Canceled
// once it is done. On any failure after Output was created the partial
// output is left in place and Result.OutputCreated is set; callers are
// expected to remove it.
func Transform(ctx context.Context, opts Options) (res Result, err error) {
	start := time.Now()
	rep := opts.Reporter
	if rep == nil {
		rep = nopReporter{}
	}
	verb := "Decrypt"
	if opts.Encrypt {
		verb = "Encrypt"
	}
	mode, err := modes.New(opts.Mode, opts.Encrypt, opts.Passphrase)
	if err != nil {
		return res, err
	}
	in, err := os.Open(opts.Input)
	if err != nil {
		return res, errors.E("open", opts.Input, err)
	}
	defer errors.CleanUp(in.Close, &err)
	info, err := in.Stat()
	if err != nil {
		return res, errors.E("stat", opts.Input, err)
	}
	if !info.Mode().IsRegular() {
		return res, errors.E(errors.Invalid, opts.Input, "not a regular file")
	}
	if outInfo, err := os.Stat(opts.Output); err == nil && os.SameFile(info, outInfo) {
		return res, errors.E(errors.Invalid, opts.Output, "output would overwrite the input")
	}
	res.InputSize = info.Size()

	// inLen is the length of the data blocks in the input; outLen the
	// number of data bytes written.
	var inLen, outLen int64
	if opts.Encrypt {
		if res.InputSize > MaxLength {
			return res, errors.E(errors.FileTooLarge, opts.Input,
				fmt.Sprintf("%d bytes exceeds the maximum of %d", res.InputSize, int64(MaxLength)))
		}
		inLen = res.InputSize
		outLen = roundUp(inLen)
		log.Debug.Printf("%s: sizes: %db input, %db output", opts.Input, inLen, outLen+idea.BlockSize)
	} else {
		switch {
		case res.InputSize == 0:
			return res, errors.E(errors.EmptyInput, opts.Input)
		case res.InputSize%idea.BlockSize != 0:
			return res, errors.E(errors.UnalignedInput, opts.Input,
				fmt.Sprintf("size %d is not a multiple of %d", res.InputSize, idea.BlockSize))
		}
		inLen = res.InputSize - idea.BlockSize
		outLen = inLen
		log.Debug.Printf("%s: sizes: %db input, <=%db output", opts.Input, res.InputSize, outLen)
	}

	out, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return res, errors.E("create", opts.Output, err)
	}
	res.OutputCreated = true
	defer errors.CleanUp(out.Close, &err)

	rep.Status(fmt.Sprintf("%sing file with %v mode.", verb, opts.Mode))
	rep.Status(fmt.Sprintf("Input size: %d KB.", data.Size(res.InputSize).KB()))
	rep.Status("Running IDEA...")
	rep.Progress(0)
	c := &codec{
		mode:  mode,
		rep:   rep,
		chunk: chunkSize(opts.ChunkSize),
	}
	t0 := time.Now()
	if err = c.process(ctx, in, out, inLen, outLen); err != nil {
		return res, errors.E(opts.Input, err)
	}
	rep.Status(fmt.Sprintf("%sion finished (%dms).", verb, time.Since(t0).Milliseconds()))

	if opts.Encrypt {
		rep.Status("Attaching file size encrypted...")
		if err = c.writeLength(out, inLen); err != nil {
			return res, errors.E(opts.Output, err)
		}
		res.OutputSize = outLen + idea.BlockSize
		rep.Status(fmt.Sprintf("Output size: %d KB.", data.Size(inLen).KB()))
	} else {
		rep.Status("Checking file size...")
		n, err := c.readLength(in)
		if err != nil {
			return res, errors.E(opts.Input, err)
		}
		if n < 0 || n > inLen || n < inLen-idea.BlockSize+1 {
			return res, errors.E(errors.MalformedCryptogram, opts.Input, "wrong file size")
		}
		if n != outLen {
			rep.Status("Truncating output file...")
			log.Debug.Printf("%s: truncate %db to %db", opts.Output, outLen, n)
			if err := out.Truncate(n); err != nil {
				return res, errors.E(errors.IO, "truncate", opts.Output, err)
			}
		}
		res.OutputSize = n
		rep.Status(fmt.Sprintf("Output size: %d KB.", data.Size(n).KB()))
	}
	rep.Progress(1)
	rep.Status("Done!")
	res.Elapsed = time.Since(start)
	return res, nil
}

func chunkSize(n int) int {
	if n <= 0 {
		n = DefaultChunkSize
	}
	n -= n % idea.BlockSize
	if n == 0 {
		n = idea.BlockSize
	}
	return n
}

// codec streams data through a mode in chunks.
type codec struct {
	mode  modes.Mode
	rep   Reporter
	chunk int
	buf   []byte
}

// process reads inLen bytes from r, transforms them and writes outLen
// bytes to w. Each chunk is zero-padded to a block boundary before it
// is transformed; only the final chunk can be partial.
func (c *codec) process(ctx context.Context, r io.Reader, w io.Writer, inLen, outLen int64) error {
	if c.buf == nil {
		c.buf = make([]byte, c.chunk)
	}
	for pos := int64(0); pos < inLen; {
		if err := ctx.Err(); err != nil {
			return errors.E(errors.Canceled, fmt.Sprintf("at offset %d", pos), err)
		}
		n := c.chunk
		if rem := inLen - pos; rem < int64(n) {
			n = int(rem)
		}
		if _, err := io.ReadFull(r, c.buf[:n]); err != nil {
			return errors.E(errors.IO, "incomplete data chunk read", err)
		}
		chunkLen := int(roundUp(int64(n)))
		for i := n; i < chunkLen; i++ {
			c.buf[i] = 0
		}
		for off := 0; off < chunkLen; off += idea.BlockSize {
			c.mode.Transform(c.buf, off)
		}
		m := chunkLen
		if rem := outLen - pos; rem < int64(m) {
			m = int(rem)
		}
		if _, err := w.Write(c.buf[:m]); err != nil {
			return errors.E(errors.IO, "incomplete data chunk written", err)
		}
		pos += int64(chunkLen)
		// The padding of the last chunk is not data.
		done := pos
		if done > inLen {
			done = inLen
		}
		c.rep.Progress(float64(done) / float64(inLen))
	}
	return nil
}

// writeLength appends the encrypted length suffix to w.
func (c *codec) writeLength(w io.Writer, n int64) error {
	b, err := PackLength(n)
	if err != nil {
		return err
	}
	c.mode.Transform(b, 0)
	if _, err := w.Write(b); err != nil {
		return errors.E(errors.IO, "writing length suffix", err)
	}
	return nil
}

// readLength reads and decrypts the length suffix from r. It returns
// -1 if the suffix is malformed.
func (c *codec) readLength(r io.Reader) (int64, error) {
	b := make([]byte, idea.BlockSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, errors.E(errors.IO, "reading length suffix", err)
	}
	c.mode.Transform(b, 0)
	return UnpackLength(b), nil
}
