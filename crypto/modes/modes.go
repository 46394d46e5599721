// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package modes implements the ECB, CBC, CFB and OFB modes of
// operation over a 64-bit block cipher. A Mode transforms one block at
// a time, in place, carrying its chaining state from one call to the
// next; blocks must therefore be presented in stream order.
package modes

import (
	"fmt"
	"strings"

	"github.com/grailbio/ideafile/crypto/idea"
	"github.com/grailbio/ideafile/crypto/passkey"
	"github.com/grailbio/ideafile/errors"
)

// Cipher is the block transform a mode is built on. Crypt transforms
// b[:BlockSize()] in place in the direction the cipher was created
// for.
type Cipher interface {
	BlockSize() int
	Crypt(b []byte)
}

// Mode is a mode of operation with its chaining state.
type Mode interface {
	// Kind returns the mode's kind.
	Kind() Kind
	// Encrypting tells whether the mode was created to encrypt.
	Encrypting() bool
	// Transform transforms the block at buf[off:off+BlockSize] in place
	// and advances the chaining state.
	Transform(buf []byte, off int)
}

// Kind enumerates the supported modes of operation.
type Kind int

const (
	// ECB is electronic codebook mode.
	ECB Kind = iota
	// CBC is cipher block chaining mode.
	CBC
	// CFB is cipher feedback mode with a full-block segment.
	CFB
	// OFB is output feedback mode.
	OFB
)

// Kinds lists every supported mode.
var Kinds = []Kind{ECB, CBC, CFB, OFB}

var kindNames = map[Kind]string{
	ECB: "ECB",
	CBC: "CBC",
	CFB: "CFB",
	OFB: "OFB",
}

// String returns the mode's conventional upper-case name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Set implements flag.Value.
func (k *Kind) Set(s string) error {
	kind, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind parses a mode name, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return ECB, errors.E(errors.Invalid, fmt.Sprintf("unknown mode of operation %q", s))
}

// New returns a mode of the given kind for IDEA. The cipher key and
// the initialization vector are both folded from passphrase with
// passkey.Derive.
func New(kind Kind, encrypt bool, passphrase string) (Mode, error) {
	var (
		key = passkey.Derive(passphrase, idea.KeySize)
		iv  = passkey.Derive(passphrase, idea.BlockSize)
	)
	switch kind {
	case ECB:
		return NewECB(key, encrypt)
	case CBC:
		return NewCBC(key, iv, encrypt)
	case CFB:
		return NewCFB(key, iv, encrypt)
	case OFB:
		return NewOFB(key, iv, encrypt)
	}
	return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown mode of operation %v", kind))
}

func xor(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func checkIV(iv []byte, c Cipher) error {
	if len(iv) != c.BlockSize() {
		return errors.E(errors.Invalid,
			fmt.Sprintf("initialization vector is %d bytes, want %d", len(iv), c.BlockSize()))
	}
	return nil
}
