// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package modes

import "github.com/grailbio/ideafile/crypto/idea"

type cbc struct {
	c       Cipher
	encrypt bool
	// prev is the previous ciphertext block (the IV before the first
	// block). scratch holds the incoming ciphertext while decrypting;
	// the two are swapped after each block.
	prev, scratch []byte
}

// NewCBC returns an IDEA CBC mode with the given initialization
// vector.
func NewCBC(key, iv []byte, encrypt bool) (Mode, error) {
	c, err := idea.NewCipher(key, encrypt)
	if err != nil {
		return nil, err
	}
	return NewCBCCipher(c, iv, encrypt)
}

// NewCBCCipher returns a CBC mode over c, which must have been created
// for the same direction. The IV is copied.
func NewCBCCipher(c Cipher, iv []byte, encrypt bool) (Mode, error) {
	if err := checkIV(iv, c); err != nil {
		return nil, err
	}
	return &cbc{
		c:       c,
		encrypt: encrypt,
		prev:    append([]byte(nil), iv...),
		scratch: make([]byte, len(iv)),
	}, nil
}

func (m *cbc) Kind() Kind       { return CBC }
func (m *cbc) Encrypting() bool { return m.encrypt }

func (m *cbc) Transform(buf []byte, off int) {
	b := buf[off : off+len(m.prev)]
	if m.encrypt {
		xor(b, m.prev)
		m.c.Crypt(b)
		copy(m.prev, b)
		return
	}
	copy(m.scratch, b)
	m.c.Crypt(b)
	xor(b, m.prev)
	m.prev, m.scratch = m.scratch, m.prev
}
