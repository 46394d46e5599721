// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package modes

import "github.com/grailbio/ideafile/crypto/idea"

// SegmentSize is the CFB feedback granularity in bytes. It equals the
// IDEA block size, so every block is a single CFB segment.
const SegmentSize = idea.BlockSize

type cfb struct {
	c       Cipher
	encrypt bool
	// feedback is the shift register; it always holds ciphertext.
	feedback []byte
	// in saves the ciphertext segment before it is decrypted in place.
	in []byte
}

// NewCFB returns an IDEA CFB mode with the given initialization
// vector. The cipher always runs in the encryption direction.
func NewCFB(key, iv []byte, encrypt bool) (Mode, error) {
	c, err := idea.NewCipher(key, true)
	if err != nil {
		return nil, err
	}
	return NewCFBCipher(c, iv, encrypt)
}

// NewCFBCipher returns a CFB mode over c, which must encrypt. The IV is
// copied.
func NewCFBCipher(c Cipher, iv []byte, encrypt bool) (Mode, error) {
	if err := checkIV(iv, c); err != nil {
		return nil, err
	}
	return &cfb{
		c:        c,
		encrypt:  encrypt,
		feedback: append([]byte(nil), iv...),
		in:       make([]byte, SegmentSize),
	}, nil
}

func (m *cfb) Kind() Kind       { return CFB }
func (m *cfb) Encrypting() bool { return m.encrypt }

func (m *cfb) Transform(buf []byte, off int) {
	bs := len(m.feedback)
	for pos := off; pos < off+bs; pos += SegmentSize {
		seg := buf[pos : pos+SegmentSize]
		if !m.encrypt {
			copy(m.in, seg)
		}
		m.c.Crypt(m.feedback)
		xor(seg, m.feedback[:SegmentSize])
		copy(m.feedback, m.feedback[SegmentSize:])
		if m.encrypt {
			copy(m.feedback[bs-SegmentSize:], seg)
		} else {
			copy(m.feedback[bs-SegmentSize:], m.in)
		}
	}
}
