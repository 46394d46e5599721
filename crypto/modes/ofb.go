// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package modes

import "github.com/grailbio/ideafile/crypto/idea"

// ofb is a keystream generator: the feedback register evolves
// independently of the data, so encryption and decryption coincide.
type ofb struct {
	c        Cipher
	encrypt  bool
	feedback []byte
}

// NewOFB returns an IDEA OFB mode with the given initialization
// vector. The cipher always runs in the encryption direction; encrypt
// only determines what Encrypting reports.
func NewOFB(key, iv []byte, encrypt bool) (Mode, error) {
	c, err := idea.NewCipher(key, true)
	if err != nil {
		return nil, err
	}
	return NewOFBCipher(c, iv, encrypt)
}

// NewOFBCipher returns an OFB mode over c, which must encrypt. The IV is
// copied.
func NewOFBCipher(c Cipher, iv []byte, encrypt bool) (Mode, error) {
	if err := checkIV(iv, c); err != nil {
		return nil, err
	}
	return &ofb{c: c, encrypt: encrypt, feedback: append([]byte(nil), iv...)}, nil
}

func (m *ofb) Kind() Kind       { return OFB }
func (m *ofb) Encrypting() bool { return m.encrypt }

func (m *ofb) Transform(buf []byte, off int) {
	m.c.Crypt(m.feedback)
	xor(buf[off:off+len(m.feedback)], m.feedback)
}
