// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package modes

import "github.com/grailbio/ideafile/crypto/idea"

// ecb has no chaining state; each block is transformed on its own.
type ecb struct {
	c       Cipher
	encrypt bool
}

// NewECB returns an IDEA ECB mode.
func NewECB(key []byte, encrypt bool) (Mode, error) {
	c, err := idea.NewCipher(key, encrypt)
	if err != nil {
		return nil, err
	}
	return NewECBCipher(c, encrypt), nil
}

// NewECBCipher returns an ECB mode over c, which must have been
// created for the same direction.
func NewECBCipher(c Cipher, encrypt bool) Mode {
	return &ecb{c: c, encrypt: encrypt}
}

func (m *ecb) Kind() Kind       { return ECB }
func (m *ecb) Encrypting() bool { return m.encrypt }

func (m *ecb) Transform(buf []byte, off int) {
	m.c.Crypt(buf[off : off+m.c.BlockSize()])
}
