// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package idea implements the IDEA block cipher: a 64-bit block, a
// 128-bit key and eight rounds followed by an output transformation,
// driven by a schedule of 52 16-bit subkeys.
//
// A Cipher holds exactly one schedule, chosen at construction time:
// the encryption schedule expanded from the key, or its inversion for
// decryption. The same Crypt routine serves both directions. NewBlock
// returns a crypto/cipher.Block holding both schedules, for use with
// the standard library's modes.
package idea

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/grailbio/ideafile/errors"
)

const (
	// BlockSize is the IDEA block size in bytes.
	BlockSize = 8
	// KeySize is the IDEA key size in bytes.
	KeySize = 16
	// Rounds is the number of full rounds.
	Rounds = 8
	// ScheduleLen is the number of 16-bit subkeys: six per round and
	// four for the output transformation.
	ScheduleLen = 6*Rounds + 4
)

// Schedule is a table of IDEA subkeys.
type Schedule [ScheduleLen]uint16

// ExpandKey computes the encryption schedule for key. The first eight
// subkeys are the key's big-endian 16-bit words; each subsequent group
// of eight is the previous 128-bit register rotated left by 25 bits.
// The rotation is never materialized: each word combines the low 7
// bits of one source word (shifted up 9) with the high 9 bits of the
// next.
func ExpandKey(key []byte) (Schedule, error) {
	var sk Schedule
	if len(key) != KeySize {
		return sk, errors.E(errors.InvalidKeySize,
			fmt.Sprintf("idea: key is %d bytes, want %d", len(key), KeySize))
	}
	for i := 0; i < 8; i++ {
		sk[i] = binary.BigEndian.Uint16(key[2*i:])
	}
	for i := 8; i < ScheduleLen; i++ {
		hi, lo := i-7, i-6
		if (i+1)%8 == 0 {
			hi = i - 15
		}
		if (i+2)%8 < 2 {
			lo = i - 14
		}
		sk[i] = sk[hi]<<9 | sk[lo]>>7
	}
	return sk, nil
}

// InvertSchedule returns the decryption schedule for the encryption
// schedule enc. Round order is reversed; multiplicative subkeys are
// replaced by their inverses mod 65537 and additive subkeys by their
// inverses mod 65536. The two MA subkeys of each round move unchanged.
// In every round except the first and the output transformation the
// two additive subkeys trade places, undoing the swap of the middle
// words at the end of each encryption round.
func InvertSchedule(enc Schedule) Schedule {
	var dec Schedule
	p := 0
	i := 6 * Rounds
	dec[i] = mulInv(enc[p])
	dec[i+1] = addInv(enc[p+1])
	dec[i+2] = addInv(enc[p+2])
	dec[i+3] = mulInv(enc[p+3])
	p += 4
	for r := Rounds - 1; r > 0; r-- {
		i = 6 * r
		dec[i+4] = enc[p]
		dec[i+5] = enc[p+1]
		dec[i] = mulInv(enc[p+2])
		dec[i+2] = addInv(enc[p+3])
		dec[i+1] = addInv(enc[p+4])
		dec[i+3] = mulInv(enc[p+5])
		p += 6
	}
	dec[4] = enc[p]
	dec[5] = enc[p+1]
	dec[0] = mulInv(enc[p+2])
	dec[1] = addInv(enc[p+3])
	dec[2] = addInv(enc[p+4])
	dec[3] = mulInv(enc[p+5])
	return dec
}

// Cipher is an IDEA instance bound to one direction.
type Cipher struct {
	encrypt bool
	sk      Schedule
}

// NewCipher returns a cipher that encrypts (encrypt=true) or decrypts
// with key. It returns an error of kind errors.InvalidKeySize if key is
// not KeySize bytes long.
func NewCipher(key []byte, encrypt bool) (*Cipher, error) {
	sk, err := ExpandKey(key)
	if err != nil {
		return nil, err
	}
	if !encrypt {
		sk = InvertSchedule(sk)
	}
	return &Cipher{encrypt: encrypt, sk: sk}, nil
}

// BlockSize returns the cipher's block size.
func (c *Cipher) BlockSize() int { return BlockSize }

// Encrypting tells whether c holds the encryption schedule.
func (c *Cipher) Encrypting() bool { return c.encrypt }

// Schedule returns a copy of the subkey table in use.
func (c *Cipher) Schedule() Schedule { return c.sk }

// Crypt transforms the block b[:BlockSize] in place.
func (c *Cipher) Crypt(b []byte) {
	crypt(&c.sk, b, b)
}

// CryptAt transforms the block buf[off:off+BlockSize] in place. The
// caller guarantees that the block lies within buf.
func (c *Cipher) CryptAt(buf []byte, off int) {
	b := buf[off : off+BlockSize]
	crypt(&c.sk, b, b)
}

func crypt(sk *Schedule, dst, src []byte) {
	_ = src[BlockSize-1]
	x1 := binary.BigEndian.Uint16(src[0:])
	x2 := binary.BigEndian.Uint16(src[2:])
	x3 := binary.BigEndian.Uint16(src[4:])
	x4 := binary.BigEndian.Uint16(src[6:])
	k := sk[:]
	for r := 0; r < Rounds; r++ {
		y1 := mul(x1, k[0])
		y2 := x2 + k[1]
		y3 := x3 + k[2]
		y4 := mul(x4, k[3])
		// MA structure.
		y7 := mul(y1^y3, k[4])
		y9 := mul((y2^y4)+y7, k[5])
		y10 := y7 + y9
		x1, x2, x3, x4 = y1^y9, y3^y9, y2^y10, y4^y10
		k = k[6:]
	}
	binary.BigEndian.PutUint16(dst[0:], mul(x1, k[0]))
	binary.BigEndian.PutUint16(dst[2:], x3+k[1])
	binary.BigEndian.PutUint16(dst[4:], x2+k[2])
	binary.BigEndian.PutUint16(dst[6:], mul(x4, k[3]))
}

// mul multiplies x and y modulo 65537, where the zero word stands
// for 2^16. Hence mul(0, 0) is 1: 2^16 * 2^16 = 1 (mod 65537).
func mul(x, y uint16) uint16 {
	switch {
	case x == 0:
		return 1 - y
	case y == 0:
		return 1 - x
	}
	return uint16(uint32(x) * uint32(y) % 0x10001)
}

// mulInv returns the multiplicative inverse of x modulo 65537 using
// the extended Euclidean algorithm. 0 and 1 are their own inverses.
func mulInv(x uint16) uint16 {
	if x <= 1 {
		return x
	}
	var (
		a      = uint32(x)
		b      = uint32(0x10001)
		t0, t1 = uint32(1), uint32(0)
	)
	for {
		t1 += b / a * t0
		b %= a
		if b == 1 {
			return uint16(1 - t1)
		}
		t0 += a / b * t1
		a %= b
		if a == 1 {
			return uint16(t0)
		}
	}
}

// addInv returns the additive inverse of x modulo 65536.
func addInv(x uint16) uint16 {
	return -x
}

type block struct {
	enc, dec Schedule
}

// NewBlock returns a crypto/cipher.Block implementing IDEA with key.
func NewBlock(key []byte) (cipher.Block, error) {
	enc, err := ExpandKey(key)
	if err != nil {
		return nil, err
	}
	return &block{enc: enc, dec: InvertSchedule(enc)}, nil
}

func (b *block) BlockSize() int { return BlockSize }

func (b *block) Encrypt(dst, src []byte) { crypt(&b.enc, dst, src) }

func (b *block) Decrypt(dst, src []byte) { crypt(&b.dec, dst, src) }
