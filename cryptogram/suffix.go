// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cryptogram

import (
	"fmt"

	"github.com/grailbio/ideafile/crypto/idea"
	"github.com/grailbio/ideafile/errors"
)

// MaxLength is the largest plaintext length the length suffix can
// represent: 45 bits, or just under 32 TiB.
const MaxLength = 1<<45 - 1

// PackLength packs the plaintext length n into a suffix block. Bytes 0
// and 1 are zero; bytes 2 through 7 hold n<<3, big-endian, so the low
// three bits of byte 7 are zero. Lengths above MaxLength fail with
// errors.FileTooLarge.
func PackLength(n int64) ([]byte, error) {
	if n < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("negative length %d", n))
	}
	if n > MaxLength {
		return nil, errors.E(errors.FileTooLarge,
			fmt.Sprintf("length %d exceeds the maximum of %d", n, int64(MaxLength)))
	}
	b := make([]byte, idea.BlockSize)
	b[7] = byte(n << 3)
	b[6] = byte(n >> 5)
	b[5] = byte(n >> 13)
	b[4] = byte(n >> 21)
	b[3] = byte(n >> 29)
	b[2] = byte(n >> 37)
	return b, nil
}

// UnpackLength recovers a length packed by PackLength. It returns -1
// if b is not a block or if any of the reserved bits are set.
func UnpackLength(b []byte) int64 {
	if len(b) != idea.BlockSize || b[0] != 0 || b[1] != 0 || b[7]&7 != 0 {
		return -1
	}
	return int64(b[7])>>3 |
		int64(b[6])<<5 |
		int64(b[5])<<13 |
		int64(b[4])<<21 |
		int64(b[3])<<29 |
		int64(b[2])<<37
}

// EncryptedSize returns the size of the cryptogram for an n-byte
// plaintext: the data rounded up to a whole block, plus the suffix
// block.
func EncryptedSize(n int64) int64 {
	return roundUp(n) + idea.BlockSize
}

func roundUp(n int64) int64 {
	return (n + idea.BlockSize - 1) / idea.BlockSize * idea.BlockSize
}
