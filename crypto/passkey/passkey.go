// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package passkey folds a passphrase into fixed-size key material.
//
// The derivation is a plain XOR fold: every character of the passphrase
// is XORed into the output cyclically, wrapping at the output size. It
// is deterministic and total, and is used both for the 16-byte cipher
// key and for the block-sized initialization vectors of the chaining
// modes. It is not a password hash; it provides no stretching or salt.
package passkey

import "unicode/utf16"

// Derive returns size bytes of key material folded from passphrase.
// Each character contributes the low byte of its UTF-16 code unit
// (characters outside the Basic Multilingual Plane contribute both
// surrogates). An empty passphrase yields an all-zero key.
func Derive(passphrase string, size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	key := make([]byte, size)
	for i, c := range utf16.Encode([]rune(passphrase)) {
		key[i%size] ^= byte(c)
	}
	return key
}
