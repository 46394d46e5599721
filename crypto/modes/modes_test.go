// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package modes_test

import (
	"crypto/cipher"
	"flag"
	"fmt"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/grailbio/ideafile/crypto/idea"
	"github.com/grailbio/ideafile/crypto/modes"
	"github.com/grailbio/ideafile/crypto/passkey"
	"github.com/grailbio/ideafile/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func transformAll(m modes.Mode, buf []byte) {
	for off := 0; off < len(buf); off += idea.BlockSize {
		m.Transform(buf, off)
	}
}

func randomBlocks(fz *fuzz.Fuzzer, n int) []byte {
	buf := make([]byte, n*idea.BlockSize)
	for i := range buf {
		fz.Fuzz(&buf[i])
	}
	return buf
}

func TestRoundTrip(t *testing.T) {
	fz := fuzz.New()
	for _, kind := range modes.Kinds {
		for _, pass := range []string{"", "secret", "a much longer passphrase than the key"} {
			t.Run(fmt.Sprintf("%v/%q", kind, pass), func(t *testing.T) {
				plain := randomBlocks(fz, 37)
				buf := append([]byte(nil), plain...)

				enc, err := modes.New(kind, true, pass)
				require.NoError(t, err)
				expect.EQ(t, enc.Kind(), kind)
				expect.True(t, enc.Encrypting())
				transformAll(enc, buf)
				if kind != modes.OFB || pass != "" {
					require.NotEqual(t, plain, buf)
				}

				dec, err := modes.New(kind, false, pass)
				require.NoError(t, err)
				expect.False(t, dec.Encrypting())
				transformAll(dec, buf)
				require.Equal(t, plain, buf)
			})
		}
	}
}

// The modes must agree with the standard library's implementations
// driven by the same block cipher.
func TestStandardModes(t *testing.T) {
	fz := fuzz.New()
	const pass = "correct horse battery staple"
	var (
		key = passkey.Derive(pass, idea.KeySize)
		iv  = passkey.Derive(pass, idea.BlockSize)
	)
	block, err := idea.NewBlock(key)
	assert.NoError(t, err)
	plain := randomBlocks(fz, 64)

	for _, c := range []struct {
		kind     modes.Kind
		enc, dec func(dst, src []byte)
	}{
		{
			modes.ECB,
			func(dst, src []byte) {
				for i := 0; i < len(src); i += idea.BlockSize {
					block.Encrypt(dst[i:], src[i:])
				}
			},
			func(dst, src []byte) {
				for i := 0; i < len(src); i += idea.BlockSize {
					block.Decrypt(dst[i:], src[i:])
				}
			},
		},
		{
			modes.CBC,
			cipher.NewCBCEncrypter(block, iv).CryptBlocks,
			cipher.NewCBCDecrypter(block, iv).CryptBlocks,
		},
		{
			modes.CFB,
			cipher.NewCFBEncrypter(block, iv).XORKeyStream,
			cipher.NewCFBDecrypter(block, iv).XORKeyStream,
		},
		{
			modes.OFB,
			cipher.NewOFB(block, iv).XORKeyStream,
			cipher.NewOFB(block, iv).XORKeyStream,
		},
	} {
		want := make([]byte, len(plain))
		c.enc(want, plain)
		got := append([]byte(nil), plain...)
		m, err := modes.New(c.kind, true, pass)
		assert.NoError(t, err)
		transformAll(m, got)
		require.Equal(t, want, got, "%v: encryption differs from crypto/cipher", c.kind)

		c.dec(want, got)
		m, err = modes.New(c.kind, false, pass)
		assert.NoError(t, err)
		transformAll(m, got)
		expect.EQ(t, got, plain)
		expect.EQ(t, want, plain)
	}
}

func TestCBCChaining(t *testing.T) {
	// Two identical plaintext blocks yield distinct ciphertext blocks
	// in CBC and identical ones in ECB.
	buf := []byte("ABCDEFGHABCDEFGH")
	m, err := modes.New(modes.CBC, true, "k")
	assert.NoError(t, err)
	transformAll(m, buf)
	expect.True(t, string(buf[:8]) != string(buf[8:]))

	buf = []byte("ABCDEFGHABCDEFGH")
	m, err = modes.New(modes.ECB, true, "k")
	assert.NoError(t, err)
	transformAll(m, buf)
	expect.EQ(t, buf[:8], buf[8:])
}

// OFB produces a keystream independent of the data, so the XOR of two
// ciphertexts equals the XOR of their plaintexts.
func TestOFBKeystream(t *testing.T) {
	fz := fuzz.New()
	p1, p2 := randomBlocks(fz, 16), randomBlocks(fz, 16)
	c1, c2 := append([]byte(nil), p1...), append([]byte(nil), p2...)
	for _, c := range [][]byte{c1, c2} {
		m, err := modes.New(modes.OFB, true, "stream")
		assert.NoError(t, err)
		transformAll(m, c)
	}
	for i := range p1 {
		if c1[i]^c2[i] != p1[i]^p2[i] {
			t.Fatalf("byte %d: keystream depends on data", i)
		}
	}
	// Encryption and decryption coincide.
	m, err := modes.New(modes.OFB, false, "stream")
	assert.NoError(t, err)
	d := append([]byte(nil), p1...)
	transformAll(m, d)
	expect.EQ(t, d, c1)
}

func TestTransformOffset(t *testing.T) {
	for _, kind := range modes.Kinds {
		buf := []byte("prefix..ABCDEFGHsuffix..")
		m, err := modes.New(kind, true, "off")
		assert.NoError(t, err)
		m.Transform(buf, 8)
		expect.EQ(t, string(buf[:8]), "prefix..")
		expect.EQ(t, string(buf[16:]), "suffix..")

		m, err = modes.New(kind, false, "off")
		assert.NoError(t, err)
		m.Transform(buf, 8)
		expect.EQ(t, string(buf[8:16]), "ABCDEFGH")
	}
}

func TestInvalidIV(t *testing.T) {
	key := make([]byte, idea.KeySize)
	for _, fn := range []func(key, iv []byte, encrypt bool) (modes.Mode, error){
		modes.NewCBC, modes.NewCFB, modes.NewOFB,
	} {
		_, err := fn(key, make([]byte, 4), true)
		expect.True(t, errors.Is(errors.Invalid, err))
		_, err = fn(make([]byte, 3), make([]byte, idea.BlockSize), true)
		expect.True(t, errors.Is(errors.InvalidKeySize, err))
	}
	_, err := modes.NewECB(make([]byte, 3), false)
	expect.True(t, errors.Is(errors.InvalidKeySize, err))
}

func TestKind(t *testing.T) {
	for _, kind := range modes.Kinds {
		k, err := modes.ParseKind(kind.String())
		assert.NoError(t, err)
		expect.EQ(t, k, kind)
	}
	k, err := modes.ParseKind("ofb")
	assert.NoError(t, err)
	expect.EQ(t, k, modes.OFB)
	_, err = modes.ParseKind("gcm")
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.EQ(t, modes.Kind(9).String(), "Kind(9)")

	_, err = modes.New(modes.Kind(9), true, "x")
	expect.True(t, errors.Is(errors.Invalid, err))

	var (
		fs   = flag.NewFlagSet("test", flag.ContinueOnError)
		mode = modes.CBC
	)
	fs.Var(&mode, "mode", "mode of operation")
	assert.NoError(t, fs.Parse([]string{"-mode=cfb"}))
	expect.EQ(t, mode, modes.CFB)
}

func BenchmarkCBC(b *testing.B) {
	m, err := modes.New(modes.CBC, true, "bench")
	if err != nil {
		b.Fatal(err)
	}
	buf := make([]byte, 1<<16)
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		transformAll(m, buf)
	}
}
