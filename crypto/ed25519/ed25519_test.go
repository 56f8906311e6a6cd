// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"crypto/ed25519"
	"crypto/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

var (
	TestPrivateKey = PrivateKey(
		[PrivateKeyLen]byte{
			32, 241, 118, 222, 210, 13, 164, 128, 3, 18,
			109, 215, 176, 215, 168, 171, 194, 181, 4, 11,
			253, 199, 173, 240, 107, 148, 127, 190, 48, 164,
			12, 48, 115, 50, 124, 153, 59, 53, 196, 150, 168,
			143, 151, 235, 222, 128, 136, 161, 9, 40, 139, 85,
			182, 153, 68, 135, 62, 166, 45, 235, 251, 246, 69, 7,
		},
	)
	TestPublicKey = []byte{
		115, 50, 124, 153, 59, 53, 196, 150, 168, 143, 151, 235,
		222, 128, 136, 161, 9, 40, 139, 85, 182, 153, 68, 135,
		62, 166, 45, 235, 251, 246, 69, 7,
	}
)

func TestGeneratePrivateKeyDifferent(t *testing.T) {
	require := require.New(t)
	m := make(map[PrivateKey]bool)
	for i := 0; i < 10; i++ {
		priv, err := GeneratePrivateKey()
		require.NoError(err)
		require.NotEqual(EmptyPrivateKey, priv)
		require.False(m[priv], "duplicate key")
		m[priv] = true
	}
}

func TestPublicKeyValid(t *testing.T) {
	require := require.New(t)
	var expected PublicKey
	copy(expected[:], TestPublicKey)
	require.Equal(expected, TestPrivateKey.PublicKey())
}

func TestSignMatchesStdlib(t *testing.T) {
	require := require.New(t)
	msg := []byte("msg")
	var expected Signature
	copy(expected[:], ed25519.Sign(TestPrivateKey[:], msg))
	require.Equal(expected, Sign(msg, TestPrivateKey))
}

func TestVerify(t *testing.T) {
	require := require.New(t)
	msg := []byte("msg")
	sig := Sign(msg, TestPrivateKey)
	pub := TestPrivateKey.PublicKey()

	require.True(Verify(msg, pub, sig))
	require.False(Verify([]byte("diff msg"), pub, sig))
	require.True(VerifyBytes(msg, pub[:], sig[:]))
	require.False(VerifyBytes(msg, pub[:31], sig[:]))
	require.False(VerifyBytes(msg, pub[:], sig[:10]))
}

func TestFromBytes(t *testing.T) {
	require := require.New(t)
	pub, err := PublicKeyFromBytes(TestPublicKey)
	require.NoError(err)
	require.Equal(TestPrivateKey.PublicKey(), pub)
	_, err = PublicKeyFromBytes(TestPublicKey[1:])
	require.ErrorIs(err, ErrInvalidPublicKey)
	_, err = SignatureFromBytes([]byte{1})
	require.ErrorIs(err, ErrInvalidSignature)
}

func TestAuthenticationKey(t *testing.T) {
	require := require.New(t)
	pub := TestPrivateKey.PublicKey()
	expected := sha3.Sum256(append(append([]byte{}, TestPublicKey...), 0))
	require.Equal(expected, pub.AuthenticationKey())
	addr := pub.Address()
	require.Equal(expected[:], addr[:])

	other, err := GeneratePrivateKey()
	require.NoError(err)
	require.NotEqual(pub.Address(), other.PublicKey().Address())
}

func batchItems(t testing.TB, n int) ([]PublicKey, [][]byte, []Signature) {
	pubs := make([]PublicKey, n)
	msgs := make([][]byte, n)
	sigs := make([]Signature, n)
	for i := 0; i < n; i++ {
		priv, err := GeneratePrivateKey()
		require.NoError(t, err)
		pubs[i] = priv.PublicKey()
		msg := make([]byte, 128)
		_, err = rand.Read(msg)
		require.NoError(t, err)
		msgs[i] = msg
		sigs[i] = Sign(msg, priv)
	}
	return pubs, msgs, sigs
}

func TestBatchVerify(t *testing.T) {
	require := require.New(t)
	pubs, msgs, sigs := batchItems(t, 256)

	bv := NewBatch(len(pubs))
	for i := range pubs {
		bv.Add(msgs[i], pubs[i], sigs[i])
	}
	require.True(bv.Verify())

	sigs[10][0]++
	bv = NewBatch(len(pubs))
	for i := range pubs {
		bv.Add(msgs[i], pubs[i], sigs[i])
	}
	require.False(bv.Verify())
}

func BenchmarkBatchVerify(b *testing.B) {
	for _, numItems := range []int{1, 16, 128, 1024} {
		b.Run(strconv.Itoa(numItems), func(b *testing.B) {
			pubs, msgs, sigs := batchItems(b, numItems)
			bv := NewBatch(numItems)
			for i := 0; i < numItems; i++ {
				bv.Add(msgs[i], pubs[i], sigs[i])
			}
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				require.True(b, bv.Verify())
			}
		})
	}
}

func TestPrivateKeyFromBytes(t *testing.T) {
	require := require.New(t)

	priv, err := GeneratePrivateKey()
	require.NoError(err)

	parsed, err := PrivateKeyFromBytes(priv[:])
	require.NoError(err)
	require.Equal(priv, parsed)

	parsed, err = PrivateKeyFromBytes(priv[:PrivateKeySeedLen])
	require.NoError(err)
	require.Equal(priv, parsed)

	_, err = PrivateKeyFromBytes(priv[:10])
	require.ErrorIs(err, ErrInvalidPrivateKey)
}
