package digest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_KnownVectors(t *testing.T) {
	tests := []struct {
		algo Algorithm
		want string
	}{
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA384, "cb00753f45a35e8bb5a03d699ac65007272c32ab0eded1631a8b605a43ff5bed8086072ba1e7cc2358baeca134c825a7"},
		{SHA512, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
	}
	for _, tc := range tests {
		t.Run(string(tc.algo), func(t *testing.T) {
			got, n, err := Sum(context.Background(), strings.NewReader("abc"), tc.algo)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, int64(3), n)

			one, err := SumBytes([]byte("abc"), tc.algo)
			require.NoError(t, err)
			assert.Equal(t, got, one)
		})
	}
}

func TestSum_LargeInput(t *testing.T) {
	data := strings.Repeat("a", 3*chunkSize+17)
	got, n, err := Sum(context.Background(), strings.NewReader(data), SHA256)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	want, err := SumBytes([]byte(data), SHA256)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSum_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Sum(ctx, strings.NewReader("abc"), SHA256)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]Algorithm{
		"":        SHA256,
		"SHA-1":   SHA1,
		"sha256":  SHA256,
		"sha_384": SHA384,
		" SHA512": SHA512,
	} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAlgorithm("md5")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, _, err = Sum(context.Background(), strings.NewReader(""), Algorithm("md5"))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("ABCDEF", "abcdef"))
	assert.True(t, Match(" abc ", "abc"))
	assert.False(t, Match("abc", "abd"))
	assert.False(t, Match("abc", "abcd"))
	assert.False(t, Match("", ""))
}
