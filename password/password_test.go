package password

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	for _, n := range []int{0, 1, 4, 12, 128} {
		pw, err := Generate(Options{Length: n, Lowercase: true, Numbers: true})
		require.NoError(t, err)
		assert.Len(t, pw, n)
	}

	_, err := Generate(Options{Length: 129, Lowercase: true})
	assert.ErrorIs(t, err, ErrInvalidLength)
	_, err = Generate(Options{Length: -1, Lowercase: true})
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestGenerate_NoCharacterSet(t *testing.T) {
	_, err := Generate(Options{Length: 12})
	assert.ErrorIs(t, err, ErrNoCharacterSet)
	assert.Equal(t, "At least one character set must be selected", err.Error())
}

func TestGenerate_EverySetRepresented(t *testing.T) {
	opts := Options{Length: 4, Uppercase: true, Lowercase: true, Numbers: true, Symbols: true}
	for i := 0; i < 200; i++ {
		pw, err := Generate(opts)
		require.NoError(t, err)
		assert.True(t, strings.ContainsAny(pw, Uppercase), pw)
		assert.True(t, strings.ContainsAny(pw, Lowercase), pw)
		assert.True(t, strings.ContainsAny(pw, Numbers), pw)
		assert.True(t, strings.ContainsAny(pw, Symbols), pw)
	}
}

func TestGenerate_ExcludeSimilar(t *testing.T) {
	opts := Options{Length: 128, Uppercase: true, Lowercase: true, Numbers: true, ExcludeSimilarCharacters: true}
	for i := 0; i < 20; i++ {
		pw, err := Generate(opts)
		require.NoError(t, err)
		assert.False(t, strings.ContainsAny(pw, "IOl01"), pw)
	}
}

func TestGenerate_OnlyFromSelectedSets(t *testing.T) {
	pw, err := Generate(Options{Length: 64, Numbers: true})
	require.NoError(t, err)
	assert.Equal(t, "", strings.Trim(pw, Numbers))
}

func TestGenerator_RandomSourceFailure(t *testing.T) {
	g := Generator{Rand: bytes.NewReader(nil)}
	_, err := g.Generate(Options{Length: 8, Lowercase: true})
	assert.Error(t, err)
}

func TestGenerator_CustomMaxLength(t *testing.T) {
	g := Generator{MaxLength: 16}
	_, err := g.Generate(Options{Length: 17, Lowercase: true})
	assert.ErrorIs(t, err, ErrInvalidLength)
}
