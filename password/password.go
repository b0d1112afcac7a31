// Package password generates random passwords from selectable character
// sets.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Character sets. The "similar" variants drop glyphs that are easy to confuse
// when read back: I, O, l, 0 and 1.
const (
	Uppercase        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lowercase        = "abcdefghijklmnopqrstuvwxyz"
	Numbers          = "0123456789"
	Symbols          = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	UppercaseNoAlike = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	LowercaseNoAlike = "abcdefghijkmnopqrstuvwxyz"
	NumbersNoAlike   = "23456789"
)

const (
	DefaultLength = 12
	MaxLength     = 128
)

var (
	ErrNoCharacterSet = errors.New("At least one character set must be selected")
	ErrInvalidLength  = errors.New("invalid password length")
)

// Options selects the character sets and length.
type Options struct {
	Length                   int  `json:"length"`
	Uppercase                bool `json:"uppercase"`
	Lowercase                bool `json:"lowercase"`
	Numbers                  bool `json:"numbers"`
	Symbols                  bool `json:"symbols"`
	ExcludeSimilarCharacters bool `json:"excludeSimilarCharacters"`
}

// Sets returns the selected character sets in a fixed order.
func (o Options) Sets() []string {
	var sets []string
	if o.Uppercase {
		sets = append(sets, pick(o.ExcludeSimilarCharacters, UppercaseNoAlike, Uppercase))
	}
	if o.Lowercase {
		sets = append(sets, pick(o.ExcludeSimilarCharacters, LowercaseNoAlike, Lowercase))
	}
	if o.Numbers {
		sets = append(sets, pick(o.ExcludeSimilarCharacters, NumbersNoAlike, Numbers))
	}
	if o.Symbols {
		sets = append(sets, Symbols)
	}
	return sets
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// Generator draws passwords from Rand. The zero value uses crypto/rand.
type Generator struct {
	Rand      io.Reader
	MaxLength int
}

// Generate is shorthand for a zero Generator.
func Generate(opts Options) (string, error) {
	return Generator{}.Generate(opts)
}

// Generate returns a password of opts.Length characters drawn from the
// selected sets. Every selected set contributes at least one character when
// the length allows it.
func (g Generator) Generate(opts Options) (string, error) {
	limit := g.MaxLength
	if limit <= 0 {
		limit = MaxLength
	}
	if opts.Length < 0 || opts.Length > limit {
		return "", fmt.Errorf("%w: %d (0..%d)", ErrInvalidLength, opts.Length, limit)
	}
	sets := opts.Sets()
	if len(sets) == 0 {
		return "", ErrNoCharacterSet
	}

	rnd := g.Rand
	if rnd == nil {
		rnd = rand.Reader
	}

	var all []byte
	for _, s := range sets {
		all = append(all, s...)
	}

	out := make([]byte, opts.Length)
	for i := range out {
		c, err := randomByte(rnd, all)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Seed the leading positions with one character per set, then shuffle
	// so they do not stay in front.
	for i, s := range sets {
		if i >= len(out) {
			break
		}
		c, err := randomByte(rnd, []byte(s))
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	if err := shuffle(rnd, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func randomByte(rnd io.Reader, from []byte) (byte, error) {
	i, err := randomIndex(rnd, len(from))
	if err != nil {
		return 0, err
	}
	return from[i], nil
}

// randomIndex draws a uniform value in [0, n) without modulo bias.
func randomIndex(rnd io.Reader, n int) (int, error) {
	v, err := rand.Int(rnd, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("password: random source: %w", err)
	}
	return int(v.Int64()), nil
}

// shuffle is a Fisher-Yates shuffle driven by rnd.
func shuffle(rnd io.Reader, b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := randomIndex(rnd, i+1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
