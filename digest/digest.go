// Package digest computes and compares file checksums.
package digest

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Algorithm names a supported hash function.
type Algorithm string

const (
	SHA1   Algorithm = "SHA-1"
	SHA256 Algorithm = "SHA-256"
	SHA384 Algorithm = "SHA-384"
	SHA512 Algorithm = "SHA-512"

	Default = SHA256
)

// ErrUnknownAlgorithm is returned by ParseAlgorithm for names it does not know.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

const chunkSize = 64 * 1024

// Algorithms lists the supported algorithms in display order.
func Algorithms() []Algorithm { return []Algorithm{SHA1, SHA256, SHA384, SHA512} }

// ParseAlgorithm accepts "SHA-256", "sha256" and similar spellings. An empty
// name yields Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "":
		return Default, nil
	case "SHA-1", "SHA1":
		return SHA1, nil
	case "SHA-256", "SHA256":
		return SHA256, nil
	case "SHA-384", "SHA384":
		return SHA384, nil
	case "SHA-512", "SHA512":
		return SHA512, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
}

// Sum streams r through algo and returns the lowercase hex digest and the
// number of bytes read. The context is checked between chunks.
func Sum(ctx context.Context, r io.Reader, algo Algorithm) (string, int64, error) {
	h, err := algo.newHash()
	if err != nil {
		return "", 0, err
	}

	buf := make([]byte, chunkSize)
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return "", n, err
		}
		read, rerr := r.Read(buf)
		if read > 0 {
			h.Write(buf[:read])
			n += int64(read)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", n, rerr
		}
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// SumBytes hashes b in one call.
func SumBytes(b []byte, algo Algorithm) (string, error) {
	h, err := algo.newHash()
	if err != nil {
		return "", err
	}
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Match compares two hex digests ignoring case and surrounding space, in
// constant time for equal-length inputs.
func Match(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
