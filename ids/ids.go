// Package ids generates batches of unique identifiers.
package ids

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind selects the identifier scheme.
type Kind string

const (
	UUIDv4 Kind = "uuid-v4"
	UUIDv7 Kind = "uuid-v7"

	DefaultKind = UUIDv4
	MaxCount    = 100
)

var (
	ErrUnknownKind  = errors.New("unknown id kind")
	ErrInvalidCount = errors.New("invalid id count")
)

// ParseKind accepts "uuid-v4", "v4", "uuid4" and the v7 equivalents. An empty
// string yields DefaultKind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultKind, nil
	case "uuid-v4", "uuidv4", "uuid4", "v4":
		return UUIDv4, nil
	case "uuid-v7", "uuidv7", "uuid7", "v7":
		return UUIDv7, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Generate returns count identifiers of the given kind. count must be in
// 1..limit; a limit of 0 means MaxCount.
func Generate(kind Kind, count, limit int) ([]string, error) {
	if limit <= 0 {
		limit = MaxCount
	}
	if count < 1 || count > limit {
		return nil, fmt.Errorf("%w: %d (1..%d)", ErrInvalidCount, count, limit)
	}

	newID := uuid.NewRandom
	switch kind {
	case UUIDv4:
	case UUIDv7:
		newID = uuid.NewV7
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}

	out := make([]string, count)
	for i := range out {
		id, err := newID()
		if err != nil {
			return nil, fmt.Errorf("ids: %w", err)
		}
		out[i] = id.String()
	}
	return out, nil
}
