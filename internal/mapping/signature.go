package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultHashLength is the number of hex characters kept from the digest.
const DefaultHashLength = 16

// Signature identifies the configuration a record list was generated from.
type Signature struct {
	Kind    string
	Version int
	Fields  map[string]any
}

// Key addresses a cached mapping.
type Key struct {
	Kind string `json:"kind"`
	Hash string `json:"hash"`
}

func (k Key) String() string {
	return k.Kind + "/" + k.Hash
}

// Canonical returns the deterministic JSON form of the signature. Object keys
// are sorted and strings are NFC-normalized so equivalent spellings of a path
// or category name hash identically.
func (s Signature) Canonical() (string, error) {
	if strings.TrimSpace(s.Kind) == "" {
		return "", errors.New("signature kind is required")
	}
	doc := map[string]any{
		"kind":    norm.NFC.String(s.Kind),
		"version": s.Version,
		"fields":  canonicalValue(s.Fields),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode signature: %w", err)
	}
	return string(data), nil
}

// Hash returns the first length hex characters of the SHA-256 digest of the
// canonical form. A length outside 1..64 uses DefaultHashLength.
func (s Signature) Hash(length int) (string, error) {
	canonical, err := s.Canonical()
	if err != nil {
		return "", err
	}
	return hashCanonical(canonical, length), nil
}

func hashCanonical(canonical string, length int) string {
	if length <= 0 || length > sha256.Size*2 {
		length = DefaultHashLength
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:length]
}

func canonicalValue(value any) any {
	switch v := value.(type) {
	case string:
		return norm.NFC.String(v)
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = norm.NFC.String(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = canonicalValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[norm.NFC.String(key)] = canonicalValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[norm.NFC.String(key)] = norm.NFC.String(item)
		}
		return out
	default:
		return v
	}
}
