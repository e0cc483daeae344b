package service

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Pseudonymizer maps patient identifiers to stable keyed digests so audit
// rows can be correlated without storing the identifier itself.
type Pseudonymizer struct {
	key []byte
}

func NewPseudonymizer(key string) (*Pseudonymizer, error) {
	if len(key) < 16 {
		return nil, errors.New("pseudonym key must be at least 16 bytes")
	}
	if len(key) > blake2b.Size {
		return nil, errors.New("pseudonym key must be at most 64 bytes")
	}
	return &Pseudonymizer{key: []byte(key)}, nil
}

// Pseudonym returns a 32 hex character digest of id. Empty input maps to "".
func (p *Pseudonymizer) Pseudonym(id string) string {
	if id == "" {
		return ""
	}
	h, err := blake2b.New(16, p.key)
	if err != nil {
		// Key length is checked in NewPseudonymizer.
		panic(err)
	}
	h.Write([]byte(id))
	return hex.EncodeToString(h.Sum(nil))
}
