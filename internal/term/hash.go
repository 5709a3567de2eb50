package term

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old hashes.
const (
	DomainTerm  = "icnet/term/v1"
	DomainTrace = "icnet/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content-addressed identity of a term. Structurally
// equal terms hash identically; the hash is stable across processes and
// engine versions sharing DomainTerm.
func Hash(t Term) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("term hash: %w", err)
	}
	return hashWithDomain(DomainTerm, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the term is known to be well formed.
func MustHash(t Term) string {
	h, err := Hash(t)
	if err != nil {
		panic(err)
	}
	return h
}

// TraceHash computes a content-addressed identity for a serialized trace.
func TraceHash(canonical []byte) string {
	return hashWithDomain(DomainTrace, canonical)
}
