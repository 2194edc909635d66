package session

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
)

// Algorithm constructs the hash backing the HMAC.
type Algorithm func() hash.Hash

// Algorithms maps configuration names to supported HMAC hashes.
var Algorithms = map[string]Algorithm{
	"sha":    sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Signer produces hex-encoded HMAC signatures over token payloads.
type Signer interface {
	Sign(payload string) string
}

// NewSigner creates a Signer keyed with the server secret. The default
// algorithm is SHA-256.
func NewSigner(secret string, opts ...SignerOption) Signer {
	s := &signer{
		key: []byte(secret),
		alg: Algorithms["sha256"],
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignerOption configures a Signer.
type SignerOption func(*signer)

// WithAlgorithm overrides the HMAC hash.
func WithAlgorithm(alg Algorithm) SignerOption {
	return func(s *signer) {
		if alg != nil {
			s.alg = alg
		}
	}
}

type signer struct {
	key []byte
	alg Algorithm
}

func (s *signer) Sign(payload string) string {
	mac := hmac.New(s.alg, s.key)
	// Writing cannot fail for in-memory hashes, so the write error is
	// intentionally ignored.
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
