package services

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// Signer produces the entry signature embedded in session-entry URLs. The
// signature is a deterministic digest of the token plus a process-wide
// secret, so any signature stays valid for the token's whole lifetime.
type Signer struct {
	secret string
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: secret}
}

func (s *Signer) Sign(token string) string {
	sum := md5.Sum([]byte(token + s.secret))
	return hex.EncodeToString(sum[:])
}

func (s *Signer) Verify(signature, token string) bool {
	expected := s.Sign(token)
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}
