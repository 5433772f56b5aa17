package etsy

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

// verifierBytes yields a 128 character verifier, the RFC 7636 maximum.
const verifierBytes = 96

// PKCE is a Proof Key for Code Exchange verifier and its S256 challenge.
type PKCE struct {
	Verifier  string
	Challenge string
}

// NewPKCE generates a fresh verifier from crypto/rand.
func NewPKCE() (PKCE, error) {
	return newPKCE(rand.Reader)
}

func newPKCE(r io.Reader) (PKCE, error) {
	buf := make([]byte, verifierBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return PKCE{}, fmt.Errorf("generating code verifier: %w", err)
	}
	return PKCEFromVerifier(base64.RawURLEncoding.EncodeToString(buf)), nil
}

// PKCEFromVerifier rebuilds the pair from a cached verifier. The challenge is
// base64url(sha256(verifier)) without padding.
func PKCEFromVerifier(verifier string) PKCE {
	return PKCE{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
	}
}
