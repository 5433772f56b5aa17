package etsy_test

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

var verifierChars = regexp.MustCompile(`^[A-Za-z0-9\-._~]+$`)

func TestNewPKCE(t *testing.T) {
	t.Parallel()

	p, err := etsy.NewPKCE()
	require.NoError(t, err)

	assert.Len(t, p.Verifier, 128)
	assert.Regexp(t, verifierChars, p.Verifier)

	sum := sha256.Sum256([]byte(p.Verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), p.Challenge)
	assert.NotContains(t, p.Challenge, "=")
}

func TestNewPKCE_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 50)
	for range 50 {
		p, err := etsy.NewPKCE()
		require.NoError(t, err)
		_, dup := seen[p.Verifier]
		require.False(t, dup, "verifier repeated")
		seen[p.Verifier] = struct{}{}
	}
}

func TestPKCEFromVerifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verifier      string
		wantChallenge string
	}{
		{
			// RFC 7636 appendix B.
			name:          "rfc example",
			verifier:      "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			wantChallenge: "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := etsy.PKCEFromVerifier(tt.verifier)
			assert.Equal(t, tt.verifier, p.Verifier)
			assert.Equal(t, tt.wantChallenge, p.Challenge)
		})
	}
}
