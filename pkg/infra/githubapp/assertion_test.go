package githubapp

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
)

func generateTestKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	gt.NoError(t, err)

	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(raw),
	})

	return raw, pemData
}

func TestCreateAssertion_Claims(t *testing.T) {
	raw, pemData := generateTestKey(t)

	key, err := parseSigningKey(pemData)
	gt.NoError(t, err)

	now := time.Now()
	signed, err := createAssertion(12345, key, now)
	gt.NoError(t, err)

	pubKey, err := jwk.FromRaw(&raw.PublicKey)
	gt.NoError(t, err)

	token, err := jwt.Parse([]byte(signed), jwt.WithKey(jwa.RS256, pubKey))
	gt.NoError(t, err)

	gt.V(t, token.Issuer()).Equal("12345")

	issuedAt := token.IssuedAt()
	expiration := token.Expiration()

	// The assertion must already be valid when GitHub sees it.
	if issuedAt.After(now) {
		t.Errorf("iat %v is after now %v", issuedAt, now)
	}

	// GitHub rejects App JWTs whose lifetime reaches 10 minutes.
	if lifetime := expiration.Sub(issuedAt); lifetime >= 10*time.Minute {
		t.Errorf("assertion lifetime %v is not under 10 minutes", lifetime)
	}

	if !expiration.After(now) {
		t.Errorf("exp %v is not in the future", expiration)
	}
}

func TestParseSigningKey_Malformed(t *testing.T) {
	_, err := parseSigningKey([]byte("this is not a PEM key"))
	gt.Error(t, err)
}
