package githubapp

import (
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// assertionSkew backdates iat to tolerate clock drift between this
	// process and GitHub's token endpoint.
	assertionSkew = time.Minute

	// assertionTTL is measured from iat and must stay under GitHub's
	// 10 minute maximum for App JWTs.
	assertionTTL = 9 * time.Minute
)

// parseSigningKey parses the PEM-encoded RSA private key of the App.
func parseSigningKey(pemData []byte) (jwk.Key, error) {
	key, err := jwk.ParseKey(pemData, jwk.WithPEM(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse App private key PEM")
	}
	return key, nil
}

// createAssertion builds and signs the short-lived RS256 JWT that identifies
// the App to GitHub. Each assertion is used exactly once per token exchange.
func createAssertion(appID int64, key jwk.Key, now time.Time) (string, error) {
	issuedAt := now.Add(-assertionSkew)

	token, err := jwt.NewBuilder().
		Issuer(strconv.FormatInt(appID, 10)).
		IssuedAt(issuedAt).
		Expiration(issuedAt.Add(assertionTTL)).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build assertion claims")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign assertion")
	}

	return string(signed), nil
}
