package githubapp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/scribe/pkg/domain/interfaces"
	"github.com/m-mizutani/scribe/pkg/domain/model"
	"golang.org/x/oauth2"
)

type client struct {
	appID      int64
	signingKey jwk.Key
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for the GitHub App client
type Option func(*client)

// WithBaseURL points the client at a non-default GitHub API endpoint, such as
// a GitHub Enterprise Server instance.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// New creates a GitHub App client from the App ID and its PEM-encoded private
// key. A malformed key is rejected here so that startup fails closed instead
// of failing on the first webhook delivery.
func New(appID int64, privateKeyPEM []byte, opts ...Option) (interfaces.GitHubApp, error) {
	key, err := parseSigningKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	c := &client{
		appID:      appID,
		signingKey: key,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// newGitHubClient returns a go-github client that authenticates every request
// with the given bearer credential.
func (c *client) newGitHubClient(ctx context.Context, tokenType, credential string) (*github.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	ghc := github.NewClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   tokenType,
		AccessToken: credential,
	})))

	if c.baseURL != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("base_url", c.baseURL))
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		ghc.BaseURL = u
	}

	return ghc, nil
}

// ExchangeInstallationToken implements interfaces.GitHubApp. It signs a fresh
// assertion and performs one authenticated call to the token exchange
// endpoint. There is no retry; both HTTP rejections and network failures
// surface as errors with response diagnostics attached.
func (c *client) ExchangeInstallationToken(ctx context.Context, installationID int64) (*model.InstallationToken, error) {
	assertion, err := createAssertion(c.appID, c.signingKey, time.Now())
	if err != nil {
		return nil, err
	}

	ghc, err := c.newGitHubClient(ctx, "Bearer", assertion)
	if err != nil {
		return nil, err
	}

	token, resp, err := ghc.Apps.CreateInstallationToken(ctx, installationID, &github.InstallationTokenOptions{})
	if err != nil {
		if resp != nil {
			return nil, goerr.Wrap(err, "token exchange rejected",
				goerr.V("installation_id", installationID),
				goerr.V("status", resp.StatusCode),
			)
		}
		return nil, goerr.Wrap(err, "token exchange request failed",
			goerr.V("installation_id", installationID),
		)
	}

	ctxlog.From(ctx).Debug("Installation token obtained",
		"installation_id", installationID,
		"expires_at", token.GetExpiresAt().Time,
	)

	return &model.InstallationToken{
		Token:     token.GetToken(),
		ExpiresAt: token.GetExpiresAt().Time,
	}, nil
}

// CreateIssueComment implements interfaces.GitHubApp. The comment is posted to
// <issueAPIURL>/comments with installation token authorization. The issue API
// URL comes from the webhook payload, so the request is built from the
// absolute URL rather than owner/repo/number coordinates.
func (c *client) CreateIssueComment(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error {
	ghc, err := c.newGitHubClient(ctx, "token", token.Token)
	if err != nil {
		return err
	}

	req, err := ghc.NewRequest(http.MethodPost, issueAPIURL+"/comments", &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to build comment request", goerr.V("issue_url", issueAPIURL))
	}

	if _, err := ghc.Do(ctx, req, nil); err != nil {
		return goerr.Wrap(err, "failed to post comment", goerr.V("issue_url", issueAPIURL))
	}

	ctxlog.From(ctx).Debug("Comment posted", "issue_url", issueAPIURL)

	return nil
}
