package interfaces

import (
	"context"

	"github.com/m-mizutani/scribe/pkg/domain/model"
)

// GitHubApp defines operations performed against the GitHub Apps API
type GitHubApp interface {
	// ExchangeInstallationToken mints a fresh signed assertion and trades it
	// for an installation access token scoped to the given installation.
	// The exchange happens once per webhook delivery; tokens are never cached.
	ExchangeInstallationToken(ctx context.Context, installationID int64) (*model.InstallationToken, error)

	// CreateIssueComment posts a comment to the issue's comments endpoint
	// using the given installation token.
	CreateIssueComment(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error
}
