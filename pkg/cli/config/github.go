package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub App configuration
type GitHub struct {
	AppID          int64
	PrivateKeyPath string
	BaseURL        string
}

// Flags returns CLI flags for GitHub App configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Required:    true,
			Destination: &c.AppID,
			Sources:     cli.EnvVars("SCRIBE_GITHUB_APP_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-path",
			Usage:       "Path to the GitHub App private key PEM file",
			Required:    true,
			Destination: &c.PrivateKeyPath,
			Sources:     cli.EnvVars("SCRIBE_GITHUB_PRIVATE_KEY_PATH"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise Server)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("SCRIBE_GITHUB_API_URL"),
		},
	}
}

// ReadPrivateKey loads the App private key from disk. An unreadable key aborts
// startup rather than surfacing on the first webhook delivery.
func (c *GitHub) ReadPrivateKey() ([]byte, error) {
	data, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GitHub App private key",
			goerr.V("path", c.PrivateKeyPath),
		)
	}
	return data, nil
}
