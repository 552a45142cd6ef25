package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/scribe/pkg/domain/interfaces"
	"github.com/m-mizutani/scribe/pkg/domain/model"
)

//go:embed prompts/issue_summary.md
var summaryPromptTemplate string

type issueSummarizer struct {
	llmClient  gollem.LLMClient
	githubApp  interfaces.GitHubApp
	promptTmpl *template.Template
}

// NewIssueSummarizer creates the use case that summarizes newly opened issues
// and posts the summary back as an issue comment.
func NewIssueSummarizer(
	llmClient gollem.LLMClient,
	githubApp interfaces.GitHubApp,
) (interfaces.WebhookUseCase, error) {
	tmpl, err := template.New("issue_summary").Parse(summaryPromptTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse summary prompt template")
	}

	return &issueSummarizer{
		llmClient:  llmClient,
		githubApp:  githubApp,
		promptTmpl: tmpl,
	}, nil
}

// ProcessEvent processes a webhook event. Only newly opened issues produce
// side effects; everything else is logged and dropped. The chain runs strictly
// in order: summarize, exchange installation token, post comment. A failure at
// any step short-circuits the rest.
func (uc *issueSummarizer) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	if !event.IsSupportedEvent() {
		logger.Debug("Ignoring unsupported event",
			"id", event.ID,
			"type", event.Type,
			"action", event.Action,
		)
		return nil
	}

	if !event.Issue.HasContent() {
		logger.Info("Issue title or body missing, skipping summary", "id", event.ID)
		return nil
	}

	logger.Info("Processing new issue",
		"id", event.ID,
		"title", event.Issue.Title,
		"issue_url", event.Issue.HTMLURL,
	)

	summary, err := uc.summarize(ctx, event.Issue)
	if err != nil {
		return goerr.Wrap(err, "failed to summarize issue", goerr.V("issue_url", event.Issue.HTMLURL))
	}

	token, err := uc.githubApp.ExchangeInstallationToken(ctx, event.InstallationID)
	if err != nil {
		return goerr.Wrap(err, "failed to obtain installation token",
			goerr.V("installation_id", event.InstallationID),
		)
	}

	if err := uc.githubApp.CreateIssueComment(ctx, token, event.Issue.APIURL, formatComment(summary)); err != nil {
		return goerr.Wrap(err, "failed to post summary comment", goerr.V("issue_url", event.Issue.HTMLURL))
	}

	logger.Info("Posted issue summary", "issue_url", event.Issue.HTMLURL)

	return nil
}

// summarize renders the prompt with the issue title and body verbatim and asks
// the LLM for a short summary.
func (uc *issueSummarizer) summarize(ctx context.Context, issue *model.Issue) (string, error) {
	var buf bytes.Buffer
	if err := uc.promptTmpl.Execute(&buf, map[string]string{
		"Title": issue.Title,
		"Body":  issue.Body,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render summary prompt")
	}

	session, err := uc.llmClient.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty response from LLM")
	}

	return strings.TrimSpace(resp.Texts[0]), nil
}

// formatComment formats the summary as the comment body posted to the issue
func formatComment(summary string) string {
	return fmt.Sprintf("🤖 **Gemini Analysis:**\n\n%s", summary)
}
