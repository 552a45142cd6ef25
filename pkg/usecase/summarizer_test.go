package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/scribe/pkg/domain/model"
	"github.com/m-mizutani/scribe/pkg/usecase"
)

// githubAppMock implements interfaces.GitHubApp with injectable behavior.
type githubAppMock struct {
	exchangeFunc func(ctx context.Context, installationID int64) (*model.InstallationToken, error)
	commentFunc  func(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error
	calls        *[]string
}

func (m *githubAppMock) ExchangeInstallationToken(ctx context.Context, installationID int64) (*model.InstallationToken, error) {
	*m.calls = append(*m.calls, "token")
	return m.exchangeFunc(ctx, installationID)
}

func (m *githubAppMock) CreateIssueComment(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error {
	*m.calls = append(*m.calls, "comment")
	return m.commentFunc(ctx, token, issueAPIURL, body)
}

func newLLMMock(calls *[]string, summary string, genErr error) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateFunc: func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
					*calls = append(*calls, "summarize")
					if genErr != nil {
						return nil, genErr
					}
					return &gollem.Response{Texts: []string{summary}}, nil
				},
			}, nil
		},
	}
}

func issueOpenedEvent() *model.WebhookEvent {
	return &model.WebhookEvent{
		ID:             "test-delivery-1",
		Type:           model.EventTypeIssues,
		Action:         "opened",
		InstallationID: 42,
		Issue: &model.Issue{
			Title:   "Bug",
			Body:    "It crashes",
			HTMLURL: "https://x/issues/1",
			APIURL:  "https://api.x/issues/1",
		},
		ReceivedAt: time.Now(),
	}
}

func TestIssueSummarizer_ProcessEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Chain runs in order and posts summary", func(t *testing.T) {
		var calls []string
		var gotURL, gotBody, gotToken string

		ghApp := &githubAppMock{
			calls: &calls,
			exchangeFunc: func(ctx context.Context, installationID int64) (*model.InstallationToken, error) {
				gt.V(t, installationID).Equal(int64(42))
				return &model.InstallationToken{Token: "ghs_fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
			commentFunc: func(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error {
				gotToken = token.Token
				gotURL = issueAPIURL
				gotBody = body
				return nil
			},
		}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "  The app crashes on startup.  ", nil), ghApp)
		gt.NoError(t, err)

		gt.NoError(t, uc.ProcessEvent(ctx, issueOpenedEvent()))

		gt.V(t, calls).Equal([]string{"summarize", "token", "comment"})
		gt.V(t, gotToken).Equal("ghs_fresh")
		gt.V(t, gotURL).Equal("https://api.x/issues/1")
		gt.V(t, strings.Contains(gotBody, "The app crashes on startup.")).Equal(true)
	})

	t.Run("LLM failure short-circuits token and comment", func(t *testing.T) {
		var calls []string

		ghApp := &githubAppMock{
			calls: &calls,
			exchangeFunc: func(ctx context.Context, installationID int64) (*model.InstallationToken, error) {
				t.Error("token exchange should not run after LLM failure")
				return nil, nil
			},
			commentFunc: func(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error {
				t.Error("comment should not run after LLM failure")
				return nil
			},
		}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "", goerr.New("model unavailable")), ghApp)
		gt.NoError(t, err)

		gt.Error(t, uc.ProcessEvent(ctx, issueOpenedEvent()))
		gt.V(t, calls).Equal([]string{"summarize"})
	})

	t.Run("Token failure short-circuits comment", func(t *testing.T) {
		var calls []string

		ghApp := &githubAppMock{
			calls: &calls,
			exchangeFunc: func(ctx context.Context, installationID int64) (*model.InstallationToken, error) {
				return nil, goerr.New("token exchange rejected")
			},
			commentFunc: func(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error {
				t.Error("comment should not run after token failure")
				return nil
			},
		}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "summary", nil), ghApp)
		gt.NoError(t, err)

		gt.Error(t, uc.ProcessEvent(ctx, issueOpenedEvent()))
		gt.V(t, calls).Equal([]string{"summarize", "token"})
	})

	t.Run("Comment failure surfaces as error", func(t *testing.T) {
		var calls []string

		ghApp := &githubAppMock{
			calls: &calls,
			exchangeFunc: func(ctx context.Context, installationID int64) (*model.InstallationToken, error) {
				return &model.InstallationToken{Token: "ghs_fresh"}, nil
			},
			commentFunc: func(ctx context.Context, token *model.InstallationToken, issueAPIURL, body string) error {
				return goerr.New("comment endpoint returned 500")
			},
		}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "summary", nil), ghApp)
		gt.NoError(t, err)

		gt.Error(t, uc.ProcessEvent(ctx, issueOpenedEvent()))
		gt.V(t, calls).Equal([]string{"summarize", "token", "comment"})
	})

	t.Run("Unsupported event makes no outbound calls", func(t *testing.T) {
		var calls []string

		ghApp := &githubAppMock{calls: &calls}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "summary", nil), ghApp)
		gt.NoError(t, err)

		event := issueOpenedEvent()
		event.Action = "closed"

		gt.NoError(t, uc.ProcessEvent(ctx, event))
		gt.V(t, len(calls)).Equal(0)
	})

	t.Run("Issue without body is skipped", func(t *testing.T) {
		var calls []string

		ghApp := &githubAppMock{calls: &calls}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "summary", nil), ghApp)
		gt.NoError(t, err)

		event := issueOpenedEvent()
		event.Issue.Body = ""

		gt.NoError(t, uc.ProcessEvent(ctx, event))
		gt.V(t, len(calls)).Equal(0)
	})

	t.Run("Issue missing entirely is skipped", func(t *testing.T) {
		var calls []string

		ghApp := &githubAppMock{calls: &calls}

		uc, err := usecase.NewIssueSummarizer(newLLMMock(&calls, "summary", nil), ghApp)
		gt.NoError(t, err)

		event := issueOpenedEvent()
		event.Issue = nil

		gt.NoError(t, uc.ProcessEvent(ctx, event))
		gt.V(t, len(calls)).Equal(0)
	})
}
