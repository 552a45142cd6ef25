package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/scribe/pkg/domain/interfaces"
	"github.com/m-mizutani/scribe/pkg/domain/model"
)

// Statuses returned to the webhook caller
const (
	statusSuccess               = "success"
	statusConfigError           = "config_error"
	statusInvalidJSON           = "invalid_json"
	statusMissingInstallationID = "missing_installation_id"
)

// WebhookHandler handles GitHub webhook deliveries
type WebhookHandler struct {
	webhookUC interfaces.WebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookUC interfaces.WebhookUseCase) *WebhookHandler {
	return &WebhookHandler{
		webhookUC: webhookUC,
	}
}

// envelope covers the payload fields shared by every event type
type envelope struct {
	Action       string `json:"action"`
	Installation *struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

// Handle processes one webhook delivery. Processing failures never change the
// response: GitHub's delivery system only needs an acknowledgment, and a
// non-2xx status would trigger redelivery for errors a retry cannot fix.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeStatus(ctx, w, http.StatusBadRequest, statusInvalidJSON)
		return
	}
	defer r.Body.Close()

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Warn("Request body is not valid JSON", "error", err)
		writeStatus(ctx, w, http.StatusBadRequest, statusInvalidJSON)
		return
	}

	if h.webhookUC == nil {
		logger.Error("Webhook use case is not configured")
		writeStatus(ctx, w, http.StatusInternalServerError, statusConfigError)
		return
	}

	// Token exchange is impossible without an installation, regardless of
	// event type.
	if env.Installation == nil || env.Installation.ID == 0 {
		logger.Warn("No installation ID in payload, cannot authenticate")
		writeStatus(ctx, w, http.StatusBadRequest, statusMissingInstallationID)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	event := &model.WebhookEvent{
		ID:             deliveryID,
		Type:           model.WebhookEventType(eventType),
		Action:         env.Action,
		InstallationID: env.Installation.ID,
		ReceivedAt:     time.Now(),
		RawPayload:     body,
	}

	if event.IsSupportedEvent() {
		issue, err := extractIssue(eventType, body)
		if err != nil {
			logger.Warn("Failed to extract issue from payload", "error", err)
		} else {
			event.Issue = issue
		}
	}

	logger.Info("Webhook event received",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"installation_id", event.InstallationID,
		"supported", event.IsSupportedEvent(),
	)

	// Upstream failures (LLM, token exchange, comment post) are logged and
	// swallowed; the delivery is still acknowledged.
	if err := h.webhookUC.ProcessEvent(ctx, event); err != nil {
		logger.Error("Failed to process webhook event", "id", event.ID, "error", err)
	}

	writeStatus(ctx, w, http.StatusOK, statusSuccess)
}

// extractIssue pulls the issue fields out of an issues event payload
func extractIssue(eventType string, body []byte) (*model.Issue, error) {
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse webhook payload")
	}

	issuesEvent, ok := payload.(*github.IssuesEvent)
	if !ok {
		return nil, goerr.New("payload is not an issues event")
	}

	issue := issuesEvent.GetIssue()
	return &model.Issue{
		Title:   issue.GetTitle(),
		Body:    issue.GetBody(),
		HTMLURL: issue.GetHTMLURL(),
		APIURL:  issue.GetURL(),
	}, nil
}
