package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypeIssues  WebhookEventType = "issues"
	EventTypeUnknown WebhookEventType = "unknown"
)

// Issue holds the fields of the issue that triggered an event. All fields come
// straight from the webhook payload and are discarded after handling.
type Issue struct {
	Title   string // Issue title
	Body    string // Issue body text
	HTMLURL string // Browser URL of the issue
	APIURL  string // API URL of the issue, base of the comments endpoint
}

// HasContent reports whether the issue carries both a title and a body.
// Issues missing either are skipped rather than summarized.
func (i *Issue) HasContent() bool {
	return i != nil && i.Title != "" && i.Body != ""
}

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID             string           // Retrieved from X-GitHub-Delivery header
	Type           WebhookEventType // Retrieved from X-GitHub-Event header
	Action         string           // Event action (e.g. opened)
	InstallationID int64            // App installation the event belongs to
	Issue          *Issue           // Set only for issues events
	ReceivedAt     time.Time        // Time when the event was received
	RawPayload     []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event is supported
func (e *WebhookEvent) IsSupportedEvent() bool {
	return e.Type == EventTypeIssues && e.Action == "opened"
}
