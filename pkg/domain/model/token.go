package model

import "time"

// InstallationToken is a scoped access token minted for a single webhook
// delivery. A fresh token is exchanged for every qualifying event; it lives in
// memory for the duration of one handling call and is never cached or reused
// across requests.
type InstallationToken struct {
	Token     string    `masq:"secret"`
	ExpiresAt time.Time
}
