package types

// Version is the application version. Overwritten at build time via
// -ldflags "-X github.com/m-mizutani/scribe/pkg/domain/types.Version=...".
var Version = "0.0.1"
