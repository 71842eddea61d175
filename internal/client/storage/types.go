package storage

import "github.com/atinyakov/FloraFacts/internal/client/session"

// State is what the client remembers between runs.
type State struct {
	Server string `json:"server,omitempty"`
	// Token is the bearer token of the signed-in user. Empty means anonymous.
	Token  string `json:"token,omitempty"`
	CAFile string `json:"caFile,omitempty"`
	// LastResult is the most recent successful identification, kept so it
	// can be saved to the gallery by a later command.
	LastResult *session.Result `json:"lastResult,omitempty"`
}
