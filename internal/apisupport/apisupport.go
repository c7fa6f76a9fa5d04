// Package apisupport holds build data exposed to external review tooling,
// notably the serialized file diff of the prepared working directory.
package apisupport

import "sync"

// ApiSupport receives serialized payloads from the lifecycle coordinator and
// keeps them for the surrounding pipeline to hand to the review system.
type ApiSupport struct {
	mu       sync.Mutex
	fileDiff string
}

// New creates an empty ApiSupport collaborator.
func New() *ApiSupport {
	return &ApiSupport{}
}

// AddFileDiff stores the JSON-serialized file diff of the prepared sources.
// The latest payload wins.
func (a *ApiSupport) AddFileDiff(payload string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fileDiff = payload
}

// FileDiff returns the stored diff payload, empty when none was recorded.
func (a *ApiSupport) FileDiff() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fileDiff
}
