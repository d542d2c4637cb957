package model

import "time"

// ActivityPing is one observed edit in the host environment. Empty Category
// and SourceID mean "no active document".
type ActivityPing struct {
	Category  string    `json:"category"`
	SourceID  string    `json:"source"`
	Timestamp time.Time `json:"ts"`
}

// HasDocument reports whether the ping refers to an open document.
func (p ActivityPing) HasDocument() bool {
	return p.Category != "" && p.SourceID != ""
}

// Document describes the active document at a focus or editor change.
type Document struct {
	Category string `json:"category"`
	SourceID string `json:"source"`
}

// FocusEvent reports a window focus change together with the active
// document, if any.
type FocusEvent struct {
	Focused   bool      `json:"focused"`
	Document  *Document `json:"document,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// OpenSession is the still-running session of a tracker in the Tracking
// state.
type OpenSession struct {
	Category     string    `json:"category"`
	SourceID     string    `json:"source"`
	Start        time.Time `json:"start"`
	LastActivity time.Time `json:"lastActivity"`
}
