package domain

import "errors"

// FallbackErrorAnswer replaces the answer text when the stream fails for any
// reason other than a deliberate cancellation.
const FallbackErrorAnswer = "An error occurred while fetching the answer."

var (
	ErrEmptyQuestion      = errors.New("question is empty")
	ErrUnknownMode        = errors.New("unknown mode")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrSessionExpired     = errors.New("login session expired")
	ErrUnauthorized       = errors.New("backend rejected credentials")
	ErrTransport          = errors.New("stream transport failed")
	ErrServerReported     = errors.New("backend reported an error")
	ErrSuperseded         = errors.New("request superseded by a newer question")
	ErrMalformedFrame     = errors.New("malformed event frame")
	ErrUnknownFrame       = errors.New("unknown event frame type")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
)
