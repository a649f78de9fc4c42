package llm

import "errors"

var (
	ErrNotConfigured     = errors.New("llm provider not configured")
	ErrUpstream          = errors.New("llm upstream call failed")
	ErrMalformedResponse = errors.New("llm response malformed")
)
