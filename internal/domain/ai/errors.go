package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrPaymentRequired indicates the provider refused the call for billing reasons (HTTP 402).
var ErrPaymentRequired = errors.New("ai payment required")

// ErrProviderFailed covers every other transport or HTTP failure, timeouts included.
var ErrProviderFailed = errors.New("ai provider failed")

// ErrEmptyCompletion means the provider answered without any content.
var ErrEmptyCompletion = errors.New("ai completion empty")

// ErrNotConfigured means no provider secret was available at startup.
var ErrNotConfigured = errors.New("ai provider not configured")
