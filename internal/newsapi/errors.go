package newsapi

import "errors"

var (
	// ErrRateLimitExceeded is returned after the retry budget for upstream
	// throttling is spent. Callers must treat it as terminal for the whole
	// ingestion pass, not just the current category.
	ErrRateLimitExceeded = errors.New("rate limit exceeded - max retries reached")

	// ErrAccessForbidden is returned on an upstream permission failure.
	// Never retried.
	ErrAccessForbidden = errors.New("api access forbidden")

	// ErrTransientFetch wraps network, timeout and unexpected-status
	// failures. The client does not retry these; the orchestrator decides
	// whether to skip the category or give up.
	ErrTransientFetch = errors.New("transient fetch error")
)
