package llm_client

import "errors"

// ErrNotInitialized is returned when a generation call arrives before Init,
// or when the backend is configured as "none". Callers treat it as a degraded
// mode signal, not a fatal condition.
var ErrNotInitialized = errors.New("llm client not initialized")
