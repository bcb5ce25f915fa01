package appveyor

// retryAttempts is the total attempt budget per request: the first try
// plus two retries.
const retryAttempts = 3

// withRetry invokes op up to attempts times and returns the first success
// or the last error. Every error from op is treated as transport-level and
// retried: all requests made through this package are read-only GETs, so
// unconditional retry is safe. HTTP error statuses never reach here; the
// caller inspects the response after the round trip succeeded.
func withRetry(attempts int, op func() error, onRetry func(attempt int, err error)) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt < attempts && onRetry != nil {
			onRetry(attempt, err)
		}
	}
	return err
}
