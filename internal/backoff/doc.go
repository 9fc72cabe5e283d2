// Package backoff wraps remote operations with bounded exponential-backoff
// retry and error classification.
//
// Every call that crosses the network boundary (node listing, export
// submission, status polling and file download) goes through Do:
//
//	page, err := backoff.Do(ctx, policy, "list nodes", func(ctx context.Context) (*lark.NodePage, error) {
//	    return client.ListChildren(ctx, spaceID, parent, pageToken)
//	})
//
// Errors are classified as Fatal or Retryable. Rate limit signals, export
// job failures, permanent errors and context cancellation are fatal and
// returned immediately. Transport errors and other API errors are retried
// with delay = BaseDelay * 2^attempt + jitter in [0, 1s), up to MaxAttempts
// total attempts, after which a *model.RetriesExhaustedError is returned.
package backoff
