// Package lark is an HTTP client for the parts of the Lark (Feishu) Open
// API that wikibinder needs: listing wiki space nodes and running drive
// export tasks.
//
// # Operations
//
//   - ListChildren: one page of a wiki node's children
//   - SubmitExport: create a PDF export task, returning its ticket
//   - PollExport: query an export task's status
//   - DownloadExport: stream an exported file
//
// # Authentication
//
// The client exchanges the application id/secret for a tenant access token
// and caches it until shortly before it expires. Responses reporting an
// invalid or expired token drop the cached token, so the retried call
// fetches a new one.
//
// # Errors
//
// Every method returns one of the model error types:
//   - *model.TransportError for network failures and 5xx responses
//   - *model.RateLimitError for code 99991400 or HTTP 429
//   - *model.APIError for any other non-zero response code
//
// The client never retries by itself; callers wrap calls with the backoff
// package. A client-side token bucket (golang.org/x/time/rate) spaces out
// requests so a large space does not trip the remote rate limit.
package lark
