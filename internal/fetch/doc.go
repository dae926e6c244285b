// Package fetch is the outbound HTTP client used by URL source adapters and
// reachability probes.
//
// Every request passes a shared token-bucket limiter, carries a per-request
// timeout and is retried with capped exponential backoff on timeouts, 408,
// 429 and 5xx responses (honouring Retry-After). FetchAll fans requests out
// over a bounded errgroup and concatenates the returned JSON arrays in URL
// order, so the combined artifact does not depend on completion order.
package fetch
