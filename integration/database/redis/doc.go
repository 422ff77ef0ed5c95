// Package redis creates go-redis clients for the session slot and the
// cross-instance session change channel.
//
// Connect parses REDIS_URL, pings the server with exponential backoff retries
// and returns the ready client. Healthcheck returns a probe for the readiness
// endpoint.
package redis
