// Package api provides the REST control surface over the engine.
//
// Implements the HTTP API using the Gin framework with a standard
// response format, CORS support, API-key authentication, and
// per-route-category rate limiting. The engine itself is
// single-threaded; the server serializes store access behind a mutex.
package api
