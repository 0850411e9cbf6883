// Package fetch provides the shared HTTP client used by sitemap and page
// fetching. It owns the connection pool, per-request timeouts, body size
// limits, and the classification of fetch failures into the pipeline's
// failure kinds.
package fetch
