/*
Package mock provides a configurable stub HTTP server used as a benchmark
target when the real framework servers are not running.

Routes match on method plus an exact, prefix or regex path and answer with a
fixed status, headers and body, optionally after a delay. DefaultConfig
serves the endpoints every benchmarked framework must expose:

	GET  /health
	POST /api/products
	POST /graphql
*/
package mock
