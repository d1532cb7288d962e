/*
Package executor issues single benchmark requests and classifies their outcome.

# Overview

A Client wraps one pooled http.Client shared by every worker of a run.
Execute sends exactly one request for an EndpointTarget and returns a
RequestOutcome; it never returns an error:

  - 2xx status: succeeded
  - any other status: failed, StatusCode set
  - transport failure or timeout: failed, ErrorKind set

The response body is drained and discarded so connections return to the pool.

# Timeouts

Every request is bounded by Options.RequestTimeout (10s by default), so one
hung connection cannot stall a run.

# Readiness

WaitReady probes all servers concurrently before a benchmark starts and
returns ErrUnreachable when a server never answers.
*/
package executor
