// Package server provides the HTTP surface of the validation gateway:
// POST /v1/validate for decisions, POST /v1/answers for expert answers and
// operator overrides, GET /healthz, and the Prometheus exposition endpoint.
package server
