// Package openapi exposes the contracts for loading OpenAPI 3 documents and
// converting their component schemas into typed data definitions. The
// kin-openapi based implementations live under internal/openapi; the root
// typedwidget package wires them together.
package openapi
