// Package http exposes the playground over a JSON HTTP API built on gin.
//
// Run results are always returned with status 200; the outcome field tells
// success, failure and unsupported apart. Errors from sessions, storage and
// the catalog map to 4xx/5xx statuses with an {"error": message} body.
package http
