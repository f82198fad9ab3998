// Package ws streams a playground session over a WebSocket.
//
// Clients send JSON messages of type run, source, language, example, clear
// and ping. Every reply is a JSON object with a type field; failures arrive
// as {"type": "error", "error": message} and keep the connection open.
// A run answers "running" at once and "result" when it finishes; closing
// the connection cancels a run still in flight.
package ws
