// Package server implements the core HTTP and WebSocket server functionality for Roomchat.
//
// The implementation is organized into specialized files for configuration,
// the room registry, rooms and their fan-out streams, per-connection
// sessions, routing, and HTTP handlers to keep the codebase maintainable and
// testable as the project grows.
package server
