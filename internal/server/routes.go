// Package server wires HTTP handlers into a ServeMux for the Roomchat
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/rs/cors"
)

// SetupRoutes configures all application routes and wraps them in the
// read-only CORS policy: any origin, GET only. That covers the directory
// endpoint for cross-origin status pages without opening mutating access.
func SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", WebSocketHandler)
	mux.HandleFunc("/rooms", RoomsHandler)
	mux.HandleFunc("/board", BoardHandler)
	mux.HandleFunc("/test", TestPageHandler)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(mux)
}
