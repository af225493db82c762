// Package server constructs and starts the Roomchat HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CreateServer creates and configures an HTTP server with the specified port and handler.
// It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer starts the HTTP server and begins listening for connections.
// It blocks until the server stops and returns the listen error.
func StartServer(server *http.Server) error {
	serverLogger().Info("server listening", zap.String("addr", server.Addr))
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server, then retires every
// room so connected sessions observe their closed fan-out streams and run
// their cleanup. It waits for active connections until the timeout.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	serverLogger().Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := server.Shutdown(ctx)
	registry.CloseAll()

	if err != nil {
		serverLogger().Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	serverLogger().Info("HTTP server shutdown completed")
	return nil
}
