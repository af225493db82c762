package integration

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roomchat/internal/server"
	"roomchat/test/testhelpers"
)

// TestGracefulShutdownWithClients verifies that active sessions are closed
// during graceful shutdown: retiring the rooms closes every fan-out stream,
// each session runs its cleanup, and the registry ends up empty.
func TestGracefulShutdownWithClients(t *testing.T) {
	configureServerForTest(t, func(cfg *server.Config) {
		cfg.Port = ":18082"
	})

	mux := server.SetupRoutes()
	httpServer := server.CreateServer(":18082", mux)

	go func() {
		_ = server.StartServer(httpServer)
	}()
	time.Sleep(100 * time.Millisecond)

	wsURL := "ws://localhost:18082/ws"
	const numClients = 5
	clients := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conn, err := testhelpers.ConnectWebSocket(wsURL)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		clients[i] = conn
		if err := testhelpers.SendJoinEnvelope(conn, charName(i), "shutdown-room"); err != nil {
			t.Fatalf("Failed to join client %d: %v", i, err)
		}
	}
	time.Sleep(200 * time.Millisecond)

	if err := server.ShutdownServer(httpServer, 5*time.Second); err != nil {
		t.Errorf("Graceful shutdown failed: %v", err)
	}

	for i, conn := range clients {
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("Failed to set deadline for client %d: %v", i, err)
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		_ = conn.Close()
	}

	waitForRoomCount(t, 0, 3*time.Second)
}

func charName(i int) string {
	return string(rune('a' + i))
}
