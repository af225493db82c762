// Package server exposes HTTP handlers, including WebSocket upgrades, the
// room directory, health checks, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomchat/internal/board"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler upgrades the connection and hands it to a new session.
// The session performs the join handshake itself; a connection that never
// completes it leaves no trace in the registry.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		serverLogger().Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	go NewSession(conn, registry).Run()
}

// RoomsHandler serves the directory endpoint: a weakly consistent snapshot
// of the active room names.
func RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed.", http.StatusMethodNotAllowed)
		return
	}

	names := registry.ListRoomNames()
	list := RoomList{Status: statusSuccess, Rooms: names}
	if len(names) == 0 {
		list.Status = statusNoRooms
		list.Rooms = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		serverLogger().Warn("error writing rooms response", zap.Error(err))
	}
}

// BoardHandler generates a randomized board. The player count comes from the
// "players" query parameter and defaults to 3.
func BoardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed.", http.StatusMethodNotAllowed)
		return
	}

	playerCount := 3
	if raw := r.URL.Query().Get("players"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid players parameter.", http.StatusBadRequest)
			return
		}
		playerCount = parsed
	}

	game, err := board.Load(currentConfig().GameDataPath)
	if err != nil {
		serverLogger().Error("error loading game data", zap.Error(err))
		http.Error(w, "Game data unavailable.", http.StatusInternalServerError)
		return
	}

	placements, err := board.Generate(game, playerCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(placements); err != nil {
		serverLogger().Warn("error writing board response", zap.Error(err))
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Roomchat server is running!")
}

// TestPageHandler serves an HTML test page for exercising the chat flow:
// join a room under a username, then exchange plain text messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Roomchat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            width: 200px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Roomchat Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="usernameInput" placeholder="Username">
        <input type="text" id="roomInput" placeholder="Room">
        <button id="joinButton" onclick="join()">Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const statusDiv = document.getElementById('status');

        function addMessage(message) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.textContent = message;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected, room) {
            if (connected) {
                statusDiv.textContent = 'Joined ' + room;
                statusDiv.className = 'status connected';
                messageInput.disabled = false;
                sendButton.disabled = false;
            } else {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                messageInput.disabled = true;
                sendButton.disabled = true;
            }
        }

        function join() {
            const username = document.getElementById('usernameInput').value.trim();
            const room = document.getElementById('roomInput').value.trim();
            if (!username || !room) {
                addMessage('Enter a username and a room first.');
                return;
            }
            if (ws) { ws.close(); }

            ws = new WebSocket('ws://' + location.host + '/ws');

            ws.onopen = function() {
                ws.send(JSON.stringify({username: username, channel: room}));
                updateStatus(true, room);
            };

            ws.onmessage = function(event) {
                addMessage(event.data);
            };

            ws.onclose = function() {
                updateStatus(false);
                ws = null;
            };
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(message);
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		serverLogger().Warn("error writing HTML response", zap.Error(err))
	}
}
