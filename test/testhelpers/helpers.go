// Package testhelpers provides common utilities and helper functions for testing the Roomchat server.
//
// This package contains reusable test utilities that are shared across unit and integration tests.
// It provides functions for creating test servers, dialing websockets, performing the join
// handshake, and asserting response properties to reduce code duplication in test files.
package testhelpers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts a test server's base URL into the ws:// endpoint URL.
func WebSocketURL(t *testing.T, baseURL string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	return u.String()
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It returns the connection or an error if connection fails.
func ConnectWebSocket(wsURL string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	conn, resp, err := dialer.Dial(wsURL, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// JoinRoom dials the websocket endpoint and performs the join handshake for
// the given username and room. It fails the test on any error.
func JoinRoom(t *testing.T, wsURL, username, room string) *websocket.Conn {
	t.Helper()

	conn, err := ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := SendJoinEnvelope(conn, username, room); err != nil {
		t.Fatalf("Failed to send join envelope: %v", err)
	}
	return conn
}

// SendJoinEnvelope writes the handshake frame identifying username and room.
func SendJoinEnvelope(conn *websocket.Conn, username, room string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"channel":  room,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// SendText writes a plain text frame over the connection.
func SendText(conn *websocket.Conn, text string) error {
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// ReadText reads the next text frame, failing the test after the timeout.
func ReadText(t *testing.T, conn *websocket.Conn, timeout time.Duration) string {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return string(data)
}

// ExpectMessage reads the next frame and fails the test unless it matches.
func ExpectMessage(t *testing.T, conn *websocket.Conn, expected string, timeout time.Duration) {
	t.Helper()

	got := ReadText(t, conn, timeout)
	if got != expected {
		t.Fatalf("Expected message %q, got %q", expected, got)
	}
}

// ExpectNoMessage fails the test if a frame arrives before the timeout.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received %q", string(data))
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

// ExpectClosed waits for the connection to be closed by the server.
func ExpectClosed(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			t.Fatalf("Expected connection to be closed, but it stayed open")
		}
		return
	}
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, requestURL string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, requestURL, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
// It fails the test with a descriptive error message if the content types don't match.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// DecodeRoomList decodes the directory endpoint response body.
func DecodeRoomList(t *testing.T, resp *http.Response) (status string, rooms []string) {
	t.Helper()

	var body struct {
		Status string   `json:"status"`
		Rooms  []string `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode rooms response: %v", err)
	}
	return body.Status, body.Rooms
}
