// Package server defines the wire payload types and utility helpers that are
// reused across session and handler logic.
package server

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Envelope is the join handshake payload: the first text frame of every
// connection names the desired username and target room. It is parsed once
// per connection and not retained.
type Envelope struct {
	Username string `json:"username" validate:"required"`
	Channel  string `json:"channel"  validate:"required"`
}

// RoomList is the directory endpoint response.
type RoomList struct {
	Status string   `json:"status"`
	Rooms  []string `json:"rooms"`
}

// Fixed notices written to a connection that never makes it past the
// handshake. The texts are part of the wire contract.
const (
	noticeJoinFailed    = "Failed to connect to room!"
	noticeUsernameTaken = "Username already taken."
)

// Directory status texts.
const (
	statusNoRooms = "No rooms found yet!"
	statusSuccess = "Success!"
)

var validate = validator.New()

func joinAnnouncement(username string) string {
	return fmt.Sprintf("%s joined the chat!", username)
}

func leaveAnnouncement(username string) string {
	return fmt.Sprintf("%s left the chat!", username)
}

func chatMessage(username, text string) string {
	return fmt.Sprintf("%s: %s", username, text)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
