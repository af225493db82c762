package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/server"
)

// TestHealthHandlerUnit tests the health handler function in isolation.
// It verifies that the handler responds correctly to different HTTP methods
// and returns the expected status code and response body.
func TestHealthHandlerUnit(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "GET request to health endpoint",
			method:         "GET",
			expectedStatus: http.StatusOK,
			expectedBody:   "Roomchat server is running!",
		},
		{
			name:           "POST request to health endpoint",
			method:         "POST",
			expectedStatus: http.StatusOK,
			expectedBody:   "Roomchat server is running!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", http.NoBody)
			rr := httptest.NewRecorder()

			server.HealthHandler(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedBody, rr.Body.String())
		})
	}
}

// TestRoomsHandlerEmptyRegistry verifies the directory response when no room
// exists: the "no rooms" status and an empty (not null) list.
func TestRoomsHandlerEmptyRegistry(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rooms", http.NoBody)
	rr := httptest.NewRecorder()

	server.RoomsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body struct {
		Status string   `json:"status"`
		Rooms  []string `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "No rooms found yet!", body.Status)
	assert.NotNil(t, body.Rooms)
	assert.Empty(t, body.Rooms)

	assert.Contains(t, rr.Body.String(), `"rooms":[]`)
}

// TestRoomsHandlerMethodValidation verifies that the directory endpoint only
// accepts GET requests.
func TestRoomsHandlerMethodValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/rooms", http.NoBody)
	rr := httptest.NewRecorder()

	server.RoomsHandler(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// TestBoardHandlerRejectsBadPlayersParam verifies parameter validation on the
// board endpoint.
func TestBoardHandlerRejectsBadPlayersParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/board?players=seven", http.NoBody)
	rr := httptest.NewRecorder()

	server.BoardHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestBoardHandlerMissingDataFile verifies that an unreadable game data file
// surfaces as a server error, not a panic.
func TestBoardHandlerMissingDataFile(t *testing.T) {
	cfg := server.NewConfig()
	cfg.GameDataPath = "does-not-exist.json"
	server.SetConfig(cfg)
	t.Cleanup(func() {
		server.SetConfig(nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/board", http.NoBody)
	rr := httptest.NewRecorder()

	server.BoardHandler(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// TestTestPageHandler verifies that the built-in test page is served as HTML
// and performs the join handshake before chatting.
func TestTestPageHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rr := httptest.NewRecorder()

	server.TestPageHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rr.Body.String(), "channel"),
		"Test page should send the join envelope")
}
