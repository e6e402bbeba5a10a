package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWs_JoinsTournamentRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := realtime.NewHub(testLogger())
	go hub.Run(ctx)

	router := chi.NewRouter()
	router.Get("/ws/tournaments/{tournamentID}", NewWebSocketHandler(hub, []string{"*"}, testLogger()).ServeWs)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/4"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	room := realtime.RoomName(4)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), 4, realtime.EventScheduleGenerated, []int{1, 2, 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg realtime.WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, realtime.EventScheduleGenerated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
}

func TestServeWs_InvalidTournamentID(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	router := chi.NewRouter()
	router.Get("/ws/tournaments/{tournamentID}", NewWebSocketHandler(hub, []string{"*"}, testLogger()).ServeWs)

	req := httptest.NewRequest(http.MethodGet, "/ws/tournaments/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeWs_OriginCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := realtime.NewHub(testLogger())
	go hub.Run(ctx)

	router := chi.NewRouter()
	handler := NewWebSocketHandler(hub, []string{"https://app.example"}, testLogger())
	router.Get("/ws/tournaments/{tournamentID}", handler.ServeWs)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/9"

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"listed origin", "https://app.example", true},
		{"listed origin different case", "https://APP.example", true},
		{"no origin header", "", true},
		{"foreign origin", "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/tournaments/1", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, originChecker([]string{"*"})(req("https://anything.example")))
	assert.False(t, originChecker(nil)(req("https://anything.example")))
	assert.True(t, originChecker(nil)(req("")))
	assert.False(t, originChecker([]string{"https://app.example"})(req("https://app.example.evil")))
}
