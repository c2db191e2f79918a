package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/adapters/ws"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	client *ws.Client
	server chan *websocket.Conn
	done   chan error
}

func newFixture(t *testing.T, handler *events.Handler) *fixture {
	t.Helper()

	f := &fixture{
		server: make(chan *websocket.Conn, 1),
		done:   make(chan error, 1),
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		f.server <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := ws.Dial(context.Background(), ws.Config{URL: url, APIKey: "secret"}, handler)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { f.done <- client.Run(ctx) }()

	f.client = client
	return f
}

func TestClient_Inbound(t *testing.T) {
	t.Parallel()

	t.Run("it should dispatch decoded frames", func(t *testing.T) {
		handler := events.NewHandler(nil)
		got := make(chan events.Event, 1)
		handler.OnEvent(events.TagRoomMessage, func(e events.Event) { got <- e })

		f := newFixture(t, handler)
		server := <-f.server

		frame, err := events.Encode(events.RoomMessage{RoomID: "r-1", AuthorID: "bob", Body: "hello"})
		require.NoError(t, err)
		require.NoError(t, server.WriteMessage(websocket.TextMessage, frame))

		select {
		case e := <-got:
			msg := e.(events.RoomMessage)
			require.Equal(t, domain.RoomID("r-1"), msg.RoomID)
			require.Equal(t, "hello", msg.Body)
		case <-time.After(time.Second):
			t.Fatal("no event dispatched")
		}
	})

	t.Run("it should survive a malformed frame", func(t *testing.T) {
		handler := events.NewHandler(nil)
		got := make(chan events.Event, 1)
		handler.OnEvent(events.TagRoomTyping, func(e events.Event) { got <- e })

		f := newFixture(t, handler)
		server := <-f.server

		require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"tag":"no_such_tag"}`)))

		frame, err := events.Encode(events.RoomTyping{RoomID: "r-1", AuthorID: "bob"})
		require.NoError(t, err)
		require.NoError(t, server.WriteMessage(websocket.TextMessage, frame))

		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatal("client stopped reading after a bad frame")
		}
	})
}

func TestClient_Outbound(t *testing.T) {
	t.Parallel()

	t.Run("it should ship descriptions with the rtc tag", func(t *testing.T) {
		f := newFixture(t, events.NewHandler(nil))
		server := <-f.server

		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
		require.NoError(t, f.client.SendDescription(context.Background(), "c-1", "bob", desc))

		_, data, err := server.ReadMessage()
		require.NoError(t, err)

		var env struct {
			Tag    string        `json:"tag"`
			CallID domain.CallID `json:"callId"`
			PeerID domain.UserID `json:"peerId"`
		}
		require.NoError(t, json.Unmarshal(data, &env))
		require.Equal(t, events.TagRTCDescription, env.Tag)
		require.Equal(t, domain.CallID("c-1"), env.CallID)
		require.Equal(t, domain.UserID("bob"), env.PeerID)
	})

	t.Run("it should ship candidates with the rtc tag", func(t *testing.T) {
		f := newFixture(t, events.NewHandler(nil))
		server := <-f.server

		cand := webrtc.ICECandidateInit{Candidate: "candidate:0"}
		require.NoError(t, f.client.SendCandidate(context.Background(), "c-1", "bob", cand))

		_, data, err := server.ReadMessage()
		require.NoError(t, err)

		event, err := events.Decode(data)
		require.NoError(t, err)
		require.Equal(t, events.TagRTCCandidate, event.Tag())
	})
}

func TestClient_SendAfterClose(t *testing.T) {
	t.Parallel()

	t.Run("it should refuse sends on a closed client", func(t *testing.T) {
		f := newFixture(t, events.NewHandler(nil))
		<-f.server

		f.client.Close()

		err := f.client.SendCandidate(context.Background(), "c-1", "bob", webrtc.ICECandidateInit{Candidate: "candidate:0"})
		require.ErrorIs(t, err, ws.ErrClosed)

		err = f.client.SendDescription(context.Background(), "c-1", "bob", webrtc.SessionDescription{Type: webrtc.SDPTypeOffer})
		require.ErrorIs(t, err, ws.ErrClosed)
	})

	t.Run("it should refuse late candidates after the socket dropped", func(t *testing.T) {
		f := newFixture(t, events.NewHandler(nil))
		server := <-f.server

		// Remote side drops the socket; Run winds down and closes the client.
		require.NoError(t, server.Close())
		select {
		case <-f.done:
		case <-time.After(time.Second):
			t.Fatal("run did not return after the socket dropped")
		}

		// A peer connection still firing ICE must get an error, never a panic.
		err := f.client.SendCandidate(context.Background(), "c-1", "bob", webrtc.ICECandidateInit{Candidate: "candidate:0"})
		require.ErrorIs(t, err, ws.ErrClosed)
	})
}

func TestClient_Shutdown(t *testing.T) {
	t.Parallel()

	handler := events.NewHandler(nil)
	f := &fixture{server: make(chan *websocket.Conn, 1), done: make(chan error, 1)}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		f.server <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := ws.Dial(context.Background(), ws.Config{URL: url}, handler)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { f.done <- client.Run(ctx) }()
	<-f.server

	cancel()

	select {
	case err := <-f.done:
		require.NoError(t, err, "a cancelled context is a clean shutdown")
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}
