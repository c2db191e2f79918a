package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBackpressure = errors.New("signal send buffer full")
	ErrClosed       = errors.New("signal client closed")
)

const writeWait = 5 * time.Second

type Config struct {
	URL        string
	APIKey     string
	ReadLimit  int64
	PingPeriod time.Duration
}

// Client keeps one signaling socket: inbound frames become typed events on
// the handler, outbound frames carry this peer's SDP and ICE traffic.
type Client struct {
	conn    *websocket.Conn
	handler *events.Handler
	cfg     Config

	send chan []byte
	once sync.Once

	mu     sync.Mutex
	closed bool
}

func Dial(ctx context.Context, cfg Config, handler *events.Handler) (*Client, error) {
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial signal %s: %w", cfg.URL, err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	if cfg.ReadLimit > 0 {
		conn.SetReadLimit(cfg.ReadLimit)
	}

	return &Client{
		conn:    conn,
		handler: handler,
		cfg:     cfg,
		send:    make(chan []byte, 32),
	}, nil
}

// Run drives both pumps until the context ends or the socket breaks. All
// inbound dispatch happens on the read pump goroutine, so handler callbacks
// never run concurrently with each other.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readPump(ctx) })
	g.Go(func() error { return c.writePump(ctx) })
	g.Go(func() error {
		// The read pump blocks inside ReadMessage; closing the socket is the
		// only way to unblock it on cancellation.
		<-ctx.Done()
		c.Close()
		return ctx.Err()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close tears down the socket. The send channel stays open: pion callbacks
// and the renegotiation timer may still try to ship candidates after a
// socket drop, and those sends must fail with an error, not a panic.
func (c *Client) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("signal read: %w", err)
		}

		event, err := events.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "ws").Msg("malformed frame")
			c.handler.Notify(events.NewError("invalid event payload", nil), nil)
			continue
		}
		c.handler.Notify(event, nil)
	}
}

func (c *Client) writePump(ctx context.Context) error {
	pingPeriod := c.cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("signal write deadline: %w", err)
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("signal write: %w", err)
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("signal write deadline: %w", err)
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("signal ping: %w", err)
			}
		}
	}
}

func (c *Client) trySend(data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Client) sendEvent(ctx context.Context, e events.Event) error {
	data, err := events.Encode(e)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return c.trySend(data)
}

// SendDescription ships an SDP to one peer of one call.
func (c *Client) SendDescription(ctx context.Context, callID domain.CallID, peerID domain.UserID, desc webrtc.SessionDescription) error {
	return c.sendEvent(ctx, events.RTCDescription{
		CallID:      callID,
		PeerID:      peerID,
		Description: desc,
	})
}

// SendCandidate ships one ICE candidate to one peer of one call.
func (c *Client) SendCandidate(ctx context.Context, callID domain.CallID, peerID domain.UserID, candidate webrtc.ICECandidateInit) error {
	return c.sendEvent(ctx, events.RTCCandidate{
		CallID:    callID,
		PeerID:    peerID,
		Candidate: candidate,
	})
}
