package rtc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// DefaultRenegotiationDelay collapses bursts of negotiation-needed signals
// into a single renegotiation attempt.
const DefaultRenegotiationDelay = 100 * time.Millisecond

var ErrConnectionClosed = errors.New("connection closed")

// State is the signaling lifecycle of one peer connection.
type State int

const (
	StateFresh State = iota
	StateOffering
	StateAnswering
	StateEstablished
	StateRenegotiating
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateOffering:
		return "offering"
	case StateAnswering:
		return "answering"
	case StateEstablished:
		return "established"
	case StateRenegotiating:
		return "renegotiating"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config tunes connection behavior.
type Config struct {
	// RenegotiationDelay defaults to DefaultRenegotiationDelay when zero.
	RenegotiationDelay time.Duration
	// DisableRenegotiation ignores negotiation-needed signals entirely.
	DisableRenegotiation bool
}

func (c Config) renegotiationDelay() time.Duration {
	if c.RenegotiationDelay <= 0 {
		return DefaultRenegotiationDelay
	}
	return c.RenegotiationDelay
}

// Connection drives exactly one signaling exchange with one remote peer and
// supervises renegotiation on an established connection. Exclusively owned
// by its Pool.
type Connection struct {
	callID domain.CallID
	peerID domain.UserID
	pc     PeerConnection
	signal SignalingPort
	cfg    Config

	mu         sync.Mutex
	state      State
	renegTimer *time.Timer

	onRemoteTrack func(*webrtc.TrackRemote)
}

func NewConnection(callID domain.CallID, peerID domain.UserID, pc PeerConnection, signal SignalingPort, cfg Config) *Connection {
	c := &Connection{
		callID: callID,
		peerID: peerID,
		pc:     pc,
		signal: signal,
		cfg:    cfg,
	}

	pc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		if err := c.signal.SendCandidate(context.Background(), c.callID, c.peerID, ci); err != nil {
			log.Error().Err(err).Str("module", "rtc").Str("peer", string(c.peerID)).Msg("could not send ICE candidate")
		}
	})
	pc.OnNegotiationNeeded(c.negotiationNeeded)
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Debug().Str("module", "rtc").Str("peer", string(c.peerID)).Str("peer_connection_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateConnected {
			c.markEstablished()
		}
	})
	pc.OnTrack(func(track *webrtc.TrackRemote) {
		c.mu.Lock()
		fn := c.onRemoteTrack
		c.mu.Unlock()
		if fn != nil {
			fn(track)
		}
	})

	log.Info().Str("module", "rtc").Str("call", string(callID)).Str("peer", string(peerID)).Msg("connection created")
	return c
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnRemoteTrack installs the single remote-track callback; later
// registration replaces earlier.
func (c *Connection) OnRemoteTrack(fn func(*webrtc.TrackRemote)) {
	c.mu.Lock()
	c.onRemoteTrack = fn
	c.mu.Unlock()
}

// StartOffer produces a local offer, applies it and transmits it to the
// remote peer. The returned description is the offer sent on success.
func (c *Connection) StartOffer(ctx context.Context) (webrtc.SessionDescription, error) {
	prev, err := c.transition(StateOffering, StateRenegotiating)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}

	offer, err := c.pc.CreateOffer()
	if err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("create offer", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("set local offer", err)
	}
	if err := c.signal.SendDescription(ctx, c.callID, c.peerID, offer); err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("send offer", err)
	}

	log.Debug().Str("module", "rtc").Str("peer", string(c.peerID)).Msg("offer sent")
	return offer, nil
}

// HandleOffer applies a remote offer and immediately answers it. A failure
// leaves the connection recoverable; it is not closed and a later exchange
// may still succeed.
func (c *Connection) HandleOffer(ctx context.Context, remote webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	prev, err := c.transition(StateAnswering, StateAnswering)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}

	if err := c.pc.SetRemoteDescription(remote); err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("set remote offer", err)
	}
	answer, err := c.pc.CreateAnswer()
	if err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("create answer", err)
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("set local answer", err)
	}
	if err := c.signal.SendDescription(ctx, c.callID, c.peerID, answer); err != nil {
		c.restore(prev)
		return webrtc.SessionDescription{}, signalingErr("send answer", err)
	}

	c.restore(StateEstablished)
	log.Debug().Str("module", "rtc").Str("peer", string(c.peerID)).Msg("answer sent")
	return answer, nil
}

// AddAnswer completes an offer this side initiated.
func (c *Connection) AddAnswer(remote webrtc.SessionDescription) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}
	if err := c.pc.SetRemoteDescription(remote); err != nil {
		return signalingErr("set remote answer", err)
	}
	c.restore(StateEstablished)
	return nil
}

// AddCandidate forwards a remote ICE candidate as soon as it is received.
// Tolerating early candidates is the primitive's concern, not buffered here.
func (c *Connection) AddCandidate(ci webrtc.ICECandidateInit) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}
	if err := c.pc.AddICECandidate(ci); err != nil {
		return signalingErr("add candidate", err)
	}
	return nil
}

func (c *Connection) AddTrack(track webrtc.TrackLocal) error {
	return c.pc.AddTrack(track)
}

func (c *Connection) RemoveTrack(track webrtc.TrackLocal) error {
	return c.pc.RemoveTrack(track)
}

func (c *Connection) ReplaceTrackByKind(track webrtc.TrackLocal) error {
	return c.pc.ReplaceTrackByKind(track)
}

// Disconnect closes the underlying connection. Idempotent.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	if c.renegTimer != nil {
		c.renegTimer.Stop()
		c.renegTimer = nil
	}
	c.mu.Unlock()

	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("peer", string(c.peerID)).Msg("close error")
	} else {
		log.Info().Str("module", "rtc").Str("peer", string(c.peerID)).Msg("disconnected")
	}
}

// negotiationNeeded fires spuriously on connection creation and on unrelated
// state changes on some platforms. Only an established connection attempts a
// fresh offer, and bursts within the debounce window collapse into one
// attempt armed after the last signal.
func (c *Connection) negotiationNeeded() {
	if c.cfg.DisableRenegotiation {
		log.Debug().Str("module", "rtc").Str("peer", string(c.peerID)).Msg("renegotiation disabled")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEstablished {
		log.Debug().Str("module", "rtc").Str("peer", string(c.peerID)).Str("state", c.state.String()).Msg("negotiation needed while not established, ignoring")
		return
	}
	if c.renegTimer != nil {
		c.renegTimer.Stop()
	}
	c.renegTimer = time.AfterFunc(c.cfg.renegotiationDelay(), func() {
		log.Debug().Str("module", "rtc").Str("peer", string(c.peerID)).Msg("renegotiating")
		if _, err := c.StartOffer(context.Background()); err != nil {
			// Not retried eagerly; the next negotiation-needed signal will.
			log.Error().Err(err).Str("module", "rtc").Str("peer", string(c.peerID)).Msg("could not renegotiate")
		}
	})
}

func (c *Connection) markEstablished() {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = StateEstablished
	}
	c.mu.Unlock()
}

// transition moves to next (or renegotiating when already established) and
// reports the prior state so failed exchanges can roll back.
func (c *Connection) transition(next, whenEstablished State) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return StateClosed, ErrConnectionClosed
	}
	prev := c.state
	if prev == StateEstablished || prev == StateRenegotiating {
		c.state = whenEstablished
	} else {
		c.state = next
	}
	return prev, nil
}

func (c *Connection) restore(s State) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}
