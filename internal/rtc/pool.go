package rtc

import (
	"context"
	"sync"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// ConnectionFactory builds one supervised connection for a remote peer.
// Production wires NewPeerConnection + NewConnection; tests inject fakes.
type ConnectionFactory func(peerID domain.UserID) (*Connection, error)

// Pool keeps at most one Connection per current remote participant of a
// call. It subscribes to the call's signaling events and routes remote
// descriptions and candidates to the right peer's connection.
type Pool struct {
	callID  domain.CallID
	handler *events.Handler
	subID   string
	newConn ConnectionFactory

	mu            sync.Mutex
	conns         map[domain.UserID]*Connection
	tracks        []webrtc.TrackLocal
	onRemoteTrack func(domain.UserID, *webrtc.TrackRemote)
}

func NewPool(callID domain.CallID, handler *events.Handler, factory ConnectionFactory) *Pool {
	p := &Pool{
		callID:  callID,
		handler: handler,
		subID:   uuid.NewString(),
		newConn: factory,
		conns:   make(map[domain.UserID]*Connection),
	}

	key := string(callID)
	handler.OnConcreteEvent(events.TagRTCDescription, key, p.subID, func(e events.Event) {
		p.handleDescription(e.(events.RTCDescription))
	})
	handler.OnConcreteEvent(events.TagRTCCandidate, key, p.subID, func(e events.Event) {
		p.handleCandidate(e.(events.RTCCandidate))
	})

	return p
}

// Create builds a connection for peerID, tearing down any previous one
// first; two live connections for the same peer never coexist.
func (p *Pool) Create(peerID domain.UserID) (*Connection, error) {
	p.Destroy(peerID)

	conn, err := p.newConn(peerID)
	if err != nil {
		return nil, err
	}
	conn.OnRemoteTrack(func(track *webrtc.TrackRemote) {
		p.mu.Lock()
		fn := p.onRemoteTrack
		p.mu.Unlock()
		if fn != nil {
			fn(peerID, track)
		}
	})

	p.mu.Lock()
	tracks := append([]webrtc.TrackLocal(nil), p.tracks...)
	p.conns[peerID] = conn
	p.mu.Unlock()

	// Late-joining peers get every local track existing peers already have.
	for _, t := range tracks {
		if err := conn.AddTrack(t); err != nil {
			log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(peerID)).Msg("could not add local track")
		}
	}

	log.Info().Str("module", "rtc.pool").Str("call", string(p.callID)).Str("peer", string(peerID)).Msg("connection added")
	return conn, nil
}

// Destroy tears down peerID's connection. Absent peer is a no-op.
func (p *Pool) Destroy(peerID domain.UserID) {
	p.mu.Lock()
	conn, ok := p.conns[peerID]
	delete(p.conns, peerID)
	p.mu.Unlock()
	if !ok {
		return
	}
	conn.Disconnect()
	log.Info().Str("module", "rtc.pool").Str("call", string(p.callID)).Str("peer", string(peerID)).Msg("connection removed")
}

// DestroyAll tears down every connection; used on hangup, call end and
// active-device hand-off.
func (p *Pool) DestroyAll() {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[domain.UserID]*Connection)
	p.mu.Unlock()
	for _, conn := range conns {
		conn.Disconnect()
	}
	log.Info().Str("module", "rtc.pool").Str("call", string(p.callID)).Msg("all connections removed")
}

// Close drops the pool's event subscriptions and every connection. Called
// when the owning call model is destroyed.
func (p *Pool) Close() {
	p.handler.Unregister(p.subID)
	p.DestroyAll()
}

func (p *Pool) Get(peerID domain.UserID) (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn, ok := p.conns[peerID]
	return conn, ok
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// AddTrack attaches a local track to every live connection and remembers it
// for connections created later.
func (p *Pool) AddTrack(track webrtc.TrackLocal) {
	p.mu.Lock()
	p.tracks = append(p.tracks, track)
	conns := p.snapshotLocked()
	p.mu.Unlock()
	for peer, conn := range conns {
		if err := conn.AddTrack(track); err != nil {
			log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(peer)).Msg("could not add track")
		}
	}
}

// RemoveTrack detaches a local track everywhere and forgets it.
func (p *Pool) RemoveTrack(track webrtc.TrackLocal) {
	p.mu.Lock()
	kept := p.tracks[:0]
	for _, t := range p.tracks {
		if t != track {
			kept = append(kept, t)
		}
	}
	p.tracks = kept
	conns := p.snapshotLocked()
	p.mu.Unlock()
	for peer, conn := range conns {
		if err := conn.RemoveTrack(track); err != nil {
			log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(peer)).Msg("could not remove track")
		}
	}
}

// ReplaceTrackByKind swaps the sending track of the same kind on every
// connection, e.g. on camera or microphone change.
func (p *Pool) ReplaceTrackByKind(track webrtc.TrackLocal) {
	p.mu.Lock()
	conns := p.snapshotLocked()
	p.mu.Unlock()
	for peer, conn := range conns {
		if err := conn.ReplaceTrackByKind(track); err != nil {
			log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(peer)).Msg("could not replace track")
		}
	}
}

// OnRemoteTrack installs the single (peer, track) callback; later
// registration replaces earlier.
func (p *Pool) OnRemoteTrack(fn func(domain.UserID, *webrtc.TrackRemote)) {
	p.mu.Lock()
	p.onRemoteTrack = fn
	p.mu.Unlock()
}

func (p *Pool) snapshotLocked() map[domain.UserID]*Connection {
	out := make(map[domain.UserID]*Connection, len(p.conns))
	for k, v := range p.conns {
		out[k] = v
	}
	return out
}

// handleDescription routes a remote offer or answer. An offer for an unknown
// peer creates the connection on demand, the joining side offers before the
// membership event settles locally.
func (p *Pool) handleDescription(e events.RTCDescription) {
	switch e.Description.Type {
	case webrtc.SDPTypeOffer:
		conn, ok := p.Get(e.PeerID)
		if !ok {
			created, err := p.Create(e.PeerID)
			if err != nil {
				log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(e.PeerID)).Msg("could not create connection for offer")
				return
			}
			conn = created
		}
		if _, err := conn.HandleOffer(context.Background(), e.Description); err != nil {
			log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(e.PeerID)).Msg("could not handle offer")
		}
	case webrtc.SDPTypeAnswer:
		conn, ok := p.Get(e.PeerID)
		if !ok {
			log.Error().Str("module", "rtc.pool").Str("peer", string(e.PeerID)).Msg("answer for unknown peer")
			return
		}
		if err := conn.AddAnswer(e.Description); err != nil {
			log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(e.PeerID)).Msg("could not apply answer")
		}
	default:
		log.Error().Str("module", "rtc.pool").Str("type", e.Description.Type.String()).Msg("unexpected description type")
	}
}

func (p *Pool) handleCandidate(e events.RTCCandidate) {
	conn, ok := p.Get(e.PeerID)
	if !ok {
		log.Debug().Str("module", "rtc.pool").Str("peer", string(e.PeerID)).Msg("candidate for unknown peer, dropping")
		return
	}
	if err := conn.AddCandidate(e.Candidate); err != nil {
		log.Error().Err(err).Str("module", "rtc.pool").Str("peer", string(e.PeerID)).Msg("could not add candidate")
	}
}
