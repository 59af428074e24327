// Package server is the lobby shared by every connected player: it tracks who
// is connected and playing, keeps the leaderboard and broadcasts shutdown.
// Each player's game runs in their own session; the lobby never touches it.
package server

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/loop/config"
)

// GameServer is the interface clients use to talk to the lobby. Decouples the
// front-ends from the concrete Server so they can be tested alone.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	SetPlaying(clientID int, playing bool)
	ReportResult(clientID int, res game.Result)
	GetSnapshot() *LobbySnapshot
}

// Server owns the lobby state. A single goroutine (Run) applies every change
// and publishes an immutable snapshot for readers.
type Server struct {
	snapshot     atomic.Pointer[LobbySnapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	membershipCh chan membership
	statusCh     chan clientStatus
	resultCh     chan clientResult
	mu           sync.RWMutex

	board  *Leaderboard
	logger *log.Logger
}

var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the lobby.
type ClientHandle struct {
	ID        int
	SessionID string // Random id, used to correlate logs across front-ends
	Username  string
	EventsCh  chan ClientEvent // Events sent to the client
	playing   bool
}

// ClientEvent represents an event sent from the lobby to a client.
type ClientEvent struct {
	Type ClientEventType
	Rank int // For EventNewTopScore
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
	EventNewTopScore
)

// membership is a join (handle set) or a leave (leaveID set). Joins and
// leaves share one channel so a leave is never applied before its join.
type membership struct {
	handle  *ClientHandle
	leaveID int
}

type clientStatus struct {
	clientID int
	playing  bool
}

type clientResult struct {
	clientID int
	result   game.Result
}

// NewServer creates a lobby. A nil logger discards output.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		membershipCh: make(chan membership, 32),
		statusCh:     make(chan clientStatus, 64),
		resultCh:     make(chan clientResult, 64),
		board:        NewLeaderboard(config.TopScoresShown),
		logger:       logger,
	}
	s.snapshot.Store(&LobbySnapshot{})
	return s
}

// Run processes lobby updates until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(config.ServerTickTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s.processRegistrations()
		s.collectUpdates()
		s.createSnapshot()
	}
}

// Shutdown notifies all connected clients and waits for them to disconnect,
// up to timeout. The caller should cancel the Run context afterwards.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	n := len(s.clients)
	s.mu.RUnlock()
	s.logger.Info("shutdown announced", "clients", n)

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			s.logger.Warn("shutdown timed out with clients connected")
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:        id,
		SessionID: uuid.NewString(),
		Username:  TruncateUsername(username),
		EventsCh:  make(chan ClientEvent, 16),
	}
	s.membershipCh <- membership{handle: handle}
	return handle
}

// UnregisterClient removes a client from the lobby. Its events channel is closed.
func (s *Server) UnregisterClient(clientID int) {
	s.membershipCh <- membership{leaveID: clientID}
}

// SetPlaying records whether a client has a run in progress.
func (s *Server) SetPlaying(clientID int, playing bool) {
	select {
	case s.statusCh <- clientStatus{clientID: clientID, playing: playing}:
	default:
	}
}

// ReportResult submits a finished run to the leaderboard.
func (s *Server) ReportResult(clientID int, res game.Result) {
	select {
	case s.resultCh <- clientResult{clientID: clientID, result: res}:
	default:
		s.logger.Warn("result dropped, lobby busy", "client", clientID)
	}
}

// GetSnapshot returns the current lobby snapshot.
func (s *Server) GetSnapshot() *LobbySnapshot {
	return s.snapshot.Load()
}

func (s *Server) processRegistrations() {
	for {
		select {
		case m := <-s.membershipCh:
			if m.handle != nil {
				s.join(m.handle)
			} else {
				s.leave(m.leaveID)
			}
		default:
			return
		}
	}
}

func (s *Server) join(handle *ClientHandle) {
	s.mu.Lock()
	s.clients[handle.ID] = handle
	s.mu.Unlock()
	s.logger.Info("client joined", "client", handle.ID, "user", handle.Username, "session", handle.SessionID)
}

func (s *Server) leave(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.clients[clientID]
	if !ok {
		return
	}
	close(handle.EventsCh)
	delete(s.clients, clientID)
	s.logger.Info("client left", "client", clientID, "user", handle.Username)
}

func (s *Server) collectUpdates() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case st := <-s.statusCh:
			if handle, ok := s.clients[st.clientID]; ok {
				handle.playing = st.playing
			}
		case cr := <-s.resultCh:
			handle, ok := s.clients[cr.clientID]
			if !ok {
				continue
			}
			handle.playing = false
			rank := s.board.Record(handle.ID, handle.Username, cr.result)
			s.logger.Info("run finished",
				"user", handle.Username,
				"reason", cr.result.Reason,
				"score", cr.result.Score,
				"difficulty", cr.result.Difficulty,
				"rank", rank)
			if rank > 0 {
				select {
				case handle.EventsCh <- ClientEvent{Type: EventNewTopScore, Rank: rank}:
				default:
				}
			}
		default:
			return
		}
	}
}

func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playing := 0
	for _, handle := range s.clients {
		if handle.playing {
			playing++
		}
	}
	s.snapshot.Store(&LobbySnapshot{
		Players:   len(s.clients),
		Playing:   playing,
		TopScores: s.board.Entries(),
	})
}

// TruncateUsername limits a username to the configured display length.
func TruncateUsername(name string) string {
	r := []rune(name)
	if len(r) > config.MaxUsernameLength {
		return string(r[:config.MaxUsernameLength])
	}
	return name
}
