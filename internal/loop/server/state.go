package server

import (
	"slices"

	"github.com/tomz197/droplets/internal/game"
)

// TopScoreEntry represents a single entry on the leaderboard.
type TopScoreEntry struct {
	Username   string          `json:"username"`
	Score      int             `json:"score"`
	Difficulty game.Difficulty `json:"difficulty"`
	Reason     game.EndReason  `json:"reason"`
	clientID   int             // Deterministic tie-break: the earlier client ranks higher
}

// LobbySnapshot is an immutable view of the lobby for rendering.
type LobbySnapshot struct {
	Players   int             `json:"players"`   // Connected clients
	Playing   int             `json:"playing"`   // Clients with a run in progress
	TopScores []TopScoreEntry `json:"topScores"` // Best run per client, highest first
}

// Leaderboard keeps each client's best finished run.
type Leaderboard struct {
	entries []TopScoreEntry
	size    int
}

// NewLeaderboard creates a leaderboard that keeps the best size entries.
func NewLeaderboard(size int) *Leaderboard {
	return &Leaderboard{size: size}
}

// Record submits a finished run. Only a client's best run is kept, and
// losses never rank (the displayed score of a loss is zero). Returns the
// 1-based rank of the entry, or 0 if it did not make the board.
func (l *Leaderboard) Record(clientID int, username string, res game.Result) int {
	if res.Reason == game.EndLoss || res.Score <= 0 {
		return 0
	}

	if i := slices.IndexFunc(l.entries, func(e TopScoreEntry) bool { return e.clientID == clientID }); i >= 0 {
		if l.entries[i].Score >= res.Score {
			return 0
		}
		l.entries = slices.Delete(l.entries, i, i+1)
	}

	entry := TopScoreEntry{
		Username:   username,
		Score:      res.Score,
		Difficulty: res.Difficulty,
		Reason:     res.Reason,
		clientID:   clientID,
	}
	pos, _ := slices.BinarySearchFunc(l.entries, entry, compareEntries)
	if pos >= l.size {
		return 0
	}
	l.entries = slices.Insert(l.entries, pos, entry)
	if len(l.entries) > l.size {
		l.entries = l.entries[:l.size]
	}
	return pos + 1
}

// Entries returns a copy of the ranked entries.
func (l *Leaderboard) Entries() []TopScoreEntry {
	return slices.Clone(l.entries)
}

func compareEntries(a, b TopScoreEntry) int {
	if a.Score != b.Score {
		return b.Score - a.Score
	}
	return a.clientID - b.clientID
}
