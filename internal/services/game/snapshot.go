package game

import "github.com/codebreakergame/codebreaker-go/internal/model"

// SessionSnapshot is a point-in-time read of the session for the
// status API, taken under the session lock
type SessionSnapshot struct {
	DigitCount   int              `json:"digit_count"`
	Players      []PlayerSnapshot `json:"players"`
	RoundsPlayed int              `json:"rounds_played"`
	CurrentRound *RoundSnapshot   `json:"current_round,omitempty"`
}

// PlayerSnapshot is one roster entry in a session snapshot
type PlayerSnapshot struct {
	Name       string             `json:"name"`
	Status     model.PlayerStatus `json:"status"`
	GuessCount int                `json:"guess_count"`
	LastGuess  string             `json:"last_guess,omitempty"`
}

// RoundSnapshot describes the most recent round in a session snapshot.
// It never includes the secret code.
type RoundSnapshot struct {
	Number     int      `json:"number"`
	DigitCount int      `json:"digit_count"`
	Ended      bool     `json:"ended"`
	GuessTotal int      `json:"guess_total"`
	Winners    []string `json:"winners"`
	Losers     []string `json:"losers"`
	Forfeiters []string `json:"forfeiters"`
}

// Snapshot captures the session state for display. Reads happen under
// the same lock as mutation since the roster and outcome lists are
// ordinary slices.
func (c *Controller) Snapshot() SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := SessionSnapshot{
		DigitCount:   c.session.DigitCount,
		RoundsPlayed: len(c.session.Rounds),
		Players:      make([]PlayerSnapshot, 0, len(c.session.Players)),
	}
	for _, p := range c.session.Players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			Name:       p.Name,
			Status:     p.Status,
			GuessCount: p.GuessCount(),
			LastGuess:  p.LastGuess,
		})
	}

	if round := c.session.CurrentRound(); round != nil {
		rs := RoundSnapshot{
			Number:     len(c.session.Rounds),
			DigitCount: round.NumDigits(),
			Ended:      round.Ended,
			GuessTotal: len(round.Guesses),
			Losers:     playerNames(round.Losers),
			Forfeiters: playerNames(round.Forfeiters),
		}
		rs.Winners = playerNames(round.RankedWinners())
		snap.CurrentRound = &rs
	}

	return snap
}
