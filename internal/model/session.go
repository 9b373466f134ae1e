package model

// Game rule constants. These are compiled in rather than configurable
// at runtime; only timeouts live in config structs.
const (
	MinPlayers = 3
	MaxPlayers = 6

	MinDigits = 3
	MaxDigits = 8

	MaxAttempts = 10
)

// Session is the single long-lived game instance shared by every
// connected player: the roster, the configured code length, and the
// round history.
//
// Session is plain data. All mutation goes through the game controller,
// which serializes access with one session-wide lock.
type Session struct {
	// DigitCount is the configured secret code length. Zero until a
	// player configures it; settable only while out of [MinDigits,
	// MaxDigits].
	DigitCount int

	// Players ordered by join time. The first entry holds the
	// digit-configuration privilege.
	Players []*Player

	// Rounds is append-only history; the current round is the last
	// entry, or nil before the first round starts.
	Rounds []*Round
}

// NewSession creates an empty session with no digit count configured
func NewSession() *Session {
	return &Session{}
}

// CurrentRound returns the most recently started round, or nil
func (s *Session) CurrentRound() *Round {
	if len(s.Rounds) == 0 {
		return nil
	}
	return s.Rounds[len(s.Rounds)-1]
}

// DigitCountValid reports whether the session's digit count has been
// configured to a value in range
func (s *Session) DigitCountValid() bool {
	return s.DigitCount >= MinDigits && s.DigitCount <= MaxDigits
}

// FirstPlayer returns the earliest-joined player still on the roster,
// or nil if the roster is empty
func (s *Session) FirstPlayer() *Player {
	if len(s.Players) == 0 {
		return nil
	}
	return s.Players[0]
}

// HasPlayer reports whether the player is on the live roster
func (s *Session) HasPlayer(player *Player) bool {
	return containsPlayer(s.Players, player)
}

// RemovePlayer drops the player from the live roster. Rounds already
// started keep the player in their snapshot.
func (s *Session) RemovePlayer(player *Player) {
	for i, p := range s.Players {
		if p == player {
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			return
		}
	}
}
