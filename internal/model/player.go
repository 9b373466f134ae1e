package model

import "time"

// PlayerStatus tracks where a player is in the round lifecycle
type PlayerStatus string

const (
	StatusNotStarted       PlayerStatus = "not_started"        // Signed up, no round joined yet
	StatusStarted          PlayerStatus = "started"            // Admitted to a round, no guess yet
	StatusPlaying          PlayerStatus = "playing"            // Actively guessing
	StatusWon              PlayerStatus = "won"                // Matched the secret code
	StatusLost             PlayerStatus = "lost"               // Exhausted all attempts
	StatusForfeited        PlayerStatus = "forfeited"          // Gave up before classification
	StatusChosenToContinue PlayerStatus = "chosen_to_continue" // Voted to play another round
	StatusQuit             PlayerStatus = "quit"               // Voted to leave the session
)

// Voted reports whether the status is a terminal continue-or-quit vote
func (s PlayerStatus) Voted() bool {
	return s == StatusChosenToContinue || s == StatusQuit
}

// Player represents one participant in the session.
//
// A player's guess history belongs to the current round only and is
// cleared each time the player is admitted to a new round. All mutation
// happens under the session controller's lock.
type Player struct {
	Name      string
	Status    PlayerStatus
	Guesses   []string
	LastGuess string
	JoinedAt  time.Time
}

// NewPlayer creates a player in the not_started state
func NewPlayer(name string, joinedAt time.Time) *Player {
	return &Player{
		Name:     name,
		Status:   StatusNotStarted,
		JoinedAt: joinedAt,
	}
}

// AddGuess appends a guess to the player's history for the current round
func (p *Player) AddGuess(guess string) {
	p.Guesses = append(p.Guesses, guess)
	p.LastGuess = guess
}

// GuessCount returns the number of guesses made in the current round
func (p *Player) GuessCount() int {
	return len(p.Guesses)
}

// ResetGuesses clears the guess history ahead of a new round
func (p *Player) ResetGuesses() {
	p.Guesses = nil
	p.LastGuess = ""
}
