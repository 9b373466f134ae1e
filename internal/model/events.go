package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Session events
	EventPlayerSignedUp   EventType = "player_signed_up"
	EventDigitsConfigured EventType = "digits_configured"
	EventPlayerQuit       EventType = "player_quit"

	// Round events
	EventCodeCreated     EventType = "code_created"
	EventRoundStarted    EventType = "round_started"
	EventGuessAdded      EventType = "guess_added"
	EventPlayerWon       EventType = "player_won"
	EventPlayerLost      EventType = "player_lost"
	EventPlayerForfeited EventType = "player_forfeited"
	EventRoundEnded      EventType = "round_ended"
)

// Event is the base structure for all lifecycle events. Events are
// fanned out to every subscriber (one per connection plus the log
// sink) whenever session or round state changes.
type Event struct {
	Type       EventType
	Timestamp  time.Time
	PlayerName string // The player who triggered or is affected, if any
	Payload    any    // Type-specific data
}

// PlayerSignedUpPayload contains data for player signed up events
type PlayerSignedUpPayload struct {
	PlayerName  string
	RosterSize  int
	QuorumMet   bool
	FirstPlayer bool
}

// DigitsConfiguredPayload contains data for digits configured events
type DigitsConfiguredPayload struct {
	DigitCount int
	SetBy      string
}

// CodeCreatedPayload contains data for code created events.
//
// The secret code itself is present so the log sink can record it; the
// per-connection renderers never surface this event to clients.
type CodeCreatedPayload struct {
	SecretCode  string
	RoundNumber int
}

// RoundStartedPayload contains data for round started events
type RoundStartedPayload struct {
	RoundNumber int
	DigitCount  int
	Players     []string
}

// GuessAddedPayload contains data for guess added events
type GuessAddedPayload struct {
	PlayerName         string
	Guess              string
	GuessNumber        int
	Correct            bool
	CorrectPositions   int
	IncorrectPositions int
}

// PlayerWonPayload contains data for player won events
type PlayerWonPayload struct {
	PlayerName string
	NumGuesses int
}

// PlayerLostPayload contains data for player lost events
type PlayerLostPayload struct {
	PlayerName string
	SecretCode string
}

// PlayerForfeitedPayload contains data for player forfeited events
type PlayerForfeitedPayload struct {
	PlayerName string
}

// RoundEndedPayload contains data for round ended events
type RoundEndedPayload struct {
	RoundNumber int
	SecretCode  string
	Winners     []PlayerResult // Ranked by ascending guess count
	Losers      []string
	Forfeiters  []string
}

// PlayerResult pairs a player with their guess count for summaries
type PlayerResult struct {
	PlayerName string
	NumGuesses int
}

// PlayerQuitPayload contains data for player quit events
type PlayerQuitPayload struct {
	PlayerName string
	RosterSize int
}
