package model

import (
	"sort"
	"strings"
)

// Round is one play of the game: a fixed secret code, the roster of
// players admitted when it began, and the outcome of each.
//
// The roster is a snapshot - players who sign up after the round starts
// are not re-evaluated into it. Rounds are mutated only under the
// session controller's lock and are immutable once ended, apart from
// bookkeeping reads.
type Round struct {
	SecretCode string

	// Players admitted to this round, in admission order
	Players []*Player

	// Outcome sets, disjoint. Winners are kept in submission order;
	// display ranking is by ascending guess count (RankedWinners).
	Winners    []*Player
	Losers     []*Player
	Forfeiters []*Player

	// Flat log of every guess submitted this round, in lock order
	Guesses []string

	Ended bool
}

// NewRound creates an open round for the given secret code
func NewRound(secretCode string) *Round {
	return &Round{SecretCode: secretCode}
}

// NumDigits returns the length of the secret code
func (r *Round) NumDigits() int {
	return len(r.SecretCode)
}

// AddPlayer admits a player to this round, clearing any guess history
// carried over from a previous round
func (r *Round) AddPlayer(player *Player) {
	player.ResetGuesses()
	r.Players = append(r.Players, player)
}

// HasPlayer reports whether the player was admitted to this round
func (r *Round) HasPlayer(player *Player) bool {
	for _, p := range r.Players {
		if p == player {
			return true
		}
	}
	return false
}

// IsWinner reports whether the player has won this round
func (r *Round) IsWinner(player *Player) bool {
	return containsPlayer(r.Winners, player)
}

// IsLoser reports whether the player has lost this round
func (r *Round) IsLoser(player *Player) bool {
	return containsPlayer(r.Losers, player)
}

// HasForfeited reports whether the player forfeited this round
func (r *Round) HasForfeited(player *Player) bool {
	return containsPlayer(r.Forfeiters, player)
}

// Classified reports whether the player has reached an outcome
func (r *Round) Classified(player *Player) bool {
	return r.IsWinner(player) || r.IsLoser(player) || r.HasForfeited(player)
}

// Matches reports whether the guess equals the secret code
func (r *Round) Matches(guess string) bool {
	return r.SecretCode == guess
}

// AddGuess records a guess for an admitted, unclassified player and
// classifies the player if the guess decides their outcome: a match
// makes them a winner, a miss on the final attempt makes them a loser.
// Guesses from already-classified players, forfeiters included, are
// ignored.
func (r *Round) AddGuess(player *Player, guess string) {
	if r.Classified(player) {
		return
	}

	if r.HasPlayer(player) && player.GuessCount() < MaxAttempts {
		player.AddGuess(guess)
		r.Guesses = append(r.Guesses, guess)
	}

	if r.Matches(guess) {
		r.addWinner(player)
		return
	}

	if player.GuessCount() >= MaxAttempts {
		r.addLoser(player)
	}
}

// Forfeit classifies the player as a forfeiter and pads their remaining
// attempts so the guess count reads as exhausted
func (r *Round) Forfeit(player *Player) {
	if !r.HasPlayer(player) || r.Classified(player) {
		return
	}
	for player.GuessCount() < MaxAttempts {
		player.AddGuess("")
	}
	r.Forfeiters = append(r.Forfeiters, player)
}

// End closes the round: every admitted player without an outcome
// becomes a loser. Calling End on an already-ended round is a caller
// error; the coordinator guards it under the session lock.
func (r *Round) End() {
	for _, p := range r.Players {
		if !r.Classified(p) {
			r.addLoser(p)
		}
	}
	r.Ended = true
}

// FullyResolved reports whether every admitted player has reached an
// outcome, which is the condition for ending the round
func (r *Round) FullyResolved() bool {
	for _, p := range r.Players {
		if !r.Classified(p) {
			return false
		}
	}
	return true
}

// CorrectPositions counts digits of the guess that match the secret
// code at the same index. Guess digits beyond the code length are
// ignored.
func (r *Round) CorrectPositions(guess string) int {
	correct := 0
	for i := 0; i < len(guess) && i < len(r.SecretCode); i++ {
		if guess[i] == r.SecretCode[i] {
			correct++
		}
	}
	return correct
}

// IncorrectPositions counts digits of the guess that occur in the
// secret code but not at the guessed index
func (r *Round) IncorrectPositions(guess string) int {
	misplaced := 0
	for i := 0; i < len(guess) && i < len(r.SecretCode); i++ {
		if guess[i] == r.SecretCode[i] {
			continue
		}
		if strings.IndexByte(r.SecretCode, guess[i]) >= 0 {
			misplaced++
		}
	}
	return misplaced
}

// RankedWinners returns the winners ordered by ascending guess count,
// ties broken by submission order
func (r *Round) RankedWinners() []*Player {
	ranked := make([]*Player, len(r.Winners))
	copy(ranked, r.Winners)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].GuessCount() < ranked[j].GuessCount()
	})
	return ranked
}

func (r *Round) addWinner(player *Player) {
	if r.HasPlayer(player) && !r.Classified(player) {
		r.Winners = append(r.Winners, player)
	}
}

func (r *Round) addLoser(player *Player) {
	if r.HasPlayer(player) && !r.Classified(player) {
		r.Losers = append(r.Losers, player)
	}
}

func containsPlayer(players []*Player, player *Player) bool {
	for _, p := range players {
		if p == player {
			return true
		}
	}
	return false
}
