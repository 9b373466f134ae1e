package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codebreakergame/codebreaker-go/internal/dependencies/clock"
	"github.com/codebreakergame/codebreaker-go/internal/events"
	"github.com/codebreakergame/codebreaker-go/internal/model"
	"github.com/codebreakergame/codebreaker-go/internal/services/code"
)

// Controller owns the session and serializes every mutation of it and
// of the current round behind one lock.
//
// The rendezvous points the connection handlers block on are exposed as
// Await* methods. Each rendezvous has its own named gate (a channel
// closed-and-replaced on broadcast) rather than a shared condition, so
// a wakeup always means "your predicate may have changed". Broadcasts
// happen under the same lock as the mutation that satisfies the
// predicate: exactly one thread observes itself as the quorum-satisfier
// or round-resolver.
type Controller struct {
	codeGen *code.Generator
	bus     *events.Bus
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	session *model.Session

	// votedAfter records, per roster player, how many rounds had been
	// played when they last voted to continue. Vote state must survive
	// the status reset at the next round start, so it cannot live in
	// Player.Status alone.
	votedAfter map[*model.Player]int

	// Rendezvous gates, all guarded by mu
	digitsConfigured chan struct{}
	quorum           chan struct{}
	roundResolved    chan struct{}
	votesComplete    chan struct{}
}

// GuessResult describes the outcome of a single guess
type GuessResult struct {
	Guess              string
	GuessNumber        int
	Correct            bool
	CorrectPositions   int
	IncorrectPositions int
	Won                bool
	Lost               bool

	// SecretCode is revealed to the guesser only once they have lost
	SecretCode string
}

// NewController creates a controller around a fresh session
func NewController(codeGen *code.Generator, bus *events.Bus, clk clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		codeGen:          codeGen,
		bus:              bus,
		clock:            clk,
		logger:           logger.With(slog.String("component", "game")),
		session:          model.NewSession(),
		votedAfter:       make(map[*model.Player]int),
		digitsConfigured: make(chan struct{}),
		quorum:           make(chan struct{}),
		roundResolved:    make(chan struct{}),
		votesComplete:    make(chan struct{}),
	}
}

// SignUpPlayer registers a new player on the roster. Fails with
// ErrSessionFull once the roster holds the maximum number of players.
// Duplicate names are allowed.
func (c *Controller) SignUpPlayer(name string) (*model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.session.Players) >= model.MaxPlayers {
		return nil, model.ErrSessionFull
	}

	player := model.NewPlayer(name, c.clock.Now())
	c.session.Players = append(c.session.Players, player)

	quorumMet := len(c.session.Players) >= model.MinPlayers
	if quorumMet {
		broadcast(&c.quorum)
	}

	c.emit(model.EventPlayerSignedUp, name, model.PlayerSignedUpPayload{
		PlayerName:  name,
		RosterSize:  len(c.session.Players),
		QuorumMet:   quorumMet,
		FirstPlayer: c.session.FirstPlayer() == player,
	})
	c.logger.Info("player signed up",
		slog.String("player", name),
		slog.Int("roster_size", len(c.session.Players)),
		slog.Bool("quorum_met", quorumMet),
	)

	return player, nil
}

// DigitCount returns the configured secret code length, zero if unset
func (c *Controller) DigitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.DigitCount
}

// SetDigitCount configures the secret code length. The value sticks
// only while the session's current value is out of range; later calls
// are ignored so the first valid value wins. n itself must be in
// [MinDigits, MaxDigits].
func (c *Controller) SetDigitCount(player *model.Player, n int) error {
	if n < model.MinDigits || n > model.MaxDigits {
		return model.ErrInvalidDigitCount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.DigitCountValid() {
		return nil
	}

	c.session.DigitCount = n
	broadcast(&c.digitsConfigured)

	c.emit(model.EventDigitsConfigured, player.Name, model.DigitsConfiguredPayload{
		DigitCount: n,
		SetBy:      player.Name,
	})
	c.logger.Info("digit count configured",
		slog.String("player", player.Name),
		slog.Int("digit_count", n),
	)

	return nil
}

// AwaitDigitConfiguration blocks until either the digit count is
// configured or the caller becomes the player who should configure it.
// Returns true if the caller should prompt for and set the digit count.
//
// The configuration privilege belongs to the first-registered player;
// if that player leaves before configuring, it falls to whoever is
// first on the roster when the gate next opens.
func (c *Controller) AwaitDigitConfiguration(ctx context.Context, player *model.Player, timeout time.Duration) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		if c.session.DigitCountValid() {
			c.mu.Unlock()
			return false, nil
		}
		if c.session.FirstPlayer() == player {
			c.mu.Unlock()
			return true, nil
		}
		gate := c.digitsConfigured
		c.mu.Unlock()

		select {
		case <-gate:
		case <-deadline.C:
			// Degrade to configuring ourselves rather than stalling
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// AwaitQuorum blocks until the roster reaches the minimum player
// count, bounded by the timeout. Returns whether quorum was reached; a
// timed-out wait is not an error, the game degrades to fewer active
// participants.
func (c *Controller) AwaitQuorum(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		if len(c.session.Players) >= model.MinPlayers {
			c.mu.Unlock()
			return true, nil
		}
		gate := c.quorum
		c.mu.Unlock()

		select {
		case <-gate:
		case <-deadline.C:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// StartNextRound begins a fresh round: new secret code, every live
// roster member admitted with cleared guesses. Fails with
// ErrRoundInProgress while the current round is open and with
// ErrNoPlayers on an empty roster.
func (c *Controller) StartNextRound() (*model.Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startNextRoundLocked()
}

// EnsureRoundStarted is the per-connection entry into a round: the
// first thread through starts the next round, later threads are
// admitted into the open one if they are not already in it.
func (c *Controller) EnsureRoundStarted(player *model.Player) (*model.Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	round := c.session.CurrentRound()
	if round == nil || round.Ended {
		return c.startNextRoundLocked()
	}

	if !round.HasPlayer(player) {
		player.Status = model.StatusStarted
		round.AddPlayer(player)
		c.logger.Info("player joined open round",
			slog.String("player", player.Name),
			slog.Int("round", len(c.session.Rounds)),
		)
	}
	return round, nil
}

func (c *Controller) startNextRoundLocked() (*model.Round, error) {
	if current := c.session.CurrentRound(); current != nil && !current.Ended {
		return nil, model.ErrRoundInProgress
	}
	if len(c.session.Players) == 0 {
		return nil, model.ErrNoPlayers
	}
	if !c.session.DigitCountValid() {
		return nil, model.ErrInvalidDigitCount
	}

	secret, err := c.codeGen.Generate(c.session.DigitCount)
	if err != nil {
		return nil, err
	}

	round := model.NewRound(secret)
	names := make([]string, 0, len(c.session.Players))
	for _, p := range c.session.Players {
		p.Status = model.StatusStarted
		round.AddPlayer(p)
		names = append(names, p.Name)
	}
	c.session.Rounds = append(c.session.Rounds, round)
	roundNumber := len(c.session.Rounds)

	// Starting the round concludes the previous vote rendezvous for
	// any waiter still parked on it
	broadcast(&c.votesComplete)

	c.emit(model.EventCodeCreated, "", model.CodeCreatedPayload{
		SecretCode:  secret,
		RoundNumber: roundNumber,
	})
	c.emit(model.EventRoundStarted, "", model.RoundStartedPayload{
		RoundNumber: roundNumber,
		DigitCount:  c.session.DigitCount,
		Players:     names,
	})
	c.logger.Info("round started",
		slog.Int("round", roundNumber),
		slog.Int("digit_count", c.session.DigitCount),
		slog.Int("player_count", len(names)),
	)

	return round, nil
}

// AddGuess records a guess against the current round and classifies
// the player if the guess decides their outcome. If the guess resolves
// the round, the round is ended and waiters are woken.
func (c *Controller) AddGuess(player *model.Player, guess string) (GuessResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	round := c.session.CurrentRound()
	if round == nil {
		return GuessResult{}, model.ErrNoCurrentRound
	}
	if round.Ended {
		return GuessResult{}, model.ErrRoundEnded
	}

	if !round.Classified(player) {
		player.Status = model.StatusPlaying
	}
	round.AddGuess(player, guess)

	result := GuessResult{
		Guess:              guess,
		GuessNumber:        player.GuessCount(),
		Correct:            round.Matches(guess),
		CorrectPositions:   round.CorrectPositions(guess),
		IncorrectPositions: round.IncorrectPositions(guess),
		Won:                round.IsWinner(player),
		Lost:               round.IsLoser(player),
	}

	c.emit(model.EventGuessAdded, player.Name, model.GuessAddedPayload{
		PlayerName:         player.Name,
		Guess:              guess,
		GuessNumber:        result.GuessNumber,
		Correct:            result.Correct,
		CorrectPositions:   result.CorrectPositions,
		IncorrectPositions: result.IncorrectPositions,
	})

	if result.Won {
		player.Status = model.StatusWon
		c.emit(model.EventPlayerWon, player.Name, model.PlayerWonPayload{
			PlayerName: player.Name,
			NumGuesses: player.GuessCount(),
		})
		c.logger.Info("player won round",
			slog.String("player", player.Name),
			slog.Int("num_guesses", player.GuessCount()),
		)
	} else if result.Lost {
		result.SecretCode = round.SecretCode
		player.Status = model.StatusLost
		c.emit(model.EventPlayerLost, player.Name, model.PlayerLostPayload{
			PlayerName: player.Name,
			SecretCode: round.SecretCode,
		})
		c.logger.Info("player lost round", slog.String("player", player.Name))
	}

	c.endRoundIfResolvedLocked(round)

	return result, nil
}

// Forfeit withdraws the player from the current round, padding their
// attempts so the guess count reads as exhausted
func (c *Controller) Forfeit(player *model.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forfeitLocked(player)
}

func (c *Controller) forfeitLocked(player *model.Player) error {
	round := c.session.CurrentRound()
	if round == nil {
		return model.ErrNoCurrentRound
	}
	if round.Ended || round.Classified(player) {
		return nil
	}

	round.Forfeit(player)
	player.Status = model.StatusForfeited

	c.emit(model.EventPlayerForfeited, player.Name, model.PlayerForfeitedPayload{
		PlayerName: player.Name,
	})
	c.logger.Info("player forfeited", slog.String("player", player.Name))

	c.endRoundIfResolvedLocked(round)
	return nil
}

// EndCurrentRound forces the current round to end, classifying every
// unresolved player as a loser
func (c *Controller) EndCurrentRound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	round := c.session.CurrentRound()
	if round == nil {
		return model.ErrNoCurrentRound
	}
	if round.Ended {
		return model.ErrRoundEnded
	}

	c.endRoundLocked(round)
	return nil
}

// AwaitRoundResolved blocks until the current round has ended. If the
// round does not resolve within the timeout it is force-ended so no
// thread waits forever on a stalled player.
func (c *Controller) AwaitRoundResolved(ctx context.Context, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		round := c.session.CurrentRound()
		if round == nil {
			c.mu.Unlock()
			return model.ErrNoCurrentRound
		}
		if round.Ended {
			c.mu.Unlock()
			return nil
		}
		gate := c.roundResolved
		c.mu.Unlock()

		select {
		case <-gate:
		case <-deadline.C:
			c.mu.Lock()
			if !round.Ended {
				c.logger.Warn("round resolution timed out, force-ending")
				c.endRoundLocked(round)
			}
			c.mu.Unlock()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// VoteContinue marks the player as choosing to play another round
func (c *Controller) VoteContinue(player *model.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player.Status = model.StatusChosenToContinue
	c.votedAfter[player] = len(c.session.Rounds)
	broadcast(&c.votesComplete)
	c.logger.Info("player voted to continue", slog.String("player", player.Name))
}

// Quit records the player's vote to leave and removes them from the
// roster. Their entries in already-played rounds are untouched.
func (c *Controller) Quit(player *model.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quitLocked(player)
}

func (c *Controller) quitLocked(player *model.Player) {
	if !c.session.HasPlayer(player) {
		return
	}

	player.Status = model.StatusQuit
	c.session.RemovePlayer(player)
	delete(c.votedAfter, player)

	c.emit(model.EventPlayerQuit, player.Name, model.PlayerQuitPayload{
		PlayerName: player.Name,
		RosterSize: len(c.session.Players),
	})
	c.logger.Info("player quit",
		slog.String("player", player.Name),
		slog.Int("roster_size", len(c.session.Players)),
	)

	// Wake anyone whose predicate may have depended on this player
	broadcast(&c.votesComplete)
	broadcast(&c.digitsConfigured)
}

// Disconnect routes a dropped connection through the same path as an
// explicit forfeit-then-quit so no other thread stays blocked waiting
// for this player's classification or vote.
func (c *Controller) Disconnect(player *model.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.HasPlayer(player) {
		return
	}

	c.logger.Info("player disconnected", slog.String("player", player.Name))

	round := c.session.CurrentRound()
	if round != nil && !round.Ended && round.HasPlayer(player) && !round.Classified(player) {
		_ = c.forfeitLocked(player)
	}
	c.quitLocked(player)
}

// AwaitVotes blocks until the continue-or-quit vote the player just
// cast has concluded, bounded by the timeout. The rendezvous is scoped
// to the round being voted on, not to player statuses: the next round
// starting resets every status to started, so a waiter that arrives
// late must not stall on the erased votes.
func (c *Controller) AwaitVotes(ctx context.Context, player *model.Player, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		if c.voteRendezvousDoneLocked(player) {
			c.mu.Unlock()
			return nil
		}
		gate := c.votesComplete
		c.mu.Unlock()

		select {
		case <-gate:
		case <-deadline.C:
			c.logger.Warn("vote rendezvous timed out, proceeding",
				slog.String("player", player.Name))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// voteRendezvousDoneLocked reports whether the vote the player last
// cast has concluded: the next round has already started, or every
// other roster player has voted at least as recently. Quit players are
// off the roster and never hold the rendezvous open.
func (c *Controller) voteRendezvousDoneLocked(player *model.Player) bool {
	votedAfter := c.votedAfter[player]
	if len(c.session.Rounds) > votedAfter {
		return true
	}
	for _, p := range c.session.Players {
		if p == player {
			continue
		}
		if c.votedAfter[p] < votedAfter && !p.Status.Voted() {
			return false
		}
	}
	return true
}

// LastRoundAllForfeited reports whether the most recent round ended
// with every admitted player forfeiting
func (c *Controller) LastRoundAllForfeited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	round := c.session.CurrentRound()
	if round == nil || !round.Ended || len(round.Players) == 0 {
		return false
	}
	return len(round.Forfeiters) == len(round.Players)
}

// RosterSize returns the current number of signed-up players
func (c *Controller) RosterSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.session.Players)
}

// endRoundIfResolvedLocked ends the round when every admitted player
// has been classified. The thread whose mutation resolves the round is
// the one that ends it, under the same lock, so the broadcast happens
// exactly once.
func (c *Controller) endRoundIfResolvedLocked(round *model.Round) {
	if !round.Ended && round.FullyResolved() {
		c.endRoundLocked(round)
	}
}

func (c *Controller) endRoundLocked(round *model.Round) {
	round.End()

	// Players End() classified as losers still carry an in-round status
	for _, p := range round.Players {
		if round.IsLoser(p) && p.Status != model.StatusLost {
			p.Status = model.StatusLost
			c.emit(model.EventPlayerLost, p.Name, model.PlayerLostPayload{
				PlayerName: p.Name,
				SecretCode: round.SecretCode,
			})
		}
	}

	payload := model.RoundEndedPayload{
		RoundNumber: len(c.session.Rounds),
		SecretCode:  round.SecretCode,
		Losers:      playerNames(round.Losers),
		Forfeiters:  playerNames(round.Forfeiters),
	}
	for _, w := range round.RankedWinners() {
		payload.Winners = append(payload.Winners, model.PlayerResult{
			PlayerName: w.Name,
			NumGuesses: w.GuessCount(),
		})
	}
	c.emit(model.EventRoundEnded, "", payload)
	c.logger.Info("round ended",
		slog.Int("round", payload.RoundNumber),
		slog.Int("winners", len(payload.Winners)),
		slog.Int("losers", len(payload.Losers)),
		slog.Int("forfeiters", len(payload.Forfeiters)),
	)

	broadcast(&c.roundResolved)
}

func (c *Controller) emit(eventType model.EventType, playerName string, payload any) {
	c.bus.Publish(model.Event{
		Type:       eventType,
		Timestamp:  c.clock.Now(),
		PlayerName: playerName,
		Payload:    payload,
	})
}

func playerNames(players []*model.Player) []string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return names
}

// broadcast wakes every waiter on the gate and rearms it. Must be
// called with the controller lock held.
func broadcast(gate *chan struct{}) {
	close(*gate)
	*gate = make(chan struct{})
}
