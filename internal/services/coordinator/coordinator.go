package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/codebreakergame/codebreaker-go/internal/model"
	"github.com/codebreakergame/codebreaker-go/internal/services/game"
)

// PlayerIO is what the coordinator needs from the transport layer for
// one connection: a request channel that prompts and reads a line, a
// fire-and-forget notify channel, and a termination signal.
type PlayerIO interface {
	// Prompt sends the text and waits for one line in reply
	Prompt(ctx context.Context, text string) (string, error)

	// PromptRequired is Prompt, re-prompting until the reply is
	// non-empty
	PromptRequired(ctx context.Context, text string) (string, error)

	// Notify pushes an informational message
	Notify(text string)

	// NotifyError pushes an error-prefixed message
	NotifyError(text string)

	// CloseAfter tells the transport to deliver the farewell and then
	// close the connection
	CloseAfter(text string)

	// SetPlayerName tells the transport who signed up on this
	// connection, so broadcast notices can skip the player's own
	// actions
	SetPlayerName(name string)
}

// Config bounds the coordinator's rendezvous waits and sets its
// continue policy. Game rule constants (player counts, digit range,
// attempts) live in the model and are not configurable.
type Config struct {
	// QuorumTimeout bounds the wait for the minimum player count.
	// On expiry the round starts with however many players arrived.
	QuorumTimeout time.Duration

	// ConfigTimeout bounds the wait for the digit count to be
	// configured before the waiter claims the privilege itself
	ConfigTimeout time.Duration

	// ResolveTimeout bounds the wait for the round to fully resolve;
	// on expiry the round is force-ended
	ResolveTimeout time.Duration

	// VoteTimeout bounds the wait for other players' continue/quit
	// votes
	VoteTimeout time.Duration

	// RestartAfterForfeits controls whether a round in which every
	// player forfeited is followed by a fresh round (true) or ends
	// the session for the remaining players (false)
	RestartAfterForfeits bool
}

// DefaultConfig returns the standard coordinator configuration
func DefaultConfig() Config {
	return Config{
		QuorumTimeout:        20 * time.Second,
		ConfigTimeout:        20 * time.Second,
		ResolveTimeout:       5 * time.Minute,
		VoteTimeout:          2 * time.Minute,
		RestartAfterForfeits: true,
	}
}

// Coordinator drives one connection through the shared game: sign-up,
// configuration, the quorum rendezvous, the guess loop, the resolution
// rendezvous and the continue/quit vote. One Coordinator serves the
// whole server; Run is invoked once per connection goroutine.
type Coordinator struct {
	games  *game.Controller
	config Config
	logger *slog.Logger
}

// New creates a coordinator over the shared game controller
func New(games *game.Controller, config Config, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		games:  games,
		config: config,
		logger: logger.With(slog.String("component", "coordinator")),
	}
}

// Run plays the full session lifecycle for one connection. It returns
// nil on a clean quit; any I/O failure is routed through the same path
// as an explicit forfeit-and-quit so no other thread stays blocked on
// this player.
func (c *Coordinator) Run(ctx context.Context, io PlayerIO) error {
	name, err := io.PromptRequired(ctx, "Enter your name: ")
	if err != nil {
		return err
	}

	player, err := c.games.SignUpPlayer(name)
	if err != nil {
		if errors.Is(err, model.ErrSessionFull) {
			io.NotifyError(fmt.Sprintf("The game already has %d players.", model.MaxPlayers))
			io.CloseAfter("Try again later.")
			return nil
		}
		return err
	}
	io.SetPlayerName(player.Name)

	if err := c.configureDigits(ctx, io, player); err != nil {
		return c.disconnect(player, err)
	}

	for {
		quit, err := c.playRound(ctx, io, player)
		if err != nil {
			return c.disconnect(player, err)
		}
		if quit {
			return nil
		}
	}
}

// configureDigits resolves who sets the code length and, if it is this
// player, prompts until a valid value is accepted
func (c *Coordinator) configureDigits(ctx context.Context, io PlayerIO, player *model.Player) error {
	shouldConfigure, err := c.games.AwaitDigitConfiguration(ctx, player, c.config.ConfigTimeout)
	if err != nil {
		return err
	}
	if !shouldConfigure {
		return nil
	}

	for {
		line, err := io.PromptRequired(ctx, fmt.Sprintf("Enter number of digits (%d-%d): ", model.MinDigits, model.MaxDigits))
		if err != nil {
			return err
		}

		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil {
			io.NotifyError(fmt.Sprintf("%s is not a valid number.", strings.TrimSpace(line)))
			continue
		}

		if err := c.games.SetDigitCount(player, n); err != nil {
			if errors.Is(err, model.ErrInvalidDigitCount) {
				io.NotifyError(fmt.Sprintf("Number of digits must be %d - %d.", model.MinDigits, model.MaxDigits))
				continue
			}
			return err
		}
		return nil
	}
}

// playRound runs one full round for this player: quorum, guesses,
// resolution and the continue/quit vote. Returns true when the player
// is done with the session.
func (c *Coordinator) playRound(ctx context.Context, io PlayerIO, player *model.Player) (bool, error) {
	if c.games.RosterSize() < model.MinPlayers {
		io.Notify(fmt.Sprintf("Waiting for at least %d players to join...", model.MinPlayers))
	}
	quorumMet, err := c.games.AwaitQuorum(ctx, c.config.QuorumTimeout)
	if err != nil {
		return false, err
	}
	if !quorumMet {
		io.Notify("Not enough players arrived in time. Starting anyway with fewer players.")
	}

	round, err := c.games.EnsureRoundStarted(player)
	if err != nil {
		return false, err
	}

	io.Notify(fmt.Sprintf("Guess the %d-digit secret code. You have %d attempts. Enter 'f' to forfeit.",
		round.NumDigits(), model.MaxAttempts))

	if err := c.guessLoop(ctx, io, player); err != nil {
		return false, err
	}

	if err := c.games.AwaitRoundResolved(ctx, c.config.ResolveTimeout); err != nil {
		return false, err
	}

	if !c.config.RestartAfterForfeits && c.games.LastRoundAllForfeited() {
		io.CloseAfter("Everyone forfeited. The game is over.")
		c.games.Quit(player)
		return true, nil
	}

	shouldContinue, err := c.continueOrQuit(ctx, io)
	if err != nil {
		return false, err
	}
	if !shouldContinue {
		c.games.Quit(player)
		io.CloseAfter("Thanks for playing. Goodbye!")
		return true, nil
	}

	c.games.VoteContinue(player)
	io.Notify("Waiting for the other players to decide...")
	if err := c.games.AwaitVotes(ctx, player, c.config.VoteTimeout); err != nil {
		return false, err
	}
	return false, nil
}

// guessLoop prompts for guesses until this player is classified
func (c *Coordinator) guessLoop(ctx context.Context, io PlayerIO, player *model.Player) error {
	for {
		line, err := io.PromptRequired(ctx, "Enter your guess: ")
		if err != nil {
			return err
		}
		guess := strings.TrimSpace(line)

		if guess == "f" {
			if err := c.games.Forfeit(player); err != nil && !errors.Is(err, model.ErrNoCurrentRound) {
				return err
			}
			io.Notify("You have forfeited this round.")
			return nil
		}

		result, err := c.games.AddGuess(player, guess)
		if err != nil {
			if errors.Is(err, model.ErrRoundEnded) {
				io.NotifyError("The round has already ended.")
				return nil
			}
			return err
		}

		if result.Won {
			io.Notify(fmt.Sprintf("Correct! You cracked the code in %d guess(es).", result.GuessNumber))
			return nil
		}

		io.Notify(fmt.Sprintf("%d correct position(s), %d incorrect position(s).",
			result.CorrectPositions, result.IncorrectPositions))

		if result.Lost {
			io.Notify(fmt.Sprintf("You have used all %d attempts. The secret code was %s.",
				model.MaxAttempts, result.SecretCode))
			return nil
		}
	}
}

// continueOrQuit asks until the player answers 'p' or 'q'
func (c *Coordinator) continueOrQuit(ctx context.Context, io PlayerIO) (bool, error) {
	for {
		line, err := io.PromptRequired(ctx, "Press (p) to continue playing, or (q) to quit: ")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "p":
			return true, nil
		case "q":
			return false, nil
		default:
			io.NotifyError("Please enter 'p' or 'q'.")
		}
	}
}

// disconnect cleans up after an I/O failure and propagates the error
func (c *Coordinator) disconnect(player *model.Player, err error) error {
	c.logger.Info("connection lost, treating as forfeit and quit",
		slog.String("player", player.Name),
		slog.String("error", err.Error()),
	)
	c.games.Disconnect(player)
	return err
}
