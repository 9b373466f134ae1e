package transport

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/codebreakergame/codebreaker-go/internal/model"
)

type RendererSuite struct {
	suite.Suite
}

func TestRendererSuite(t *testing.T) {
	suite.Run(t, new(RendererSuite))
}

func event(eventType model.EventType, player string, payload any) model.Event {
	return model.Event{Type: eventType, PlayerName: player, Payload: payload}
}

func (s *RendererSuite) TestSignUpNotices() {
	signup := event(model.EventPlayerSignedUp, "alice", model.PlayerSignedUpPayload{
		PlayerName: "alice",
		RosterSize: 2,
	})

	s.Equal("Welcome, alice! 2 player(s) in the game.", renderEvent(signup, "alice"))
	s.Equal("alice joined the game (2 player(s)).", renderEvent(signup, "bob"))
}

func (s *RendererSuite) TestRoundStartedGoesToEveryone() {
	started := event(model.EventRoundStarted, "", model.RoundStartedPayload{
		RoundNumber: 2,
		DigitCount:  4,
		Players:     []string{"alice", "bob"},
	})

	s.Equal("Round 2 started with alice, bob.", renderEvent(started, "alice"))
	s.Equal("Round 2 started with alice, bob.", renderEvent(started, "bob"))
}

func (s *RendererSuite) TestOutcomeNoticesSkipSelf() {
	won := event(model.EventPlayerWon, "alice", model.PlayerWonPayload{PlayerName: "alice", NumGuesses: 3})
	lost := event(model.EventPlayerLost, "alice", model.PlayerLostPayload{PlayerName: "alice", SecretCode: "012"})
	forfeited := event(model.EventPlayerForfeited, "alice", model.PlayerForfeitedPayload{PlayerName: "alice"})
	quit := event(model.EventPlayerQuit, "alice", model.PlayerQuitPayload{PlayerName: "alice", RosterSize: 1})

	s.Empty(renderEvent(won, "alice"))
	s.Empty(renderEvent(lost, "alice"))
	s.Empty(renderEvent(forfeited, "alice"))
	s.Empty(renderEvent(quit, "alice"))

	s.Equal("alice cracked the code in 3 guess(es)!", renderEvent(won, "bob"))
	s.Equal("alice is out of attempts.", renderEvent(lost, "bob"))
	s.Equal("alice forfeited the round.", renderEvent(forfeited, "bob"))
	s.Equal("alice left the game (1 player(s) remaining).", renderEvent(quit, "bob"))
}

func (s *RendererSuite) TestLossNoticeNeverLeaksSecret() {
	lost := event(model.EventPlayerLost, "alice", model.PlayerLostPayload{PlayerName: "alice", SecretCode: "31415"})

	s.NotContains(renderEvent(lost, "bob"), "31415")
}

func (s *RendererSuite) TestInternalEventsAreNotRendered() {
	guess := event(model.EventGuessAdded, "alice", model.GuessAddedPayload{PlayerName: "alice", Guess: "012"})
	created := event(model.EventCodeCreated, "", model.CodeCreatedPayload{SecretCode: "012", RoundNumber: 1})
	configured := event(model.EventDigitsConfigured, "alice", model.DigitsConfiguredPayload{DigitCount: 3, SetBy: "alice"})

	s.Empty(renderEvent(guess, "bob"))
	s.Empty(renderEvent(created, "bob"))
	s.Empty(renderEvent(configured, "bob"))
}

func (s *RendererSuite) TestRoundSummaryRanksWinners() {
	summary := renderRoundSummary(model.RoundEndedPayload{
		RoundNumber: 1,
		SecretCode:  "012",
		Winners: []model.PlayerResult{
			{PlayerName: "bob", NumGuesses: 1},
			{PlayerName: "alice", NumGuesses: 4},
		},
		Losers:     []string{"carol"},
		Forfeiters: []string{"dave"},
	})

	s.Equal("Round 1 over. The secret code was 012."+
		" #1 bob (1 guess(es)). #2 alice (4 guess(es))."+
		" Out of attempts: carol. Forfeited: dave.", summary)
}

func (s *RendererSuite) TestRoundSummaryWithoutWinners() {
	summary := renderRoundSummary(model.RoundEndedPayload{
		RoundNumber: 3,
		SecretCode:  "987",
		Forfeiters:  []string{"alice", "bob"},
	})

	s.Equal("Round 3 over. The secret code was 987. Nobody cracked the code. Forfeited: alice, bob.", summary)
}
