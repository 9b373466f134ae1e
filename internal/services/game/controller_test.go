package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/codebreakergame/codebreaker-go/internal/dependencies/mocks"
	"github.com/codebreakergame/codebreaker-go/internal/events"
	"github.com/codebreakergame/codebreaker-go/internal/model"
	"github.com/codebreakergame/codebreaker-go/internal/services/code"
	"github.com/codebreakergame/codebreaker-go/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	random     *mocks.MockRandom
	clock      *mocks.MockClock
	bus        *events.Bus
	sub        *events.Subscription
	controller *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.bus = events.NewBus(testutil.NopLogger())
	s.sub = s.bus.Subscribe("test")
	s.controller = NewController(
		code.NewGenerator(s.random),
		s.bus,
		s.clock,
		testutil.NopLogger(),
	)
}

func (s *ControllerSuite) TearDownTest() {
	s.bus.Close()
}

// signUp registers n players named p1..pn
func (s *ControllerSuite) signUp(n int) []*model.Player {
	players := make([]*model.Player, 0, n)
	for i := 1; i <= n; i++ {
		p, err := s.controller.SignUpPlayer(fmt.Sprintf("p%d", i))
		s.Require().NoError(err)
		players = append(players, p)
	}
	return players
}

// startRound signs up three players and starts a round. The mock random
// queue is empty, so the generated secret code is "012".
func (s *ControllerSuite) startRound() []*model.Player {
	players := s.signUp(3)
	s.Require().NoError(s.controller.SetDigitCount(players[0], 3))
	_, err := s.controller.StartNextRound()
	s.Require().NoError(err)
	return players
}

func (s *ControllerSuite) drainEvents() []model.Event {
	var received []model.Event
	for {
		select {
		case event := <-s.sub.C:
			received = append(received, event)
		default:
			return received
		}
	}
}

func (s *ControllerSuite) eventsOfType(eventType model.EventType) []model.Event {
	var matched []model.Event
	for _, event := range s.drainEvents() {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func (s *ControllerSuite) TestSignUpEnforcesCapacity() {
	s.signUp(model.MaxPlayers)

	_, err := s.controller.SignUpPlayer("overflow")

	s.ErrorIs(err, model.ErrSessionFull)
	s.Equal(model.MaxPlayers, s.controller.RosterSize())
}

func (s *ControllerSuite) TestSignUpAllowsDuplicateNames() {
	_, err := s.controller.SignUpPlayer("alice")
	s.Require().NoError(err)
	_, err = s.controller.SignUpPlayer("alice")
	s.Require().NoError(err)
	s.Equal(2, s.controller.RosterSize())
}

func (s *ControllerSuite) TestSignUpEventsTrackQuorum() {
	s.signUp(3)

	signups := s.eventsOfType(model.EventPlayerSignedUp)
	s.Require().Len(signups, 3)

	first := signups[0].Payload.(model.PlayerSignedUpPayload)
	s.True(first.FirstPlayer)
	s.False(first.QuorumMet)

	third := signups[2].Payload.(model.PlayerSignedUpPayload)
	s.False(third.FirstPlayer)
	s.True(third.QuorumMet)
	s.Equal(3, third.RosterSize)
}

func (s *ControllerSuite) TestSetDigitCountRejectsOutOfRange() {
	players := s.signUp(1)

	for _, n := range []int{0, model.MinDigits - 1, model.MaxDigits + 1} {
		err := s.controller.SetDigitCount(players[0], n)
		s.ErrorIs(err, model.ErrInvalidDigitCount)
	}
	s.Equal(0, s.controller.DigitCount())
}

func (s *ControllerSuite) TestSetDigitCountFirstValidValueSticks() {
	players := s.signUp(2)

	s.Require().NoError(s.controller.SetDigitCount(players[0], 4))
	s.Require().NoError(s.controller.SetDigitCount(players[1], 7))

	s.Equal(4, s.controller.DigitCount())

	configured := s.eventsOfType(model.EventDigitsConfigured)
	s.Require().Len(configured, 1)
	payload := configured[0].Payload.(model.DigitsConfiguredPayload)
	s.Equal(4, payload.DigitCount)
	s.Equal("p1", payload.SetBy)
}

func (s *ControllerSuite) TestAwaitDigitConfigurationFirstPlayerConfigures() {
	players := s.signUp(2)

	shouldConfigure, err := s.controller.AwaitDigitConfiguration(context.Background(), players[0], time.Second)

	s.Require().NoError(err)
	s.True(shouldConfigure)
}

func (s *ControllerSuite) TestAwaitDigitConfigurationWakesOnConfigure() {
	players := s.signUp(2)

	type waitResult struct {
		shouldConfigure bool
		err             error
	}
	done := make(chan waitResult, 1)
	go func() {
		shouldConfigure, err := s.controller.AwaitDigitConfiguration(context.Background(), players[1], 5*time.Second)
		done <- waitResult{shouldConfigure, err}
	}()

	// Give the waiter time to block, then configure
	time.Sleep(20 * time.Millisecond)
	s.Require().NoError(s.controller.SetDigitCount(players[0], 3))

	select {
	case result := <-done:
		s.NoError(result.err)
		s.False(result.shouldConfigure)
	case <-time.After(time.Second):
		s.Fail("waiter never woke after configuration")
	}
}

func (s *ControllerSuite) TestAwaitDigitConfigurationFallsBackOnTimeout() {
	players := s.signUp(2)

	shouldConfigure, err := s.controller.AwaitDigitConfiguration(context.Background(), players[1], 10*time.Millisecond)

	s.Require().NoError(err)
	s.True(shouldConfigure)
}

func (s *ControllerSuite) TestAwaitDigitConfigurationPrivilegeFallsToNewFirst() {
	players := s.signUp(2)

	s.controller.Quit(players[0])

	shouldConfigure, err := s.controller.AwaitDigitConfiguration(context.Background(), players[1], time.Second)
	s.Require().NoError(err)
	s.True(shouldConfigure)
}

func (s *ControllerSuite) TestAwaitQuorumAlreadyMet() {
	s.signUp(3)

	met, err := s.controller.AwaitQuorum(context.Background(), 10*time.Millisecond)

	s.Require().NoError(err)
	s.True(met)
}

func (s *ControllerSuite) TestAwaitQuorumTimesOutWithoutError() {
	s.signUp(2)

	met, err := s.controller.AwaitQuorum(context.Background(), 10*time.Millisecond)

	s.Require().NoError(err)
	s.False(met)
}

func (s *ControllerSuite) TestAwaitQuorumWakesOnThirdSignup() {
	s.signUp(2)

	type waitResult struct {
		met bool
		err error
	}
	done := make(chan waitResult, 1)
	go func() {
		met, err := s.controller.AwaitQuorum(context.Background(), 5*time.Second)
		done <- waitResult{met, err}
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := s.controller.SignUpPlayer("p3")
	s.Require().NoError(err)

	select {
	case result := <-done:
		s.NoError(result.err)
		s.True(result.met)
	case <-time.After(time.Second):
		s.Fail("waiter never woke after quorum")
	}
}

func (s *ControllerSuite) TestStartNextRoundRequiresPlayers() {
	_, err := s.controller.StartNextRound()
	s.ErrorIs(err, model.ErrNoPlayers)
}

func (s *ControllerSuite) TestStartNextRoundRequiresDigitConfiguration() {
	s.signUp(3)

	_, err := s.controller.StartNextRound()
	s.ErrorIs(err, model.ErrInvalidDigitCount)
}

func (s *ControllerSuite) TestStartNextRoundAdmitsRosterWithFreshCode() {
	players := s.signUp(3)
	s.Require().NoError(s.controller.SetDigitCount(players[0], 3))

	round, err := s.controller.StartNextRound()

	s.Require().NoError(err)
	s.Equal("012", round.SecretCode)
	s.Len(round.Players, 3)
	for _, p := range players {
		s.True(round.HasPlayer(p))
		s.Equal(model.StatusStarted, p.Status)
	}

	created := s.eventsOfType(model.EventCodeCreated)
	s.Require().Len(created, 1)
	s.Equal("012", created[0].Payload.(model.CodeCreatedPayload).SecretCode)
}

func (s *ControllerSuite) TestStartNextRoundFailsWhileRoundOpen() {
	s.startRound()

	_, err := s.controller.StartNextRound()
	s.ErrorIs(err, model.ErrRoundInProgress)
}

func (s *ControllerSuite) TestEnsureRoundStartedIsSharedEntry() {
	players := s.signUp(3)
	s.Require().NoError(s.controller.SetDigitCount(players[0], 3))

	first, err := s.controller.EnsureRoundStarted(players[0])
	s.Require().NoError(err)
	second, err := s.controller.EnsureRoundStarted(players[1])
	s.Require().NoError(err)

	s.Same(first, second)
}

func (s *ControllerSuite) TestEnsureRoundStartedAdmitsLateSignup() {
	players := s.startRound()
	late, err := s.controller.SignUpPlayer("late")
	s.Require().NoError(err)

	round, err := s.controller.EnsureRoundStarted(late)

	s.Require().NoError(err)
	s.True(round.HasPlayer(late))
	s.Len(round.Players, 4)
	s.True(round.HasPlayer(players[0]))
}

func (s *ControllerSuite) TestAddGuessWithoutRound() {
	players := s.signUp(1)

	_, err := s.controller.AddGuess(players[0], "012")
	s.ErrorIs(err, model.ErrNoCurrentRound)
}

func (s *ControllerSuite) TestAddGuessScoresFeedback() {
	players := s.startRound()

	// Secret is "012"; "021" has one exact and two misplaced digits
	result, err := s.controller.AddGuess(players[0], "021")

	s.Require().NoError(err)
	s.Equal(1, result.GuessNumber)
	s.False(result.Correct)
	s.Equal(1, result.CorrectPositions)
	s.Equal(2, result.IncorrectPositions)
	s.False(result.Won)
	s.False(result.Lost)
	s.Empty(result.SecretCode)
	s.Equal(model.StatusPlaying, players[0].Status)
}

func (s *ControllerSuite) TestAddGuessWin() {
	players := s.startRound()

	result, err := s.controller.AddGuess(players[0], "012")

	s.Require().NoError(err)
	s.True(result.Won)
	s.True(result.Correct)
	s.Equal(model.StatusWon, players[0].Status)

	won := s.eventsOfType(model.EventPlayerWon)
	s.Require().Len(won, 1)
	s.Equal(1, won[0].Payload.(model.PlayerWonPayload).NumGuesses)
}

func (s *ControllerSuite) TestAddGuessLossRevealsSecret() {
	players := s.startRound()

	var result GuessResult
	var err error
	for i := 0; i < model.MaxAttempts; i++ {
		result, err = s.controller.AddGuess(players[0], "987")
		s.Require().NoError(err)
	}

	s.True(result.Lost)
	s.Equal("012", result.SecretCode)
	s.Equal(model.StatusLost, players[0].Status)
}

func (s *ControllerSuite) TestRoundEndsWhenEveryoneClassified() {
	players := s.startRound()

	_, err := s.controller.AddGuess(players[0], "012")
	s.Require().NoError(err)
	s.Require().NoError(s.controller.Forfeit(players[1]))
	s.Require().NoError(s.controller.Forfeit(players[2]))

	ended := s.eventsOfType(model.EventRoundEnded)
	s.Require().Len(ended, 1)
	payload := ended[0].Payload.(model.RoundEndedPayload)
	s.Equal("012", payload.SecretCode)
	s.Require().Len(payload.Winners, 1)
	s.Equal("p1", payload.Winners[0].PlayerName)
	s.ElementsMatch([]string{"p2", "p3"}, payload.Forfeiters)
	s.Empty(payload.Losers)

	_, err = s.controller.AddGuess(players[0], "012")
	s.ErrorIs(err, model.ErrRoundEnded)
}

func (s *ControllerSuite) TestForfeitPadsAttempts() {
	players := s.startRound()

	s.Require().NoError(s.controller.Forfeit(players[0]))

	s.Equal(model.StatusForfeited, players[0].Status)
	s.Equal(model.MaxAttempts, players[0].GuessCount())

	// A second forfeit is a no-op
	s.Require().NoError(s.controller.Forfeit(players[0]))
	s.Len(s.eventsOfType(model.EventPlayerForfeited), 1)
}

func (s *ControllerSuite) TestGuessAfterForfeitLeavesClassificationAlone() {
	players := s.startRound()
	s.Require().NoError(s.controller.Forfeit(players[0]))

	result, err := s.controller.AddGuess(players[0], "012")

	s.Require().NoError(err)
	s.False(result.Won)
	s.Equal(model.StatusForfeited, players[0].Status)

	round := s.controller.Snapshot().CurrentRound
	s.Empty(round.Winners)
	s.ElementsMatch([]string{"p1"}, round.Forfeiters)
}

func (s *ControllerSuite) TestLastRoundAllForfeited() {
	players := s.startRound()

	s.False(s.controller.LastRoundAllForfeited())
	for _, p := range players {
		s.Require().NoError(s.controller.Forfeit(p))
	}

	s.True(s.controller.LastRoundAllForfeited())
}

func (s *ControllerSuite) TestEndCurrentRoundClassifiesStragglers() {
	players := s.startRound()
	_, err := s.controller.AddGuess(players[0], "012")
	s.Require().NoError(err)

	s.Require().NoError(s.controller.EndCurrentRound())

	s.Equal(model.StatusLost, players[1].Status)
	s.Equal(model.StatusLost, players[2].Status)
	s.Len(s.eventsOfType(model.EventPlayerLost), 2)

	s.ErrorIs(s.controller.EndCurrentRound(), model.ErrRoundEnded)
}

func (s *ControllerSuite) TestAwaitRoundResolvedWakesOnResolution() {
	players := s.startRound()

	done := make(chan error, 1)
	go func() {
		done <- s.controller.AwaitRoundResolved(context.Background(), 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	for _, p := range players {
		s.Require().NoError(s.controller.Forfeit(p))
	}

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("waiter never woke after resolution")
	}
}

func (s *ControllerSuite) TestAwaitRoundResolvedForceEndsOnTimeout() {
	s.startRound()

	err := s.controller.AwaitRoundResolved(context.Background(), 10*time.Millisecond)

	s.Require().NoError(err)
	s.True(s.controller.Snapshot().CurrentRound.Ended)
}

func (s *ControllerSuite) TestAwaitRoundResolvedHonorsContext() {
	s.startRound()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.controller.AwaitRoundResolved(ctx, time.Second)
	s.ErrorIs(err, context.Canceled)
}

func (s *ControllerSuite) TestAwaitVotesWakesWhenOthersVote() {
	players := s.startRound()
	s.controller.VoteContinue(players[0])

	done := make(chan error, 1)
	go func() {
		done <- s.controller.AwaitVotes(context.Background(), players[0], 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	s.controller.VoteContinue(players[1])
	s.controller.VoteContinue(players[2])

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("waiter never woke after votes")
	}
}

func (s *ControllerSuite) TestAwaitVotesConcludedByNextRoundStart() {
	players := s.startRound()
	for _, p := range players {
		s.Require().NoError(s.controller.Forfeit(p))
	}
	for _, p := range players {
		s.controller.VoteContinue(p)
	}

	// The fastest voter reaches the next round first, resetting every
	// status to started before the slowest voter re-checks its wait
	_, err := s.controller.EnsureRoundStarted(players[2])
	s.Require().NoError(err)

	start := time.Now()
	s.Require().NoError(s.controller.AwaitVotes(context.Background(), players[0], 2*time.Second))
	s.Less(time.Since(start), time.Second, "vote rendezvous stalled after the next round started")
}

func (s *ControllerSuite) TestAwaitVotesWokenByNextRoundStart() {
	players := s.startRound()
	for _, p := range players {
		s.Require().NoError(s.controller.Forfeit(p))
	}
	s.controller.VoteContinue(players[0])

	done := make(chan error, 1)
	go func() {
		done <- s.controller.AwaitVotes(context.Background(), players[0], 5*time.Second)
	}()

	// The other players never vote; the next round starting anyway
	// (the timeout-degraded path) must still release the waiter
	time.Sleep(20 * time.Millisecond)
	_, err := s.controller.StartNextRound()
	s.Require().NoError(err)

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("waiter never woke after the next round started")
	}
}

func (s *ControllerSuite) TestQuitRemovesFromRosterAndCountsAsVote() {
	players := s.startRound()

	s.controller.VoteContinue(players[0])
	s.controller.VoteContinue(players[1])
	s.controller.Quit(players[2])

	s.Equal(2, s.controller.RosterSize())
	s.Equal(model.StatusQuit, players[2].Status)
	s.Require().NoError(s.controller.AwaitVotes(context.Background(), players[0], 10*time.Millisecond))

	quit := s.eventsOfType(model.EventPlayerQuit)
	s.Require().Len(quit, 1)
	s.Equal(2, quit[0].Payload.(model.PlayerQuitPayload).RosterSize)
}

func (s *ControllerSuite) TestDisconnectForfeitsAndQuits() {
	players := s.startRound()
	_, err := s.controller.AddGuess(players[0], "012")
	s.Require().NoError(err)
	s.Require().NoError(s.controller.Forfeit(players[1]))

	// p3's disconnect is the last unresolved outcome: the round ends
	s.controller.Disconnect(players[2])

	s.Equal(2, s.controller.RosterSize())
	s.Equal(model.StatusQuit, players[2].Status)
	s.Len(s.eventsOfType(model.EventRoundEnded), 1)
}

func (s *ControllerSuite) TestDisconnectAfterClassificationOnlyQuits() {
	players := s.startRound()
	_, err := s.controller.AddGuess(players[0], "012")
	s.Require().NoError(err)

	s.controller.Disconnect(players[0])

	round := s.controller.Snapshot().CurrentRound
	s.ElementsMatch([]string{"p1"}, round.Winners)
	s.NotContains(round.Forfeiters, "p1")
	s.Equal(2, s.controller.RosterSize())
}

func (s *ControllerSuite) TestNextRoundStartsAfterPreviousEnds() {
	players := s.startRound()
	for _, p := range players {
		s.Require().NoError(s.controller.Forfeit(p))
	}

	round, err := s.controller.StartNextRound()

	s.Require().NoError(err)
	s.Require().NotNil(round)
	s.False(round.Ended)
	s.Len(round.Players, 3)
	for _, p := range players {
		s.Equal(0, p.GuessCount())
		s.Equal(model.StatusStarted, p.Status)
	}
	s.Equal(2, s.controller.Snapshot().RoundsPlayed)
}

func (s *ControllerSuite) TestSnapshotOmitsSecretCode() {
	players := s.startRound()
	_, err := s.controller.AddGuess(players[0], "987")
	s.Require().NoError(err)

	snap := s.controller.Snapshot()

	s.Equal(3, snap.DigitCount)
	s.Len(snap.Players, 3)
	s.Equal(1, snap.Players[0].GuessCount)
	s.Equal("987", snap.Players[0].LastGuess)
	s.Require().NotNil(snap.CurrentRound)
	s.Equal(1, snap.CurrentRound.Number)
	s.Equal(3, snap.CurrentRound.DigitCount)
	s.Equal(1, snap.CurrentRound.GuessTotal)
	s.False(snap.CurrentRound.Ended)
}
