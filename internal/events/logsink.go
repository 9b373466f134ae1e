package events

import (
	"log/slog"

	"github.com/codebreakergame/codebreaker-go/internal/model"
)

// LogSink records every lifecycle event through the structured logger.
// It is the durable event record and keeps working regardless of which
// client connections are still open. It is the only subscriber that
// sees secret codes.
type LogSink struct {
	sub    *Subscription
	logger *slog.Logger
	done   chan struct{}
}

// NewLogSink subscribes to the bus and starts recording events
func NewLogSink(bus *Bus, logger *slog.Logger) *LogSink {
	s := &LogSink{
		sub:    bus.Subscribe("log-sink"),
		logger: logger.With(slog.String("component", "game-log")),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *LogSink) run() {
	defer close(s.done)
	for event := range s.sub.C {
		s.record(event)
	}
}

func (s *LogSink) record(event model.Event) {
	attrs := []any{
		slog.String("event_type", string(event.Type)),
		slog.Time("at", event.Timestamp),
	}
	if event.PlayerName != "" {
		attrs = append(attrs, slog.String("player", event.PlayerName))
	}

	switch p := event.Payload.(type) {
	case model.PlayerSignedUpPayload:
		attrs = append(attrs,
			slog.Int("roster_size", p.RosterSize),
			slog.Bool("quorum_met", p.QuorumMet))
	case model.DigitsConfiguredPayload:
		attrs = append(attrs, slog.Int("digit_count", p.DigitCount))
	case model.CodeCreatedPayload:
		attrs = append(attrs,
			slog.String("secret_code", p.SecretCode),
			slog.Int("round", p.RoundNumber))
	case model.RoundStartedPayload:
		attrs = append(attrs,
			slog.Int("round", p.RoundNumber),
			slog.Int("digit_count", p.DigitCount),
			slog.Int("player_count", len(p.Players)))
	case model.GuessAddedPayload:
		attrs = append(attrs,
			slog.String("guess", p.Guess),
			slog.Int("guess_number", p.GuessNumber),
			slog.Bool("correct", p.Correct))
	case model.PlayerWonPayload:
		attrs = append(attrs, slog.Int("num_guesses", p.NumGuesses))
	case model.PlayerLostPayload:
		attrs = append(attrs, slog.String("secret_code", p.SecretCode))
	case model.RoundEndedPayload:
		attrs = append(attrs,
			slog.Int("round", p.RoundNumber),
			slog.Int("winners", len(p.Winners)),
			slog.Int("losers", len(p.Losers)),
			slog.Int("forfeiters", len(p.Forfeiters)))
	case model.PlayerQuitPayload:
		attrs = append(attrs, slog.Int("roster_size", p.RosterSize))
	}

	s.logger.Info("game event", attrs...)
}

// Wait blocks until the sink has drained its subscription, which
// happens after the bus is closed
func (s *LogSink) Wait() {
	<-s.done
}
