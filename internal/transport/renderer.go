package transport

import (
	"fmt"
	"strings"

	"github.com/codebreakergame/codebreaker-go/internal/events"
	"github.com/codebreakergame/codebreaker-go/internal/model"
)

// renderEvents forwards lifecycle events to one client until the
// subscription closes. A player's own wins, losses and forfeits are
// already reported inline by the coordinator, so self events are
// skipped. Secret codes never reach a client: code_created events are
// for the log sink only.
func renderEvents(sub *events.Subscription, conn *Conn) {
	for event := range sub.C {
		if text := renderEvent(event, conn.PlayerName()); text != "" {
			conn.Notify(text)
		}
	}
}

func renderEvent(event model.Event, self string) string {
	ownEvent := event.PlayerName != "" && event.PlayerName == self

	switch p := event.Payload.(type) {
	case model.PlayerSignedUpPayload:
		if ownEvent {
			return fmt.Sprintf("Welcome, %s! %d player(s) in the game.", p.PlayerName, p.RosterSize)
		}
		return fmt.Sprintf("%s joined the game (%d player(s)).", p.PlayerName, p.RosterSize)

	case model.RoundStartedPayload:
		return fmt.Sprintf("Round %d started with %s.", p.RoundNumber, joinNames(p.Players))

	case model.PlayerWonPayload:
		if ownEvent {
			return ""
		}
		return fmt.Sprintf("%s cracked the code in %d guess(es)!", p.PlayerName, p.NumGuesses)

	case model.PlayerLostPayload:
		if ownEvent {
			return ""
		}
		return fmt.Sprintf("%s is out of attempts.", p.PlayerName)

	case model.PlayerForfeitedPayload:
		if ownEvent {
			return ""
		}
		return fmt.Sprintf("%s forfeited the round.", p.PlayerName)

	case model.RoundEndedPayload:
		return renderRoundSummary(p)

	case model.PlayerQuitPayload:
		if ownEvent {
			return ""
		}
		return fmt.Sprintf("%s left the game (%d player(s) remaining).", p.PlayerName, p.RosterSize)

	default:
		// guess_added, code_created and digits_configured are not
		// broadcast to clients
		return ""
	}
}

// renderRoundSummary builds the round-ended summary pushed to every
// client: winners ranked by guess count, then losers and forfeiters
func renderRoundSummary(p model.RoundEndedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d over. The secret code was %s.", p.RoundNumber, p.SecretCode)

	if len(p.Winners) == 0 {
		b.WriteString(" Nobody cracked the code.")
	}
	for i, w := range p.Winners {
		fmt.Fprintf(&b, " #%d %s (%d guess(es)).", i+1, w.PlayerName, w.NumGuesses)
	}
	if len(p.Losers) > 0 {
		fmt.Fprintf(&b, " Out of attempts: %s.", joinNames(p.Losers))
	}
	if len(p.Forfeiters) > 0 {
		fmt.Fprintf(&b, " Forfeited: %s.", joinNames(p.Forfeiters))
	}
	return b.String()
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "nobody"
	}
	return strings.Join(names, ", ")
}
