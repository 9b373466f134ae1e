package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/codebreakergame/codebreaker-go/internal/services/coordinator"
)

// Conn adapts one TCP connection to the coordinator's PlayerIO
// contract: prompts that wait for a reply line, fire-and-forget
// notifications, and a close signal.
//
// Notifications arrive from the event renderer goroutine while the
// coordinator goroutine prompts, so writes are serialized with a
// mutex. Reads happen only from the coordinator goroutine.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	logger *slog.Logger

	writeMu sync.Mutex
	enc     *json.Encoder

	nameMu     sync.Mutex
	playerName string
}

// Conn implements the coordinator's transport contract
var _ coordinator.PlayerIO = (*Conn)(nil)

// NewConn wraps an accepted TCP connection
func NewConn(raw net.Conn, logger *slog.Logger) *Conn {
	return &Conn{
		raw:    raw,
		reader: bufio.NewReader(raw),
		logger: logger.With(slog.String("remote", raw.RemoteAddr().String())),
	}
}

// SetPlayerName records who is behind this connection once they have
// signed up; the event renderer uses it to skip the player's own
// notices
func (c *Conn) SetPlayerName(name string) {
	c.nameMu.Lock()
	defer c.nameMu.Unlock()
	c.playerName = name
}

// PlayerName returns the signed-up player name, empty before sign-up
func (c *Conn) PlayerName() string {
	c.nameMu.Lock()
	defer c.nameMu.Unlock()
	return c.playerName
}

// Prompt sends the text and waits for one line in reply. A closed or
// failed connection surfaces as an error; the caller treats that as a
// disconnect.
func (c *Conn) Prompt(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.send(Message{Kind: KindPrompt, Text: text}); err != nil {
		return "", err
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptRequired re-prompts until the reply is non-empty
func (c *Conn) PromptRequired(ctx context.Context, text string) (string, error) {
	for {
		line, err := c.Prompt(ctx, text)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
		c.NotifyError("Please enter non-empty input.")
	}
}

// Notify pushes an informational message, dropping it if the
// connection has failed
func (c *Conn) Notify(text string) {
	if err := c.send(Message{Kind: KindInfo, Text: text}); err != nil {
		c.logger.Debug("notify failed", slog.String("error", err.Error()))
	}
}

// NotifyError pushes an error-prefixed message
func (c *Conn) NotifyError(text string) {
	if err := c.send(Message{Kind: KindError, Text: "ERROR: " + text}); err != nil {
		c.logger.Debug("notify failed", slog.String("error", err.Error()))
	}
}

// CloseAfter delivers a farewell and signals the client to close
func (c *Conn) CloseAfter(text string) {
	if err := c.send(Message{Kind: KindClose, Text: text}); err != nil {
		c.logger.Debug("close message failed", slog.String("error", err.Error()))
	}
}

// Close tears down the underlying connection, unblocking any pending
// read
func (c *Conn) Close() error {
	return c.raw.Close()
}

func (c *Conn) send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.enc == nil {
		c.enc = json.NewEncoder(c.raw)
	}
	if err := c.enc.Encode(msg); err != nil {
		return fmt.Errorf("send %s message: %w", msg.Kind, err)
	}
	return nil
}
