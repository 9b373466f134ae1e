package transport

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/codebreakergame/codebreaker-go/internal/testutil"
)

type ConnSuite struct {
	suite.Suite
	conn    *Conn
	client  net.Conn
	decoder *json.Decoder
}

func TestConnSuite(t *testing.T) {
	suite.Run(t, new(ConnSuite))
}

func (s *ConnSuite) SetupTest() {
	client, server := net.Pipe()
	s.client = client
	s.decoder = json.NewDecoder(client)
	s.conn = NewConn(server, testutil.NopLogger())
}

func (s *ConnSuite) TearDownTest() {
	_ = s.client.Close()
	_ = s.conn.Close()
}

// readMessage decodes one protocol frame from the client side of the
// pipe. net.Pipe is synchronous, so reads happen in a goroutine while
// the server side writes.
func (s *ConnSuite) readMessages(n int) chan Message {
	received := make(chan Message, n)
	go func() {
		for i := 0; i < n; i++ {
			var msg Message
			if err := s.decoder.Decode(&msg); err != nil {
				close(received)
				return
			}
			received <- msg
		}
	}()
	return received
}

func (s *ConnSuite) TestPromptSendsFrameAndReadsReply() {
	received := s.readMessages(1)
	go func() {
		<-received
		_, _ = s.client.Write([]byte("alice\r\n"))
	}()

	line, err := s.conn.Prompt(context.Background(), "Enter your name: ")

	s.Require().NoError(err)
	s.Equal("alice", line)
}

func (s *ConnSuite) TestPromptFrameShape() {
	received := s.readMessages(1)
	go func() {
		_, _ = s.client.Write([]byte("3\n"))
	}()

	_, err := s.conn.Prompt(context.Background(), "Enter number of digits (3-8): ")
	s.Require().NoError(err)

	msg := <-received
	s.Equal(KindPrompt, msg.Kind)
	s.Equal("Enter number of digits (3-8): ", msg.Text)
}

func (s *ConnSuite) TestPromptRequiredRepromptsOnEmptyReply() {
	received := s.readMessages(3)
	go func() {
		<-received // first prompt
		_, _ = s.client.Write([]byte("\n"))
		<-received // error notice
		<-received // second prompt
		_, _ = s.client.Write([]byte("bob\n"))
	}()

	line, err := s.conn.PromptRequired(context.Background(), "Enter your name: ")

	s.Require().NoError(err)
	s.Equal("bob", line)
}

func (s *ConnSuite) TestPromptHonorsCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.conn.Prompt(ctx, "Enter your guess: ")
	s.ErrorIs(err, context.Canceled)
}

func (s *ConnSuite) TestPromptFailsWhenPeerCloses() {
	received := s.readMessages(1)
	go func() {
		<-received
		_ = s.client.Close()
	}()

	_, err := s.conn.Prompt(context.Background(), "Enter your guess: ")
	s.Error(err)
}

func (s *ConnSuite) TestNotifyKinds() {
	received := s.readMessages(3)
	go func() {
		s.conn.Notify("round starting")
		s.conn.NotifyError("bad input")
		s.conn.CloseAfter("goodbye")
	}()

	info := <-received
	s.Equal(KindInfo, info.Kind)
	s.Equal("round starting", info.Text)

	errMsg := <-received
	s.Equal(KindError, errMsg.Kind)
	s.Equal("ERROR: bad input", errMsg.Text)

	farewell := <-received
	s.Equal(KindClose, farewell.Kind)
	s.Equal("goodbye", farewell.Text)
}

func (s *ConnSuite) TestPlayerNameDefaultsEmpty() {
	s.Empty(s.conn.PlayerName())

	s.conn.SetPlayerName("alice")
	s.Equal("alice", s.conn.PlayerName())
}
