package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebreakergame/codebreaker-go/internal/transport"
)

// newPlayCmd creates the interactive play command
func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Join a game and play interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cfg.GameAddr)
		},
	}
}

// play speaks the JSON-lines protocol: print info messages, answer
// prompts from stdin, stop when the server says close
func play(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s\n", addr)

	server := bufio.NewScanner(conn)
	stdin := bufio.NewReader(os.Stdin)

	for server.Scan() {
		var msg transport.Message
		if err := json.Unmarshal(server.Bytes(), &msg); err != nil {
			return fmt.Errorf("bad message from server: %w", err)
		}

		switch msg.Kind {
		case transport.KindPrompt:
			fmt.Print(msg.Text)
			line, err := stdin.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if _, err := fmt.Fprint(conn, strings.TrimRight(line, "\r\n")+"\n"); err != nil {
				return fmt.Errorf("send reply: %w", err)
			}
		case transport.KindClose:
			fmt.Println(msg.Text)
			return nil
		default:
			fmt.Println(msg.Text)
		}
	}

	if err := server.Err(); err != nil {
		return fmt.Errorf("connection lost: %w", err)
	}
	fmt.Println("Server closed the connection.")
	return nil
}
