package cli

import "os"

// Config holds client configuration, populated from flags and
// environment variables
type Config struct {
	// GameAddr is the host:port of the TCP game server
	GameAddr string

	// StatusURL is the base URL of the status HTTP API
	StatusURL string
}

// DefaultConfig returns configuration seeded from the environment
func DefaultConfig() *Config {
	cfg := &Config{
		GameAddr:  "localhost:15376",
		StatusURL: "http://localhost:8080",
	}
	if addr := os.Getenv("CBGAME_ADDR"); addr != "" {
		cfg.GameAddr = addr
	}
	if url := os.Getenv("CBGAME_STATUS_URL"); url != "" {
		cfg.StatusURL = url
	}
	return cfg
}
