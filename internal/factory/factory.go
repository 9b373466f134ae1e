package factory

import (
	"io"
	"log/slog"

	"github.com/codebreakergame/codebreaker-go/internal/dependencies/clock"
	"github.com/codebreakergame/codebreaker-go/internal/dependencies/random"
	"github.com/codebreakergame/codebreaker-go/internal/events"
	"github.com/codebreakergame/codebreaker-go/internal/services/code"
	"github.com/codebreakergame/codebreaker-go/internal/services/coordinator"
	"github.com/codebreakergame/codebreaker-go/internal/services/game"
)

// App contains all wired application components. The session and its
// controller are constructed here and passed by handle; there is no
// ambient global game state.
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Events
	Bus     *events.Bus
	LogSink *events.LogSink

	// Services
	CodeGenerator  *code.Generator
	GameController *game.Controller
	Coordinator    *coordinator.Coordinator
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	// Coordinator holds rendezvous timeouts and the continue policy
	// If zero value, defaults to coordinator.DefaultConfig()
	Coordinator coordinator.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	coordCfg := cfg.Coordinator
	if coordCfg == (coordinator.Config{}) {
		coordCfg = coordinator.DefaultConfig()
	}

	clk := clock.New()
	rnd := random.New()

	bus := events.NewBus(logger)
	sink := events.NewLogSink(bus, logger)

	codeGen := code.NewGenerator(rnd)
	games := game.NewController(codeGen, bus, clk, logger)
	coord := coordinator.New(games, coordCfg, logger)

	return &App{
		Clock:          clk,
		Random:         rnd,
		Bus:            bus,
		LogSink:        sink,
		CodeGenerator:  codeGen,
		GameController: games,
		Coordinator:    coord,
	}
}

// Close shuts down the event bus and waits for the log sink to drain
func (a *App) Close() {
	a.Bus.Close()
	a.LogSink.Wait()
}
