// Package web serves the narrator dashboard: a small REST API to trigger
// narrations and inspect state, and a websocket feed of live events.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-narrator/pkg/assistant"
	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/exchange"
	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/hub"
	"github.com/teslashibe/go-narrator/pkg/journal"
)

// Controller is the part of the assistant the dashboard drives.
type Controller interface {
	Trigger(source string) exchange.Trigger
	Status() assistant.Status
	Entities() history.Snapshot
}

// Journal is the optional review log behind /api/journal.
type Journal interface {
	RecentHazards(ctx context.Context, limit int) ([]journal.HazardRecord, error)
	RecentNarrations(ctx context.Context, limit int) ([]journal.NarrationRecord, error)
}

// Config configures the dashboard server.
type Config struct {
	Port        string
	StaticDir   string // served at / when it exists
	RecentLimit int    // events kept per kind for polling
	Logger      *slog.Logger
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Port:        "8080",
		StaticDir:   "./web",
		RecentLimit: 50,
		Logger:      slog.Default(),
	}
}

// Server is the dashboard server. It is also an events.Publisher: every
// event it receives is kept for polling and pushed to websocket clients.
type Server struct {
	app     *fiber.App
	config  Config
	logger  *slog.Logger
	control Controller
	journal Journal

	events *hub.Hub
	recent *events.Recent
}

// NewServer creates a dashboard for control. Zero config fields take
// their defaults.
func NewServer(control Controller, config Config) *Server {
	def := DefaultConfig()
	if config.Port == "" {
		config.Port = def.Port
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = def.RecentLimit
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}

	s := &Server{
		config:  config,
		logger:  config.Logger.With("component", "web"),
		control: control,
		events:  hub.New("events", config.Logger),
		recent:  events.NewRecent(config.RecentLimit),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Narrator Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	if config.StaticDir != "" {
		if info, err := os.Stat(config.StaticDir); err == nil && info.IsDir() {
			app.Static("/", config.StaticDir)
		}
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/narrate", s.handleNarrate)
	api.Get("/hazards", s.handleHazards)
	api.Get("/narrations", s.handleNarrations)
	api.Get("/entities", s.handleEntities)
	api.Get("/journal/hazards", s.handleJournalHazards)
	api.Get("/journal/narrations", s.handleJournalNarrations)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// SetJournal enables the /api/journal endpoints.
func (s *Server) SetJournal(j Journal) {
	s.journal = j
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.events.ClientCount()
}

// Publish implements events.Publisher.
func (s *Server) Publish(ctx context.Context, e events.Event) error {
	if err := s.recent.Publish(ctx, e); err != nil {
		return err
	}
	return s.events.BroadcastJSON(string(e.Kind), e)
}

// Start listens on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return err
	}
	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.config.Port)
	return s.Serve(ctx, ln)
}

// Serve runs the hub and serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.events.Run(ctx)

	stop := context.AfterFunc(ctx, func() {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Warn("dashboard shutdown", "error", err)
		}
	})
	defer stop()

	err := s.app.Listener(ln)
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

var _ events.Publisher = (*Server)(nil)
