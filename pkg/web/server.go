// Package web serves the fishtank status API and the live pose stream.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fishtank/pkg/camera"
	"github.com/teslashibe/go-fishtank/pkg/hub"
	"github.com/teslashibe/go-fishtank/pkg/pipeline"
	"github.com/teslashibe/go-fishtank/pkg/protocol"
	"github.com/teslashibe/go-fishtank/pkg/tilt"
)

// Controller is the pipeline surface the server drives.
type Controller interface {
	Snapshot() pipeline.Snapshot
	Submit(cmd tilt.Command) bool
	Cameras() *camera.Manager
}

// Server is the HTTP/WebSocket front end. It is also the pipeline's
// Renderer and Observer: it keeps the latest camera and streams poses.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	ctrlMu sync.RWMutex
	ctrl   Controller

	renderMu sync.RWMutex
	rendered camera.State
	renders  uint64

	poseHub *hub.Hub

	// PoseEvery broadcasts one pose per N ticks. 0 or 1 sends every tick.
	PoseEvery uint64
}

// NewServer creates a new server listening on port once started.
func NewServer(port string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:    port,
		logger:  logger.With("component", "web"),
		poseHub: hub.New("pose", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Fishtank",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handlePutCamera)
	api.Get("/camera/presets", s.handleListPresets)
	api.Get("/camera/state", s.handleCameraState)
	api.Get("/tilt", s.handleGetTilt)
	api.Post("/tilt/:direction", s.handleTilt)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/pose", websocket.New(s.handlePoseWS))

	s.app = app
	return s
}

// SetController attaches the pipeline. Until then the API answers 503.
func (s *Server) SetController(ctrl Controller) {
	s.ctrlMu.Lock()
	s.ctrl = ctrl
	s.ctrlMu.Unlock()
}

func (s *Server) controller() Controller {
	s.ctrlMu.RLock()
	defer s.ctrlMu.RUnlock()
	return s.ctrl
}

// App exposes the fiber app for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the pose hub and serves on the configured port until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.poseHub.Run(ctx)
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Warn("shutdown error", "error", err)
		}
	}()

	s.logger.Info("web server listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Render stores the latest camera. Implements pipeline.Renderer.
func (s *Server) Render(state camera.State) {
	s.renderMu.Lock()
	s.rendered = state
	s.renders++
	s.renderMu.Unlock()
}

// Rendered returns the latest camera and how many have been rendered.
func (s *Server) Rendered() (camera.State, uint64) {
	s.renderMu.RLock()
	defer s.renderMu.RUnlock()
	return s.rendered, s.renders
}

// Observe streams the tick's pose to viewers. Implements pipeline.Observer.
func (s *Server) Observe(snap pipeline.Snapshot) {
	if s.PoseEvery > 1 && snap.Tick%s.PoseEvery != 0 {
		return
	}
	if s.poseHub.ClientCount() == 0 {
		return
	}
	msg, err := protocol.NewPoseMessage(snap.Pose())
	if err != nil {
		s.logger.Warn("pose encode failed", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	s.poseHub.Broadcast(data)
}

// PoseHub returns the pose broadcast hub.
func (s *Server) PoseHub() *hub.Hub {
	return s.poseHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
