package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fishtank/pkg/camera"
	"github.com/teslashibe/go-fishtank/pkg/hub"
	"github.com/teslashibe/go-fishtank/pkg/tilt"
)

var errNotReady = fiber.NewError(fiber.StatusServiceUnavailable, "pipeline not ready")

// handleError renders every error as {"error": "..."}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// handleStatus returns the latest tick snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}
	_, renders := s.Rendered()
	return c.JSON(fiber.Map{
		"snapshot": ctrl.Snapshot(),
		"renders":  renders,
		"viewers":  s.poseHub.Stats(),
	})
}

// handleGetCamera returns the active viewing geometry
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}
	cameras := ctrl.Cameras()
	return c.JSON(fiber.Map{
		"config":  cameras.GetConfigJSON(),
		"version": cameras.Version(),
	})
}

// handlePutCamera applies a partial update or preset
func (s *Server) handlePutCamera(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	cameras := ctrl.Cameras()
	if err := cameras.UpdateConfig(params); err != nil {
		if errors.Is(err, camera.ErrInvalidConfig) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	s.logger.Info("camera config updated", "version", cameras.Version())
	return c.JSON(fiber.Map{
		"config":  cameras.GetConfigJSON(),
		"version": cameras.Version(),
	})
}

// handleListPresets returns available camera presets
func (s *Server) handleListPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handleCameraState returns the last rendered camera
func (s *Server) handleCameraState(c *fiber.Ctx) error {
	state, renders := s.Rendered()
	if renders == 0 {
		return fiber.NewError(fiber.StatusNotFound, "nothing rendered yet")
	}
	return c.JSON(state)
}

// handleGetTilt returns the tilt controller status
func (s *Server) handleGetTilt(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}
	return c.JSON(ctrl.Snapshot().Tilt)
}

// handleTilt queues a tilt step for the next tick
func (s *Server) handleTilt(c *fiber.Ctx) error {
	ctrl := s.controller()
	if ctrl == nil {
		return errNotReady
	}

	cmd, ok := tilt.ParseCommand(c.Params("direction"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "direction must be up or down")
	}
	if !ctrl.Submit(cmd) {
		return fiber.NewError(fiber.StatusTooManyRequests, "tilt queue full")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"queued": cmd.String(),
		"tilt":   ctrl.Snapshot().Tilt,
	})
}

// handlePoseWS streams pose messages to one viewer
func (s *Server) handlePoseWS(c *websocket.Conn) {
	client := hub.NewClient(s.poseHub, c)
	if client == nil {
		return
	}
	client.Run()
}
