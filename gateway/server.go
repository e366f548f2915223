package gateway

import (
	apperrors "chat-relay/errors"
	"chat-relay/services"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// userHeader carries the caller's participant name.
const userHeader = "User"

// Server exposes the chat service over HTTP.
type Server struct {
	app     *fiber.App
	log     *slog.Logger
	service services.IChatService
}

func NewServer(log *slog.Logger, service services.IChatService, gatherer prometheus.Gatherer) *Server {
	s := &Server{log: log, service: service}
	s.app = fiber.New(fiber.Config{
		AppName:               "chat-relay",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(helmet.New())
	s.app.Use(cors.New(cors.Config{AllowHeaders: "Origin, Content-Type, Accept, " + userHeader}))
	s.app.Use(s.logRequest)

	s.app.Post("/participants", s.join)
	s.app.Get("/participants", s.listParticipants)
	s.app.Post("/messages", s.sendMessage)
	s.app.Get("/messages", s.listMessages)
	s.app.Post("/status", s.heartbeat)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(address string) error {
	return s.app.Listen(address)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug("Request handled",
		"requestId", c.Locals("requestid"),
		"method", c.Method(),
		"path", c.Path(),
		"user", c.Get(userHeader),
		"latency", time.Since(start),
		"err", err,
	)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusCode(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error("Request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func statusCode(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, apperrors.ErrNameConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrSenderNotRegistered),
		errors.Is(err, apperrors.ErrInvalidLimit),
		errors.Is(err, apperrors.ErrInvalidRequest):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrTimeout):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}
