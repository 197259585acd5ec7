// Package server exposes persisted runs and their workbooks over HTTP.
package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/j-veylop/doublers-tui/internal/db"
	"github.com/j-veylop/doublers-tui/internal/export"
	"github.com/j-veylop/doublers-tui/internal/logger"
	"github.com/j-veylop/doublers-tui/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// RunStore reads persisted runs.
type RunStore interface {
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
	LatestResult(ctx context.Context) (*models.RunResult, error)
	RunResult(ctx context.Context, id string) (*models.RunResult, error)
}

// Server serves the runs API.
type Server struct {
	app   *fiber.App
	store RunStore
}

// New builds the fiber app and registers its routes.
func New(store RunStore) *Server {
	s := &Server{store: store}

	s.app = fiber.New(fiber.Config{
		AppName:               "doublers",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger)

	s.app.Get("/healthz", s.health)
	api := s.app.Group("/api")
	api.Get("/runs", s.listRuns)
	api.Get("/runs/latest", s.latestRun)
	api.Get("/runs/:id", s.getRun)
	s.app.Get("/download/:id", s.download)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logger.Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		msg = fe.Message
	case errors.Is(err, db.ErrNotFound):
		code = fiber.StatusNotFound
	}

	if code >= fiber.StatusInternalServerError {
		logger.Error("http handler failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
	}
	limit = min(limit, maxLimit)

	runs, err := s.store.RecentRuns(c.UserContext(), limit)
	if err != nil {
		return err
	}

	out := make([]runResponse, 0, len(runs))
	for i := range runs {
		out = append(out, newRunResponse(&runs[i]))
	}
	return c.JSON(fiber.Map{"runs": out})
}

func (s *Server) latestRun(c *fiber.Ctx) error {
	res, err := s.store.LatestResult(c.UserContext())
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "no completed run")
	}
	return c.JSON(newResultResponse(res))
}

func (s *Server) getRun(c *fiber.Ctx) error {
	res, err := s.store.RunResult(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(newResultResponse(res))
}

func (s *Server) download(c *fiber.Ctx) error {
	res, err := s.store.RunResult(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if res.OutFile == "" {
		return fiber.NewError(fiber.StatusNotFound, "run has no workbook")
	}
	if _, err := os.Stat(res.OutFile); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "workbook not found: "+filepath.Base(res.OutFile))
	}

	c.Attachment(filepath.Base(res.OutFile))
	if err := c.SendFile(res.OutFile); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	return nil
}
