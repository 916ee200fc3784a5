// Package service runs the HTTP server and the optional booking-event
// consumer side by side and shuts both down when the context ends.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Runner is a background worker stopped by cancelling its context.
type Runner interface {
	Run(ctx context.Context) error
}

// Service owns the long-running parts of the process.
type Service struct {
	addr            string
	httpRouter      *echo.Echo
	workers         []Runner
	shutdownTimeout time.Duration
}

// New returns a service serving e on addr.
func New(addr string, e *echo.Echo, workers ...Runner) *Service {
	return &Service{addr: addr, httpRouter: e, workers: workers, shutdownTimeout: 10 * time.Second}
}

// Run blocks until ctx is cancelled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	g, runCtx := errgroup.WithContext(ctx)

	for _, w := range s.workers {
		g.Go(func() error {
			if err := w.Run(runCtx); err != nil {
				return fmt.Errorf("running worker: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logrus.WithField("addr", s.addr).Info("starting HTTP server")
		err := s.httpRouter.Start(s.addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		logrus.Info("shutting down HTTP server")
		if err := s.httpRouter.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("waiting for shutdown: %w", err)
	}
	logrus.Info("shutdown complete")
	return nil
}
