// Package: main
// File: server.go
// Description: HTTP service exposing the lattice and Brillouin zone calculations.
//
// Author: Ivan Grega
// License: MIT
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/igrega348/brillouin_zone/conventions"
	"github.com/igrega348/brillouin_zone/engine"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg  Config
	echo *echo.Echo
}

func NewServer(cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{cfg: cfg, echo: e}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zerolog.InfoLevel
			if v.Status >= http.StatusInternalServerError {
				level = zerolog.WarnLevel
			}
			log.WithLevel(level).
				Str("id", v.RequestID).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msgf("%s %s", v.Method, v.URI)
			return nil
		},
	}))

	e.GET("/health", s.health)
	e.POST("/calculate_lattice", s.calculateLattice)
	e.POST("/calculate_brillouin", s.calculateBrillouin)
	return s
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves on cfg.Listen until ctx is cancelled, then drains in-flight
// requests for up to the request timeout.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Msgf("Listening on %s", s.cfg.Listen)
		errc <- s.echo.Start(s.cfg.Listen)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout.Duration+time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Shutdown complete")
	return nil
}

// health reports liveness along with the reciprocal convention in use.
func (s *Server) health(c echo.Context) error {
	conv, err := conventions.NewConvention(s.cfg.Convention)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"convention":    conv.ToMap(),
		"triangulation": s.cfg.Triangulation,
	})
}

func (s *Server) calculateLattice(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.RequestTimeout.Duration)
	defer cancel()
	req, err := decodeRequest(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return s.fail(c, err)
	}
	res, err := engine.Lattice(ctx, req, s.cfg.Config)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newLatticeResponse(res))
}

func (s *Server) calculateBrillouin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.RequestTimeout.Duration)
	defer cancel()
	req, err := decodeRequest(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return s.fail(c, err)
	}
	res, err := engine.BrillouinZone(ctx, req, s.cfg.Config)
	if err != nil {
		return s.fail(c, err)
	}
	if res.Attempts > 1 {
		log.Info().Msgf("Zone for %v needed %d attempts (radius %d)", res.Basis, res.Attempts, res.Zone.Radius)
	}
	return c.JSON(http.StatusOK, newZoneResponse(res))
}

// fail writes {"error": ...} with the status of the error kind.
func (s *Server) fail(c echo.Context, err error) error {
	kind := engine.Classify(err)
	switch kind {
	case engine.KindInternal, engine.KindInvariantViolation:
		log.Error().Err(err).Str("kind", kind.String()).Msg("Calculation failed")
	default:
		log.Debug().Err(err).Str("kind", kind.String()).Msg("Request rejected")
	}
	return c.JSON(kind.Status(), ErrorResponse{Error: err.Error()})
}
