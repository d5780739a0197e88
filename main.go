// Package: main
// File: main.go
// Description: Main file for the brillouin_zone package.
//
//	The package is cli based. It serves the lattice and Brillouin zone calculations over HTTP,
//	or runs them once on a request file, or on a batch of jobs.
//
// Author: Ivan Grega
// License: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/igrega348/brillouin_zone/engine"
	"github.com/pkg/profile"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

var cfg = DefaultConfig()
var profiler interface{ Stop() }

// Helper function to measure elapsed time.
func timer() func() {
	start := time.Now()
	return func() {
		log.Info().Msgf("Elapsed time: %v", time.Since(start))
	}
}

// Load a single request from a YAML or JSON file.
func load_request(fn string) (engine.Request, error) {
	log.Info().Msgf("Loading request from '%s'", fn)
	var body CalculateRequest
	if err := readStructured(fn, &body); err != nil {
		return engine.Request{}, err
	}
	return body.toEngine()
}

func setup(cCtx *cli.Context) error {
	var err error
	cfg, err = LoadConfig(cCtx.String("config"))
	if err != nil {
		return err
	}
	if cCtx.IsSet("log_level") {
		cfg.LogLevel = cCtx.String("log_level")
	}
	if cCtx.Bool("v") {
		cfg.LogLevel = "debug"
	}
	setLogLevel(cfg.LogLevel)

	switch mode := cCtx.String("profile"); mode {
	case "":
	case "cpu":
		profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		return fmt.Errorf("unknown profile mode `%s`", mode)
	}
	return nil
}

func teardown(cCtx *cli.Context) error {
	if profiler != nil {
		profiler.Stop()
	}
	return nil
}

func serve(cCtx *cli.Context) error {
	if cCtx.IsSet("listen") {
		cfg.Listen = cCtx.String("listen")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewServer(cfg).Start(ctx)
}

func lattice(cCtx *cli.Context) error {
	defer timer()()
	req, err := load_request(cCtx.String("input"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout.Duration)
	defer cancel()
	res, err := engine.Lattice(ctx, req, cfg.Config)
	if err != nil {
		return err
	}
	log.Info().Msgf("Reciprocal basis %v, %d points", res.Reciprocal, len(res.Points))
	return writeStructured(cCtx.String("output"), newLatticeResponse(res))
}

func brillouin(cCtx *cli.Context) error {
	defer timer()()
	req, err := load_request(cCtx.String("input"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout.Duration)
	defer cancel()
	res, err := engine.BrillouinZone(ctx, req, cfg.Config)
	if err != nil {
		return err
	}
	log.Info().Msgf("Zone with %d vertices, %d faces, volume %g", res.Mesh.VertexCount(), len(res.Zone.Polyhedron.Faces), res.Zone.Volume())
	if fn := cCtx.String("object"); fn != "" {
		log.Info().Msgf("Writing zone object to '%s'", fn)
		if err := writeStructured(fn, res.Zone.Polyhedron.ToMap()); err != nil {
			return err
		}
	}
	return writeStructured(cCtx.String("output"), newZoneResponse(res))
}

func batch(cCtx *cli.Context) error {
	jobs, err := loadBatch(cCtx.String("input"))
	if err != nil {
		return err
	}
	results := runBatch(context.Background(), jobs, cfg, cCtx.Int("jobs"), cCtx.Bool("text_progress"), os.Stderr)
	return writeStructured(cCtx.String("output"), map[string]interface{}{"results": results})
}

func main() {
	ioFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Usage:    "Input yaml or json file: a request, a list of jobs or an object",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output file (yaml or json by extension). Defaults to json on stdout",
		},
	}
	app := &cli.App{
		Name:  "brillouin_zone",
		Usage: "Reciprocal lattices and first Brillouin zones of 3D Bravais lattices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file (yaml or json)",
				Value: configFromEnv(),
			},
			&cli.StringFlag{
				Name:  "log_level",
				Usage: "Log level: trace, debug, info, warn, error or disabled",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Write a 'cpu' or 'mem' profile to the working directory",
			},
			// verbose flag
			&cli.BoolFlag{
				Name:  "v",
				Usage: "Enable verbose logging",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []cli.Command{
			{
				Name:  "serve",
				Usage: "Serve /calculate_lattice and /calculate_brillouin over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address to listen on",
						Value: ":5000",
					},
				},
				Action: serve,
			},
			{
				Name:   "lattice",
				Usage:  "Compute the reciprocal basis and lattice point cloud",
				Flags:  ioFlags,
				Action: lattice,
			},
			{
				Name:  "zone",
				Usage: "Compute the triangulated first Brillouin zone",
				Flags: append(ioFlags, &cli.StringFlag{
					Name:  "object",
					Usage: "Also write the zone as a polyhedron object file",
				}),
				Action: brillouin,
			},
			{
				Name:   "inspect",
				Usage:  "Check and re-triangulate a box, parallelepiped or polyhedron object file",
				Flags:  ioFlags,
				Action: inspect,
			},
			{
				Name:  "batch",
				Usage: "Run a list of jobs concurrently",
				Flags: []cli.Flag{
					ioFlags[0],
					ioFlags[1],
					&cli.IntFlag{
						Name:  "jobs",
						Usage: "Number of jobs computed at the same time",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "text_progress",
						Usage: "Use text progress instead of a progress bar",
					},
				},
				Action: batch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
