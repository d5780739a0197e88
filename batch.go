// Package: main
// File: batch.go
// Description: Batch mode. A list of jobs is read from a YAML or JSON file, computed concurrently and written out in input order.
//
// Author: Ivan Grega
// License: MIT
package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/igrega348/brillouin_zone/engine"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
)

// BatchJob is one calculation. Kind is "lattice" or "brillouin".
type BatchJob struct {
	Name             string `json:"name" yaml:"name"`
	Kind             string `json:"kind" yaml:"kind"`
	CalculateRequest `yaml:",inline"`
}

type BatchFile struct {
	Jobs []BatchJob `json:"jobs" yaml:"jobs"`
}

type BatchResult struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Kind    string           `json:"kind" yaml:"kind"`
	Status  int              `json:"status" yaml:"status"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
	Lattice *LatticeResponse `json:"lattice,omitempty" yaml:"lattice,omitempty"`
	Zone    *ZoneResponse    `json:"zone,omitempty" yaml:"zone,omitempty"`
}

func loadBatch(fn string) ([]BatchJob, error) {
	var f BatchFile
	if err := readStructured(fn, &f); err != nil {
		return nil, fmt.Errorf("loading batch: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("batch file %s has no jobs", fn)
	}
	return f.Jobs, nil
}

func runJob(ctx context.Context, job BatchJob, cfg Config) BatchResult {
	out := BatchResult{ID: uuid.NewString(), Name: job.Name, Kind: job.Kind}
	if out.Kind == "" {
		out.Kind = "brillouin"
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout.Duration)
	defer cancel()

	err := func() error {
		req, err := job.toEngine()
		if err != nil {
			return err
		}
		switch out.Kind {
		case "lattice":
			res, err := engine.Lattice(ctx, req, cfg.Config)
			if err != nil {
				return err
			}
			r := newLatticeResponse(res)
			out.Lattice = &r
		case "brillouin":
			res, err := engine.BrillouinZone(ctx, req, cfg.Config)
			if err != nil {
				return err
			}
			r := newZoneResponse(res)
			out.Zone = &r
		default:
			return fmt.Errorf("unknown job kind `%s`", out.Kind)
		}
		return nil
	}()
	out.Status = 200
	if err != nil {
		kind := engine.Classify(err)
		out.Status = kind.Status()
		out.Error = err.Error()
		log.Warn().Str("job", job.Name).Str("kind", kind.String()).Msg(err.Error())
	}
	return out
}

// runBatch computes jobs with at most `workers` in flight. Results keep the
// order of jobs. Progress goes to wrt, as a bar or as plain text lines.
func runBatch(ctx context.Context, jobs []BatchJob, cfg Config, workers int, textProgress bool, wrt io.Writer) []BatchResult {
	defer timer()()
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(jobs))

	var bar *progressbar.ProgressBar
	if textProgress {
		fmt.Fprintf(wrt, "Running %d jobs on %d workers...\n", len(jobs), workers)
	} else {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetWriter(wrt),
			progressbar.OptionSetDescription("Jobs"),
			progressbar.OptionShowCount(),
		)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	sem := make(chan struct{}, workers)
	t0 := time.Now()
	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job BatchJob) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = runJob(ctx, job, cfg)

			mu.Lock()
			defer mu.Unlock()
			done++
			if textProgress {
				fmt.Fprintf(wrt, "%3d/%3d %-20s %d (%.1f jobs/s)\n", done, len(jobs), job.Name, results[i].Status,
					float64(done)/time.Since(t0).Seconds())
			} else {
				bar.Add(1)
			}
		}(i, job)
	}
	wg.Wait()

	failed := lo.CountBy(results, func(r BatchResult) bool { return r.Error != "" })
	log.Info().Msgf("Batch finished: %d jobs, %d failed", len(results), failed)
	return results
}
