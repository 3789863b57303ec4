package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/notargets/golfa/utils"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyGrid   = errors.New("sweep: no frequencies to sample")
	ErrInvalidGrid = errors.New("sweep: invalid frequency grid")
)

// SymbolFunc evaluates a symbol matrix at one frequency
type SymbolFunc func(theta []float64) (utils.CMatrix, error)

// Metric reduces a symbol matrix to the scalar the sweep maximizes
type Metric func(S utils.CMatrix) (float64, error)

var (
	SpectralRadius    Metric = utils.CMatrix.SpectralRadius
	MaxRealEigenvalue Metric = utils.CMatrix.MaxRealEigenvalue
)

type Result struct {
	Max    float64     // Largest metric value over the grid
	Theta  []float64   // Frequency where Max is attained, first one on ties
	Values []float64   // Metric value per grid point, in grid order
	Grid   [][]float64 // The sampled frequencies
}

type config struct {
	parallelDegree int
	metric         Metric
}

type Option func(*config)

// WithParallelDegree sets the number of concurrent workers, default NumCPU
func WithParallelDegree(n int) Option {
	return func(c *config) {
		c.parallelDegree = n
	}
}

// WithMetric replaces the spectral radius as the sampled quantity
func WithMetric(m Metric) Option {
	return func(c *config) {
		c.metric = m
	}
}

// Grid returns samplesPerDimension^dimension frequencies covering
// [-π, π)^dimension at cell centers, which never include θ = 0. The first
// direction varies fastest.
func Grid(dimension, samplesPerDimension int) (grid [][]float64, err error) {
	if dimension < 1 || samplesPerDimension < 1 {
		err = fmt.Errorf("%w: dimension %d, samples %d", ErrInvalidGrid, dimension, samplesPerDimension)
		return
	}
	var (
		h      = 2 * math.Pi / float64(samplesPerDimension)
		nTotal = 1
	)
	for k := 0; k < dimension; k++ {
		nTotal *= samplesPerDimension
	}
	grid = make([][]float64, nTotal)
	for ind := range grid {
		theta := make([]float64, dimension)
		stride := 1
		for k := 0; k < dimension; k++ {
			i := (ind / stride) % samplesPerDimension
			theta[k] = -math.Pi + (float64(i)+0.5)*h
			stride *= samplesPerDimension
		}
		grid[ind] = theta
	}
	return
}

// Run evaluates the metric of fn over the grid concurrently. The first error
// stops the sweep and is returned, as is cancellation of ctx.
func Run(ctx context.Context, fn SymbolFunc, grid [][]float64, opts ...Option) (r Result, err error) {
	var (
		cfg = &config{
			parallelDegree: runtime.NumCPU(),
			metric:         SpectralRadius,
		}
	)
	for _, opt := range opts {
		opt(cfg)
	}
	if len(grid) == 0 {
		err = ErrEmptyGrid
		return
	}
	var (
		pm     = utils.NewPartitionMap(min(cfg.parallelDegree, len(grid)), len(grid))
		values = make([]float64, len(grid))
	)
	g, gctx := errgroup.WithContext(ctx)
	for np := 0; np < pm.ParallelDegree; np++ {
		kMin, kMax := pm.GetBucketRange(np)
		g.Go(func() error {
			for k := kMin; k < kMax; k++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				S, err := fn(grid[k])
				if err != nil {
					return fmt.Errorf("symbol at θ = %v: %w", grid[k], err)
				}
				if values[k], err = cfg.metric(S); err != nil {
					return fmt.Errorf("metric at θ = %v: %w", grid[k], err)
				}
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return
	}
	r = Result{
		Max:    math.Inf(-1),
		Values: values,
		Grid:   grid,
	}
	for k, val := range values {
		if val > r.Max {
			r.Max = val
			r.Theta = grid[k]
		}
	}
	return
}
