/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/notargets/golfa/InputParameters"
	"github.com/notargets/golfa/sweep"
	"github.com/notargets/golfa/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type SweepOptions struct {
	Samples        int // Overrides Samples in the input file when positive
	ParallelDegree int
	Metric         string // radius or real
}

// SweepCmd represents the sweep command
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Maximize the spectral radius of the error propagation symbol over the frequency domain",
	Long: `Sample the frequency domain [-π, π)^d on a cell centered grid, evaluate the
error propagation symbol at every sample and report the worst case`,
	Run: func(cmd *cobra.Command, args []string) {
		ICFile, _ := cmd.Flags().GetString("inputConditionsFile")
		ip := processInput(ICFile)
		so := &SweepOptions{
			ParallelDegree: viper.GetInt("parallel"),
		}
		so.Samples, _ = cmd.Flags().GetInt("samples")
		so.Metric, _ = cmd.Flags().GetString("metric")
		ip.Print()
		start := time.Now()
		r, err := RunSweep(context.Background(), ip, so)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("%d frequencies sampled in %v, %s\n", len(r.Grid), time.Since(start), utils.GetMemUsage())
		fmt.Printf("Maximum %s = %8.5f at θ = %8.5f\n", so.Metric, r.Max, r.Theta)
	},
}

func init() {
	rootCmd.AddCommand(SweepCmd)
	SweepCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the operator and multigrid levels")
	SweepCmd.Flags().IntP("samples", "n", 0, "frequencies per dimension, overrides Samples in the input file")
	SweepCmd.Flags().IntP("parallel", "p", runtime.NumCPU(), "number of concurrent workers")
	SweepCmd.Flags().StringP("metric", "m", "radius", "sampled quantity, radius (spectral radius) or real (largest real eigenvalue)")
	_ = viper.BindPFlag("parallel", SweepCmd.Flags().Lookup("parallel"))
}

func RunSweep(ctx context.Context, ip *InputParameters.LFAParameters, so *SweepOptions) (r sweep.Result, err error) {
	var (
		a      *Analysis
		grid   [][]float64
		metric sweep.Metric
	)
	switch so.Metric {
	case "", "radius":
		metric = sweep.SpectralRadius
	case "real":
		metric = sweep.MaxRealEigenvalue
	default:
		err = fmt.Errorf("%w: metric %q must be radius or real", InputParameters.ErrInvalidParameters, so.Metric)
		return
	}
	samples := ip.Samples
	if so.Samples > 0 {
		samples = so.Samples
	}
	if a, err = NewAnalysis(ip); err != nil {
		return
	}
	if grid, err = sweep.Grid(ip.Dimension, samples); err != nil {
		return
	}
	opts := []sweep.Option{sweep.WithMetric(metric)}
	if so.ParallelDegree > 0 {
		opts = append(opts, sweep.WithParallelDegree(so.ParallelDegree))
	}
	return sweep.Run(ctx, a.Symbols, grid, opts...)
}
