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
	"fmt"
	"io/ioutil"
	"os"

	"github.com/notargets/golfa/InputParameters"
	"github.com/notargets/golfa/utils"
	"github.com/spf13/cobra"
)

const exampleFile = `
########################################
Title: "Two level p-multigrid"
Dimension: 2
Operator: diffusion # Can be "mass"
Mesh: [1., 1.]
Levels:
  - NumberNodes1D: 5
    NumberQuadraturePoints1D: 5
  - NumberNodes1D: 3
    NumberQuadraturePoints1D: 5
Coarsening: P # Can be "H", fine levels then need FineElements1D
Smoother: jacobi # Can be "identity" or "chebyshev"
SmootherParameters: [1.]
PreSmooth: 1
PostSmooth: 1
Samples: 16
########################################
`

// SymbolsCmd represents the symbols command
var SymbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Evaluate the symbol of the error propagation operator at one frequency",
	Long: `Evaluate the symbol of the error propagation operator at one frequency and
print the matrix and its eigenvalues`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err   error
			theta []float64
		)
		ICFile, _ := cmd.Flags().GetString("inputConditionsFile")
		ip := processInput(ICFile)
		if theta, err = cmd.Flags().GetFloat64Slice("theta"); err != nil {
			panic(err)
		}
		if len(theta) == 0 {
			theta = ip.Theta
		}
		ip.Print()
		if err = RunSymbols(ip, theta); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func processInput(ICFile string) (ip *InputParameters.LFAParameters) {
	var (
		err  error
		data []byte
	)
	if len(ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = ioutil.ReadFile(ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.LFAParameters{}
	if err = ip.Parse(data); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	return
}

func init() {
	rootCmd.AddCommand(SymbolsCmd)
	SymbolsCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the operator and multigrid levels")
	SymbolsCmd.Flags().Float64SliceP("theta", "t", nil, "frequency, one value per dimension, overrides Theta in the input file")
}

func RunSymbols(ip *InputParameters.LFAParameters, theta []float64) (err error) {
	var (
		a   *Analysis
		S   utils.CMatrix
		re  []float64
		mod []float64
	)
	if len(theta) == 0 {
		err = fmt.Errorf("%w: no frequency given, use --theta or Theta", InputParameters.ErrInvalidParameters)
		return
	}
	if a, err = NewAnalysis(ip); err != nil {
		return
	}
	if S, err = a.Symbols(theta); err != nil {
		return
	}
	if re, mod, err = S.Eigenvalues(); err != nil {
		return
	}
	if a.Multigrid != nil {
		for _, b := range a.Multigrid.ProlongationBases() {
			fmt.Printf("%v finest level: %v basis, %d to %d nodes, %d fine sub-elements\n",
				a.Multigrid.Coarsening(), b.Type(), b.NumberNodes(), b.NumberQuadraturePoints(), b.NumberElements1D())
		}
	}
	fmt.Printf("Symbol at θ = %v\n", theta)
	printSymbol(S)
	fmt.Printf("Real part of eigenvalues = %8.5f\n", re)
	fmt.Printf("Spectral radius = %8.5f\n", mod[len(mod)-1])
	return
}

func printSymbol(S utils.CMatrix) {
	nr, nc := S.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			fmt.Printf("%8.5f ", S.At(i, j))
		}
		fmt.Printf("\n")
	}
}
