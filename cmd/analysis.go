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

	"github.com/notargets/golfa/InputParameters"
	"github.com/notargets/golfa/basis"
	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/preconditioner"
	"github.com/notargets/golfa/utils"
)

// Analysis is the error propagation operator described by an input file,
// a bare smoother when a single level is given and a multigrid cycle
// otherwise
type Analysis struct {
	Parameters *InputParameters.LFAParameters
	Operators  []*operator.Operator // Finest first
	Smoother   preconditioner.Smoother
	Multigrid  *preconditioner.Multigrid
}

func NewAnalysis(ip *InputParameters.LFAParameters) (a *Analysis, err error) {
	var (
		mesh operator.Mesh
		nl   = ip.NumberLevels()
	)
	switch ip.Dimension {
	case 1:
		mesh, err = operator.NewMesh1D(ip.Mesh[0])
	case 2:
		mesh, err = operator.NewMesh2D(ip.Mesh[0], ip.Mesh[1])
	case 3:
		mesh, err = operator.NewMesh3D(ip.Mesh[0], ip.Mesh[1], ip.Mesh[2])
	default:
		err = fmt.Errorf("%w: Dimension %d", InputParameters.ErrInvalidParameters, ip.Dimension)
	}
	if err != nil {
		return
	}
	a = &Analysis{
		Parameters: ip,
		Operators:  make([]*operator.Operator, nl),
	}
	for i, lev := range ip.Levels {
		if a.Operators[i], err = operator.NewGalleryOperator(ip.Operator, lev.NumberNodes1D,
			lev.NumberQuadraturePoints1D, mesh, operator.WithFineElements(lev.FineElements1D)); err != nil {
			err = fmt.Errorf("level %d: %w", i, err)
			return
		}
	}
	// Build from the coarsest pair upward, each level nesting the one below
	var coarse = preconditioner.Direct(a.Operators[nl-1])
	for i := nl - 2; i >= 0; i-- {
		var (
			smoother preconditioner.Smoother
			pb       *basis.TensorBasis
			mg       *preconditioner.Multigrid
		)
		if smoother, err = newSmoother(ip.Smoother, a.Operators[i]); err != nil {
			return
		}
		if pb, err = newProlongationBasis(ip, i); err != nil {
			return
		}
		bases := []*basis.TensorBasis{pb}
		if ip.Coarsening == "H" {
			mg, err = preconditioner.NewHMultigrid(a.Operators[i], coarse, smoother, bases)
		} else {
			mg, err = preconditioner.NewPMultigrid(a.Operators[i], coarse, smoother, bases)
		}
		if err != nil {
			err = fmt.Errorf("level %d: %w", i, err)
			return
		}
		coarse = preconditioner.Nested(mg)
		a.Multigrid, a.Smoother = mg, smoother
	}
	if nl == 1 {
		a.Smoother, err = newSmoother(ip.Smoother, a.Operators[0])
	}
	return
}

func newSmoother(name string, op *operator.Operator) (s preconditioner.Smoother, err error) {
	switch name {
	case "identity":
		s, err = preconditioner.NewIdentity(op)
	case "jacobi":
		s, err = preconditioner.NewJacobi(op)
	case "chebyshev":
		s, err = preconditioner.NewChebyshev(op)
	default:
		err = fmt.Errorf("%w: Smoother %q must be identity, jacobi or chebyshev",
			InputParameters.ErrInvalidParameters, name)
	}
	return
}

// newProlongationBasis interpolates from level i+1 to level i
func newProlongationBasis(ip *InputParameters.LFAParameters, i int) (pb *basis.TensorBasis, err error) {
	var (
		fine   = ip.Levels[i]
		coarse = ip.Levels[i+1]
	)
	if ip.Coarsening == "H" {
		if coarse.NumberNodes1D != fine.NumberNodes1D {
			err = fmt.Errorf("%w: h-multigrid levels %d and %d differ in degree",
				InputParameters.ErrInvalidParameters, i, i+1)
			return
		}
		if fine.FineElements1D%coarse.FineElements1D != 0 || fine.FineElements1D == coarse.FineElements1D {
			err = fmt.Errorf("%w: h-multigrid level %d has %d sub-elements, level %d has %d",
				InputParameters.ErrInvalidParameters, i, fine.FineElements1D, i+1, coarse.FineElements1D)
			return
		}
		return basis.NewTensorH1LagrangeMacroHProlongationBasis(coarse.NumberNodes1D, 1, ip.Dimension,
			coarse.FineElements1D, fine.FineElements1D)
	}
	return basis.NewTensorH1LagrangePProlongationBasis(coarse.NumberNodes1D, fine.NumberNodes1D, 1, ip.Dimension)
}

// Symbols evaluates the error propagation symbol at theta
func (a *Analysis) Symbols(theta []float64) (S utils.CMatrix, err error) {
	var ip = a.Parameters
	if a.Multigrid != nil {
		return a.Multigrid.ComputeSymbols(ip.SmootherParameters, []int{ip.PreSmooth, ip.PostSmooth}, theta)
	}
	return a.Smoother.ComputeSymbols(ip.SmootherParameters, theta)
}
