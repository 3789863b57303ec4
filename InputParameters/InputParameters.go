package InputParameters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
)

var ErrInvalidParameters = errors.New("InputParameters: invalid analysis parameters")

// Level describes the discretization of one multigrid level
type Level struct {
	NumberNodes1D            int `yaml:"NumberNodes1D"`
	NumberQuadraturePoints1D int `yaml:"NumberQuadraturePoints1D"`
	FineElements1D           int `yaml:"FineElements1D"` // Sub-elements per direction, h-multigrid fine levels
}

// Parameters obtained from the YAML input file
type LFAParameters struct {
	Title              string    `yaml:"Title"`
	Dimension          int       `yaml:"Dimension"`
	Operator           string    `yaml:"Operator"` // mass or diffusion
	Mesh               []float64 `yaml:"Mesh"`     // Element extent per direction
	Levels             []Level   `yaml:"Levels"`   // Finest first
	Coarsening         string    `yaml:"Coarsening"`
	Smoother           string    `yaml:"Smoother"`
	SmootherParameters []float64 `yaml:"SmootherParameters"`
	PreSmooth          int       `yaml:"PreSmooth"`
	PostSmooth         int       `yaml:"PostSmooth"`
	Samples            int       `yaml:"Samples"` // Frequencies per direction in a sweep
	Theta              []float64 `yaml:"Theta"`
}

func (ip *LFAParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.setDefaults()
	return ip.Validate()
}

func (ip *LFAParameters) setDefaults() {
	if len(ip.Mesh) == 0 {
		for k := 0; k < ip.Dimension; k++ {
			ip.Mesh = append(ip.Mesh, 1)
		}
	}
	for i := range ip.Levels {
		if ip.Levels[i].FineElements1D == 0 {
			ip.Levels[i].FineElements1D = 1
		}
	}
	if ip.Coarsening == "" {
		ip.Coarsening = "P"
	}
	ip.Coarsening = strings.ToUpper(ip.Coarsening)
	ip.Smoother = strings.ToLower(ip.Smoother)
	if ip.Smoother == "" {
		ip.Smoother = "jacobi"
	}
	if ip.Samples == 0 {
		ip.Samples = 16
	}
}

func (ip *LFAParameters) Validate() (err error) {
	switch {
	case ip.Dimension < 1 || ip.Dimension > 3:
		err = fmt.Errorf("%w: Dimension %d must be 1, 2 or 3", ErrInvalidParameters, ip.Dimension)
	case len(ip.Mesh) != ip.Dimension:
		err = fmt.Errorf("%w: Mesh has %d extents for Dimension %d", ErrInvalidParameters, len(ip.Mesh), ip.Dimension)
	case len(ip.Levels) == 0:
		err = fmt.Errorf("%w: at least one level is required", ErrInvalidParameters)
	case ip.Coarsening != "P" && ip.Coarsening != "H":
		err = fmt.Errorf("%w: Coarsening %q must be P or H", ErrInvalidParameters, ip.Coarsening)
	case ip.PreSmooth < 0 || ip.PostSmooth < 0:
		err = fmt.Errorf("%w: smoothing counts %d, %d must not be negative", ErrInvalidParameters,
			ip.PreSmooth, ip.PostSmooth)
	case ip.Samples < 1:
		err = fmt.Errorf("%w: Samples %d must be positive", ErrInvalidParameters, ip.Samples)
	case len(ip.Theta) != 0 && len(ip.Theta) != ip.Dimension:
		err = fmt.Errorf("%w: Theta has %d entries for Dimension %d", ErrInvalidParameters, len(ip.Theta), ip.Dimension)
	}
	return
}

// NumberLevels is the depth of the multigrid hierarchy, one for a smoother
// analyzed on its own
func (ip *LFAParameters) NumberLevels() int { return len(ip.Levels) }

func (ip *LFAParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("[%s]\t\t\t= Operator\n", ip.Operator)
	fmt.Printf("%v\t\t\t= Mesh\n", ip.Mesh)
	for i, lev := range ip.Levels {
		fmt.Printf("Levels[%d] = Nodes %d, Quadrature Points %d, Fine Elements %d\n",
			i, lev.NumberNodes1D, lev.NumberQuadraturePoints1D, lev.FineElements1D)
	}
	fmt.Printf("[%s]\t\t\t\t= Coarsening\n", ip.Coarsening)
	fmt.Printf("[%s]\t\t\t= Smoother %v\n", ip.Smoother, ip.SmootherParameters)
	fmt.Printf("[%d, %d]\t\t\t= Pre, Post Smoothing\n", ip.PreSmooth, ip.PostSmooth)
	fmt.Printf("[%d]\t\t\t\t= Samples\n", ip.Samples)
}
