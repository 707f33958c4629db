package m

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Activator is a scalar activation applied element-wise. Derivative takes the
// activated output y = Activate(x), not x.
type Activator interface {
	Activate(x float64) float64
	Derivative(y float64) float64
	fmt.Stringer
}

var ActivatorLookup = map[string]Activator{
	"identity": Identity{},
	"sigmoid":  Sigmoid{},
	"tanh":     Tanh{},
	"relu":     ReLU{},
}

// ActivatorFor returns the activator registered under name.
func ActivatorFor(name string) (Activator, error) {
	a, ok := ActivatorLookup[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownActivator, "%q", name)
	}
	return a, nil
}

type Identity struct{}

func (Identity) Activate(x float64) float64 { return x }

func (Identity) Derivative(float64) float64 { return 1 }

func (Identity) String() string { return "identity" }

type Sigmoid struct{}

func (Sigmoid) Activate(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// s'(x) = s(x)(1 - s(x))
func (Sigmoid) Derivative(y float64) float64 {
	return y * (1 - y)
}

func (Sigmoid) String() string { return "sigmoid" }

type Tanh struct{}

func (Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

func (Tanh) Derivative(y float64) float64 {
	return 1 - y*y
}

func (Tanh) String() string { return "tanh" }

type ReLU struct{}

func (ReLU) Activate(x float64) float64 {
	return math.Max(x, 0)
}

func (ReLU) Derivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

func (ReLU) String() string { return "relu" }
