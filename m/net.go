package m

import (
	"fmt"
	"io"
	"math"
	"time"

	"ffnn/utils"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

type Config struct {
	// Layers lists the layer widths, input first and output last.
	Layers       []int
	LearningRate float64
	Activator    Activator
	// Source drives weight initialization. Nil uses the global source.
	Source rand.Source
	// Progress receives epoch progress lines. Nil discards them.
	Progress io.Writer
	// Stats accumulates initialization, forward and backward timings when set.
	Stats *utils.TimingStats
	// PropagateUpdatedWeights sends the error of each layer back through the
	// weights after this sample's update instead of before it.
	PropagateUpdatedWeights bool
}

// Network is a fully-connected feed-forward network trained by per-sample
// stochastic gradient descent. A Network must not be used concurrently.
type Network struct {
	config  Config
	layers  []int
	weights []Matrix
	biases  []Matrix
}

// Cache holds the activations of every layer produced by one forward pass.
// cache[0] is the input column.
type Cache struct {
	layers []Matrix
}

func NewNetwork(c Config) (*Network, error) {
	if len(c.Layers) < 2 {
		return nil, errors.Wrapf(ErrLayerCount, "need at least 2 layers, got %d", len(c.Layers))
	}
	for i, n := range c.Layers {
		if n < 1 {
			return nil, errors.Wrapf(ErrShape, "layer %d has width %d", i, n)
		}
	}
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return nil, errors.Wrapf(ErrLearningRate, "got %v", c.LearningRate)
	}
	if c.Activator == nil {
		return nil, errors.Wrap(ErrUnknownActivator, "nil activator")
	}
	if c.Progress == nil {
		c.Progress = io.Discard
	}
	c.Layers = append([]int(nil), c.Layers...)

	start := time.Now()
	net := &Network{
		config:  c,
		layers:  c.Layers,
		weights: make([]Matrix, len(c.Layers)-1),
		biases:  make([]Matrix, len(c.Layers)-1),
	}
	for i := range net.weights {
		var err error
		net.weights[i], err = RandomFrom(c.Layers[i+1], c.Layers[i], c.Source)
		if err != nil {
			return nil, err
		}
		net.biases[i], err = RandomFrom(c.Layers[i+1], 1, c.Source)
		if err != nil {
			return nil, err
		}
	}
	if c.Stats != nil {
		c.Stats.ModelInitTime += time.Since(start)
	}

	return net, nil
}

// Layers returns a copy of the layer widths.
func (net *Network) Layers() []int {
	return append([]int(nil), net.layers...)
}

func (net *Network) LearningRate() float64 {
	return net.config.LearningRate
}

func (net *Network) Activator() Activator {
	return net.config.Activator
}

// Transition returns the weights and biases mapping layer i to layer i+1.
func (net *Network) Transition(i int) (weights, biases Matrix, err error) {
	if i < 0 || i >= len(net.weights) {
		return Matrix{}, Matrix{}, errors.Wrapf(ErrLayerCount, "transition %d of %d", i, len(net.weights))
	}
	return net.weights[i], net.biases[i], nil
}

// FeedForward runs inputs through every layer and returns the output vector
// together with the activations Backpropagate needs.
func (net *Network) FeedForward(inputs []float64) ([]float64, Cache, error) {
	if len(inputs) != net.layers[0] {
		return nil, Cache{}, errors.Wrapf(ErrInvalidInputLength, "got %d, want %d", len(inputs), net.layers[0])
	}
	current, err := Column(inputs)
	if err != nil {
		return nil, Cache{}, err
	}

	cache := Cache{layers: make([]Matrix, 1, len(net.layers))}
	cache.layers[0] = current
	current, err = net.forward(0, current, &cache)
	if err != nil {
		return nil, Cache{}, err
	}

	return current.Flat(), cache, nil
}

// Predict is FeedForward for callers that will not train on the result.
func (net *Network) Predict(inputs []float64) ([]float64, error) {
	outputs, _, err := net.FeedForward(inputs)
	return outputs, err
}

// FeedForwardFrom continues a forward pass from the activations of the given
// layer through to the output.
func (net *Network) FeedForwardFrom(layer int, activations []float64) ([]float64, error) {
	if layer < 0 || layer >= len(net.layers) {
		return nil, errors.Wrapf(ErrLayerCount, "layer %d of %d", layer, len(net.layers))
	}
	if len(activations) != net.layers[layer] {
		return nil, errors.Wrapf(ErrInvalidInputLength, "layer %d: got %d, want %d", layer, len(activations), net.layers[layer])
	}
	current, err := Column(activations)
	if err != nil {
		return nil, err
	}
	current, err = net.forward(layer, current, nil)
	if err != nil {
		return nil, err
	}
	return current.Flat(), nil
}

func (net *Network) forward(from int, current Matrix, cache *Cache) (Matrix, error) {
	for i := from; i < len(net.weights); i++ {
		sum, err := net.weights[i].Multiply(current)
		if err != nil {
			return Matrix{}, errors.Wrapf(err, "transition %d", i)
		}
		sum, err = sum.Add(net.biases[i])
		if err != nil {
			return Matrix{}, errors.Wrapf(err, "transition %d", i)
		}
		current = sum.Map(net.config.Activator.Activate)
		if cache != nil {
			cache.layers = append(cache.layers, current)
		}
	}
	return current, nil
}

// Backpropagate applies one SGD update from the forward pass recorded in
// cache. The parameters are left untouched if it fails.
func (net *Network) Backpropagate(cache Cache, outputs, targets []float64) error {
	last := net.layers[len(net.layers)-1]
	if len(targets) != last {
		return errors.Wrapf(ErrInvalidTargetLength, "got %d, want %d", len(targets), last)
	}
	if len(outputs) != last {
		return errors.Wrapf(ErrDimensionMismatch, "outputs: got %d, want %d", len(outputs), last)
	}
	if err := net.checkCache(cache); err != nil {
		return err
	}

	parsed, err := Column(outputs)
	if err != nil {
		return err
	}
	wanted, err := Column(targets)
	if err != nil {
		return err
	}
	errs, err := wanted.Subtract(parsed)
	if err != nil {
		return err
	}
	gradients := parsed.Map(net.config.Activator.Derivative)

	weights := append([]Matrix(nil), net.weights...)
	biases := append([]Matrix(nil), net.biases...)
	for i := len(weights) - 1; i >= 0; i-- {
		gradients, err = gradients.DotMultiply(errs)
		if err != nil {
			return errors.Wrapf(err, "transition %d", i)
		}
		gradients = gradients.Scale(net.config.LearningRate)

		delta, err := gradients.Multiply(cache.layers[i].Transpose())
		if err != nil {
			return errors.Wrapf(err, "transition %d", i)
		}
		updated, err := weights[i].Add(delta)
		if err != nil {
			return errors.Wrapf(err, "transition %d", i)
		}
		bias, err := biases[i].Add(gradients)
		if err != nil {
			return errors.Wrapf(err, "transition %d", i)
		}

		through := weights[i]
		if net.config.PropagateUpdatedWeights {
			through = updated
		}
		weights[i], biases[i] = updated, bias

		errs, err = through.Transpose().Multiply(errs)
		if err != nil {
			return errors.Wrapf(err, "transition %d", i)
		}
		gradients = cache.layers[i].Map(net.config.Activator.Derivative)
	}

	net.weights, net.biases = weights, biases
	return nil
}

func (net *Network) checkCache(cache Cache) error {
	if len(cache.layers) != len(net.layers) {
		return errors.Wrapf(ErrInvalidCache, "%d layers cached, network has %d", len(cache.layers), len(net.layers))
	}
	for i, a := range cache.layers {
		if a.Rows() != net.layers[i] || a.Cols() != 1 {
			return errors.Wrapf(ErrInvalidCache, "layer %d cached as %dx%d, want %dx1", i, a.Rows(), a.Cols(), net.layers[i])
		}
	}
	return nil
}

// Train runs epochs passes over the samples in order, updating the network
// after every sample.
func (net *Network) Train(inputs, targets [][]float64, epochs int) error {
	if len(inputs) != len(targets) {
		return errors.Wrapf(ErrSampleCount, "%d inputs, %d targets", len(inputs), len(targets))
	}
	if epochs < 0 {
		return errors.Errorf("epochs must not be negative, got %d", epochs)
	}

	start := time.Now()
	for epoch := 1; epoch <= epochs; epoch++ {
		if epochs < 100 || epoch%(epochs/100) == 0 {
			fmt.Fprintf(net.config.Progress, "Epoch %d of %d\n", epoch, epochs)
		}
		for j := range inputs {
			if err := net.trainOne(inputs[j], targets[j]); err != nil {
				return errors.Wrapf(err, "epoch %d, sample %d", epoch, j)
			}
		}
	}
	if net.config.Stats != nil {
		net.config.Stats.TotalTime += time.Since(start)
	}

	return nil
}

// TrainLines is Train over a Lines dataset.
func (net *Network) TrainLines(lines Lines, epochs int) error {
	inputs, targets := lines.Split()
	return net.Train(inputs, targets, epochs)
}

func (net *Network) trainOne(inputs, targets []float64) error {
	stats := net.config.Stats

	start := time.Now()
	outputs, cache, err := net.FeedForward(inputs)
	if err != nil {
		return err
	}
	if stats != nil {
		stats.ForwardPassTime += time.Since(start)
	}

	start = time.Now()
	if err := net.Backpropagate(cache, outputs, targets); err != nil {
		return err
	}
	if stats != nil {
		stats.BackwardPassTime += time.Since(start)
	}
	return nil
}

// Loss returns the mean squared error of the network over the samples.
func (net *Network) Loss(inputs, targets [][]float64) (float64, error) {
	if len(inputs) != len(targets) || len(inputs) == 0 {
		return 0, errors.Wrapf(ErrSampleCount, "%d inputs, %d targets", len(inputs), len(targets))
	}
	last := net.layers[len(net.layers)-1]

	var total float64
	for i := range inputs {
		if len(targets[i]) != last {
			return 0, errors.Wrapf(ErrInvalidTargetLength, "sample %d: got %d, want %d", i, len(targets[i]), last)
		}
		outputs, err := net.Predict(inputs[i])
		if err != nil {
			return 0, errors.Wrapf(err, "sample %d", i)
		}
		d := floats.Distance(outputs, targets[i], 2)
		total += d * d / float64(last)
	}
	return total / float64(len(inputs)), nil
}

// Save writes the weights and biases to path. Layer sizes, learning rate and
// activator are not stored.
func (net *Network) Save(path string) error {
	start := time.Now()
	record := &utils.ModelWeights{
		Weights: make([][][]float64, len(net.weights)),
		Biases:  make([][][]float64, len(net.biases)),
	}
	for i := range net.weights {
		record.Weights[i] = net.weights[i].Data()
		record.Biases[i] = net.biases[i].Data()
	}
	if err := utils.SaveWeights(path, record); err != nil {
		return errors.Wrapf(err, "saving network to %s", path)
	}
	if net.config.Stats != nil {
		net.config.Stats.SaveTime += time.Since(start)
	}
	return nil
}

// Load replaces the weights and biases with those stored at path. Stored
// shapes are not checked against the layer sizes.
func (net *Network) Load(path string) error {
	start := time.Now()
	record, err := utils.LoadWeights(path)
	if err != nil {
		return errors.Wrapf(err, "loading network from %s", path)
	}

	n := len(net.layers) - 1
	if len(record.Weights) < n || len(record.Biases) < n {
		return errors.Errorf("%s holds %d weight and %d bias matrices, want %d",
			path, len(record.Weights), len(record.Biases), n)
	}

	weights := make([]Matrix, n)
	biases := make([]Matrix, n)
	for i := 0; i < n; i++ {
		if weights[i], err = From(record.Weights[i]); err != nil {
			return errors.Wrapf(err, "%s: weights[%d]", path, i)
		}
		if biases[i], err = From(record.Biases[i]); err != nil {
			return errors.Wrapf(err, "%s: biases[%d]", path, i)
		}
	}

	net.weights, net.biases = weights, biases
	if net.config.Stats != nil {
		net.config.Stats.LoadTime += time.Since(start)
	}
	return nil
}
