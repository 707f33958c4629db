// ffnn-train: trains a feed-forward network on the XOR truth table
//
// Usage:
//
//	ffnn-train --arch=2,3,1 --epochs=10000 --lr=0.5 --activation=sigmoid
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"ffnn/m"
	"ffnn/utils"

	"golang.org/x/exp/rand"
)

var (
	arch         = flag.String("arch", "2,3,1", "Layer sizes, input first")
	epochs       = flag.Int("epochs", 10000, "Number of training epochs")
	learningRate = flag.Float64("lr", 0.5, "Learning rate")
	activation   = flag.String("activation", "sigmoid", "Activation: identity, sigmoid, tanh, relu")
	seed         = flag.Uint64("seed", 42, "Random seed")
	verbose      = flag.Bool("verbose", true, "Verbose output")
	updated      = flag.Bool("updated-weights", false, "Propagate errors through already-updated weights")
	outputFile   = flag.String("output", "", "Output weights file (JSON)")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	layers, err := utils.ParseArchitecture(*arch)
	if err != nil {
		fail("Invalid architecture", err)
	}
	config := &utils.Config{
		Architecture: layers,
		LearningRate: *learningRate,
		Epochs:       *epochs,
		Activation:   *activation,
		Seed:         *seed,
		Output:       *outputFile,
	}
	if err := utils.ValidateConfig(config); err != nil {
		fail("Invalid configuration", err)
	}

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Architecture:  %v\n", config.Architecture)
	fmt.Printf("  Epochs:        %d\n", config.Epochs)
	fmt.Printf("  Learning Rate: %.4f\n", config.LearningRate)
	fmt.Printf("  Activation:    %s\n", config.Activation)
	fmt.Printf("  Seed:          %d\n", config.Seed)
	fmt.Println()

	act, err := m.ActivatorFor(config.Activation)
	if err != nil {
		fail("Invalid activation", err)
	}

	stats := &utils.TimingStats{}
	var progress io.Writer
	if *verbose {
		progress = os.Stdout
	}
	net, err := m.NewNetwork(m.Config{
		Layers:                  config.Architecture,
		LearningRate:            config.LearningRate,
		Activator:               act,
		Source:                  rand.NewSource(config.Seed),
		Progress:                progress,
		Stats:                   stats,
		PropagateUpdatedWeights: *updated,
	})
	if err != nil {
		fail("Error building network", err)
	}

	data := m.XOR()
	if err := net.TrainLines(data, config.Epochs); err != nil {
		fail("Error training", err)
	}

	inputs, targets := data.Split()
	loss, err := net.Loss(inputs, targets)
	if err != nil {
		fail("Error computing loss", err)
	}
	fmt.Printf("\nTraining complete! Loss: %.6f\n", loss)
	for _, line := range data {
		out, err := net.Predict(line.Inputs)
		if err != nil {
			fail("Error predicting", err)
		}
		fmt.Printf("  %v -> %.4f (want %v)\n", line.Inputs, out, line.Targets)
	}

	if config.Output != "" {
		fmt.Printf("\nSaving weights to %s...\n", config.Output)
		if err := net.Save(config.Output); err != nil {
			fail("Error saving", err)
		}
		fmt.Println("Done!")
	}

	utils.PrintTimingStats(stats, config.Epochs*len(data))
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
