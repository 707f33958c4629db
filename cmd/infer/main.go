// ffnn-infer: runs a saved network on a query, in plaintext or with the
// first layer evaluated on the encrypted query
//
// Usage:
//
//	ffnn-infer --weights=xor.json --arch=2,3,1 --query=0,1 --encrypted
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"ffnn/core/ckkswrapper"
	"ffnn/m"
	"ffnn/split"
	"ffnn/utils"

	"github.com/pkg/errors"
)

var (
	weightsFile = flag.String("weights", "", "Weights JSON file")
	arch        = flag.String("arch", "2,3,1", "Layer sizes the weights were trained with")
	activation  = flag.String("activation", "sigmoid", "Activation the weights were trained with")
	query       = flag.String("query", "0,1", "Comma-separated input values")
	logN        = flag.Int("logN", ckkswrapper.DefaultLogN, "Ring dimension log2")
	encrypted   = flag.Bool("encrypted", false, "Evaluate the first layer on the encrypted query")
	verbose     = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *weightsFile == "" {
		fail("Missing weights", errors.New("--weights is required"))
	}
	layers, err := utils.ParseArchitecture(*arch)
	if err != nil {
		fail("Invalid architecture", err)
	}
	act, err := m.ActivatorFor(*activation)
	if err != nil {
		fail("Invalid activation", err)
	}
	inputs, err := parseQuery(*query)
	if err != nil {
		fail("Invalid query", err)
	}

	stats := &utils.TimingStats{}
	network, err := m.NewNetwork(m.Config{
		Layers:       layers,
		LearningRate: 1,
		Activator:    act,
		Stats:        stats,
	})
	if err != nil {
		fail("Error building network", err)
	}
	if err := network.Load(*weightsFile); err != nil {
		fail("Error loading weights", err)
	}
	log("Loaded %s in %v", *weightsFile, stats.LoadTime)

	start := time.Now()
	var outputs []float64
	if *encrypted {
		outputs, err = inferEncrypted(network, inputs)
	} else {
		outputs, err = network.Predict(inputs)
	}
	if err != nil {
		fail("Error running inference", err)
	}
	log("Inference time: %.4fs", time.Since(start).Seconds())

	fmt.Printf("%v -> %v\n", inputs, outputs)
}

// inferEncrypted serves transition 0 from a goroutine over an in-memory
// connection and runs the client against it.
func inferEncrypted(network *m.Network, inputs []float64) ([]float64, error) {
	start := time.Now()
	he, err := ckkswrapper.NewHeContextWithLogN(*logN)
	if err != nil {
		return nil, err
	}
	kit := he.GenServerKit(ckkswrapper.InnerSumRotations(len(inputs)))
	log("HE initialization: %.2fs", time.Since(start).Seconds())

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	server, err := split.NewServer(kit, network, serverConn)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		defer serverConn.Close()
		done <- server.Serve()
	}()

	client := split.NewClient(he, network, clientConn)
	outputs, err := client.Infer(inputs)
	if err != nil {
		return nil, err
	}
	if err := client.Close(); err != nil {
		return nil, err
	}
	if err := <-done; err != nil {
		return nil, errors.Wrap(err, "server")
	}
	return outputs, nil
}

func parseQuery(s string) ([]float64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		values[i] = v
	}
	return values, nil
}

func log(format string, args ...interface{}) {
	if *verbose {
		fmt.Fprintf(os.Stderr, "[INFER] "+format+"\n", args...)
	}
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
