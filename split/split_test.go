package split

import (
	stdnet "net"
	"testing"

	"ffnn/core/ckkswrapper"
	"ffnn/m"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func trainedNetwork(t *testing.T, layers []int) *m.Network {
	t.Helper()
	net, err := m.NewNetwork(m.Config{
		Layers:       layers,
		LearningRate: 0.5,
		Activator:    m.Sigmoid{},
		Source:       rand.NewSource(3),
	})
	require.NoError(t, err)
	require.NoError(t, net.TrainLines(m.XOR(), 500))
	return net
}

func TestLinearCipherMatchesPlaintext(t *testing.T) {
	he, err := ckkswrapper.NewHeContext()
	require.NoError(t, err)

	weights, err := m.From([][]float64{
		{0.5, -1, 2},
		{0.25, 0.75, -0.5},
	})
	require.NoError(t, err)
	biases, err := m.Column([]float64{0.1, -0.3})
	require.NoError(t, err)

	kit := he.GenServerKit(ckkswrapper.InnerSumRotations(weights.Cols()))
	x := []float64{1, 2, 3}
	ct, err := he.EncryptVector(x)
	require.NoError(t, err)

	outs, err := LinearCipher(kit, ct, weights, biases)
	require.NoError(t, err)
	require.Len(t, outs, 2)

	// 0.5 - 2 + 6 + 0.1 and 0.25 + 1.5 - 1.5 - 0.3
	want := []float64{4.6, -0.05}
	for j, out := range outs {
		diff, err := he.Divergence(out, want[j:j+1])
		require.NoError(t, err)
		assert.Less(t, diff, 1e-4, "row %d", j)
	}
}

func TestLinearCipherRejectsMismatchedBiases(t *testing.T) {
	he, err := ckkswrapper.NewHeContext()
	require.NoError(t, err)

	weights, err := m.From([][]float64{{1, 2}})
	require.NoError(t, err)
	biases, err := m.Column([]float64{1, 2})
	require.NoError(t, err)

	ct, err := he.EncryptVector([]float64{1, 1})
	require.NoError(t, err)
	_, err = LinearCipher(he.GenServerKit(ckkswrapper.InnerSumRotations(2)), ct, weights, biases)
	assert.ErrorIs(t, err, m.ErrDimensionMismatch)
}

func TestSplitInferenceMatchesPredict(t *testing.T) {
	net := trainedNetwork(t, []int{2, 3, 1})

	he, err := ckkswrapper.NewHeContext()
	require.NoError(t, err)
	kit := he.GenServerKit(ckkswrapper.InnerSumRotations(2))

	serverConn, clientConn := stdnet.Pipe()
	defer clientConn.Close()

	server, err := NewServer(kit, net, serverConn)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		defer serverConn.Close()
		done <- server.Serve()
	}()

	client := NewClient(he, net, clientConn)
	for _, line := range m.XOR() {
		want, err := net.Predict(line.Inputs)
		require.NoError(t, err)

		got, err := client.Infer(line.Inputs)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-4)
		}
	}

	require.NoError(t, client.Close())
	assert.NoError(t, <-done)
}

func TestClientRejectsWrongInputLength(t *testing.T) {
	net := trainedNetwork(t, []int{2, 2, 1})
	he, err := ckkswrapper.NewHeContext()
	require.NoError(t, err)

	// Validation fails before anything is written, so no server is needed.
	_, clientConn := stdnet.Pipe()
	defer clientConn.Close()

	_, err = NewClient(he, net, clientConn).Infer([]float64{1, 2, 3})
	assert.ErrorIs(t, err, m.ErrInvalidInputLength)
}

func TestServerReportsBadRequest(t *testing.T) {
	net := trainedNetwork(t, []int{2, 2, 1})
	he, err := ckkswrapper.NewHeContext()
	require.NoError(t, err)

	serverConn, clientConn := stdnet.Pipe()
	defer clientConn.Close()

	server, err := NewServer(he.GenServerKit(ckkswrapper.InnerSumRotations(2)), net, serverConn)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		defer serverConn.Close()
		done <- server.Serve()
	}()

	proto := NewProtocol(clientConn, clientConn)
	require.NoError(t, proto.SendForward(7, nil, 0, 0))
	_, err = proto.ReceiveForward()
	assert.ErrorContains(t, err, "remote error")

	require.NoError(t, proto.SendDone())
	assert.NoError(t, <-done)
}
