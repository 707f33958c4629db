package split

import (
	"io"

	"ffnn/core/ckkswrapper"
	"ffnn/m"

	"github.com/pkg/errors"
)

// Client holds the secret key and the network. It sends its input encrypted
// and finishes the forward pass locally from the first hidden layer.
type Client struct {
	he      *ckkswrapper.HeContext
	net     *m.Network
	proto   *Protocol
	batchID int
}

func NewClient(he *ckkswrapper.HeContext, net *m.Network, conn io.ReadWriter) *Client {
	return &Client{
		he:    he,
		net:   net,
		proto: NewProtocol(conn, conn),
	}
}

// Infer returns the network's output for inputs, with the first layer
// transition evaluated by the server on the encrypted input.
func (c *Client) Infer(inputs []float64) ([]float64, error) {
	layers := c.net.Layers()
	if len(inputs) != layers[0] {
		return nil, errors.Wrapf(m.ErrInvalidInputLength, "got %d, want %d", len(inputs), layers[0])
	}

	ct, err := c.he.EncryptVector(inputs)
	if err != nil {
		return nil, err
	}
	raw, err := SerializeCiphertext(ct)
	if err != nil {
		return nil, err
	}

	c.batchID++
	if err := c.proto.SendForward(c.batchID, [][]byte{raw}, ct.Level(), ct.Scale.Float64()); err != nil {
		return nil, errors.Wrap(err, "sending encrypted input")
	}
	resp, err := c.proto.ReceiveForward()
	if err != nil {
		return nil, errors.Wrap(err, "receiving first layer")
	}
	if resp.BatchID != c.batchID {
		return nil, errors.Errorf("response for batch %d, want %d", resp.BatchID, c.batchID)
	}
	if len(resp.Ciphertexts) != layers[1] {
		return nil, errors.Errorf("server returned %d neurons, want %d", len(resp.Ciphertexts), layers[1])
	}

	activate := c.net.Activator().Activate
	hidden := make([]float64, layers[1])
	for j, b := range resp.Ciphertexts {
		out, err := DeserializeCiphertext(b)
		if err != nil {
			return nil, err
		}
		v, err := c.he.DecryptVector(out, 1)
		if err != nil {
			return nil, err
		}
		hidden[j] = activate(v[0])
	}

	return c.net.FeedForwardFrom(1, hidden)
}

// Close tells the server no more requests follow.
func (c *Client) Close() error {
	return c.proto.SendDone()
}
