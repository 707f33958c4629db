package split

import (
	"io"

	"ffnn/core/ckkswrapper"
	"ffnn/m"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// Server evaluates the first layer transition of a network on encrypted
// inputs.
type Server struct {
	kit     *ckkswrapper.ServerKit
	weights m.Matrix
	biases  m.Matrix
	proto   *Protocol
}

// NewServer copies transition 0 of net; later training of net does not
// affect the server.
func NewServer(kit *ckkswrapper.ServerKit, net *m.Network, conn io.ReadWriter) (*Server, error) {
	weights, biases, err := net.Transition(0)
	if err != nil {
		return nil, err
	}
	return &Server{
		kit:     kit,
		weights: weights,
		biases:  biases,
		proto:   NewProtocol(conn, conn),
	}, nil
}

// Serve answers forward requests until the client sends MsgDone or closes the
// connection. A request that cannot be evaluated is answered with MsgError.
func (s *Server) Serve() error {
	for {
		req, err := s.proto.ReceiveForward()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "receiving forward request")
		}

		cts, level, scale, err := s.forward(req)
		if err != nil {
			if err := s.proto.SendError(err); err != nil {
				return errors.Wrap(err, "sending error")
			}
			continue
		}
		if err := s.proto.SendForwardOutput(req.BatchID, cts, level, scale); err != nil {
			return errors.Wrap(err, "sending forward output")
		}
	}
}

func (s *Server) forward(req *ForwardPayload) ([][]byte, int, float64, error) {
	if len(req.Ciphertexts) != 1 {
		return nil, 0, 0, errors.Errorf("batch %d: expected 1 ciphertext, got %d", req.BatchID, len(req.Ciphertexts))
	}
	ct, err := DeserializeCiphertext(req.Ciphertexts[0])
	if err != nil {
		return nil, 0, 0, err
	}

	outs, err := LinearCipher(s.kit, ct, s.weights, s.biases)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "batch %d", req.BatchID)
	}

	raw := make([][]byte, len(outs))
	for i, out := range outs {
		if raw[i], err = SerializeCiphertext(out); err != nil {
			return nil, 0, 0, err
		}
	}
	return raw, levelOf(outs), scaleOf(outs), nil
}

func levelOf(cts []*rlwe.Ciphertext) int {
	if len(cts) == 0 {
		return 0
	}
	return cts[0].Level()
}

func scaleOf(cts []*rlwe.Ciphertext) float64 {
	if len(cts) == 0 {
		return 0
	}
	return cts[0].Scale.Float64()
}
