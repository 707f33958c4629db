// Package split runs the first layer transition of a network on encrypted
// inputs. The client keeps the CKKS secret key and its input private; the
// server holds the first transition's parameters and only ever sees
// ciphertexts.
package split

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

func init() {
	gob.Register(ForwardPayload{})
}

// MessageType defines message types for split inference
type MessageType int

const (
	MsgForwardInput MessageType = iota
	MsgForwardOutput
	MsgDone
	MsgError
)

// Message represents a message in the split inference protocol
type Message struct {
	Type    MessageType
	Payload interface{}
}

// ForwardPayload carries serialized ciphertexts. A request holds the
// encrypted input; a response holds one ciphertext per output neuron.
type ForwardPayload struct {
	BatchID     int
	Ciphertexts [][]byte
	Level       int
	ScaleFloat  float64
}

// Protocol handles split inference communication
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	p := &Protocol{}
	if w != nil {
		p.encoder = gob.NewEncoder(w)
	}
	if r != nil {
		p.decoder = gob.NewDecoder(r)
	}
	return p
}

// Send sends a message
func (p *Protocol) Send(msg *Message) error {
	if p.encoder == nil {
		return errors.New("protocol has no writer")
	}
	return p.encoder.Encode(msg)
}

// Receive receives a message
func (p *Protocol) Receive() (*Message, error) {
	if p.decoder == nil {
		return nil, errors.New("protocol has no reader")
	}
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendForward sends an encrypted input
func (p *Protocol) SendForward(batchID int, cts [][]byte, level int, scale float64) error {
	return p.sendForward(MsgForwardInput, batchID, cts, level, scale)
}

// SendForwardOutput answers a forward request
func (p *Protocol) SendForwardOutput(batchID int, cts [][]byte, level int, scale float64) error {
	return p.sendForward(MsgForwardOutput, batchID, cts, level, scale)
}

func (p *Protocol) sendForward(t MessageType, batchID int, cts [][]byte, level int, scale float64) error {
	return p.Send(&Message{
		Type: t,
		Payload: ForwardPayload{
			BatchID:     batchID,
			Ciphertexts: cts,
			Level:       level,
			ScaleFloat:  scale,
		},
	})
}

// SendDone signals completion
func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

// SendError sends an error message
func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// ReceiveForward receives a forward payload. MsgDone is reported as io.EOF.
func (p *Protocol) ReceiveForward() (*ForwardPayload, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	switch msg.Type {
	case MsgError:
		return nil, errors.Errorf("remote error: %v", msg.Payload)
	case MsgDone:
		return nil, io.EOF
	case MsgForwardInput, MsgForwardOutput:
	default:
		return nil, errors.Errorf("expected forward message, got %d", msg.Type)
	}
	payload, ok := msg.Payload.(ForwardPayload)
	if !ok {
		return nil, errors.New("invalid forward payload type")
	}
	return &payload, nil
}

// SerializeCiphertext encodes ct for the wire.
func SerializeCiphertext(ct *rlwe.Ciphertext) ([]byte, error) {
	b, err := ct.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshalling ciphertext")
	}
	return b, nil
}

// DeserializeCiphertext decodes a ciphertext produced by SerializeCiphertext.
func DeserializeCiphertext(b []byte) (*rlwe.Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "unmarshalling ciphertext")
	}
	return ct, nil
}
