package split

import (
	"bytes"
	"io"
	"testing"
)

func TestProtocolRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	cts := [][]byte{[]byte("first ciphertext"), []byte("second ciphertext")}
	err := writer.SendForward(1, cts, 2, 1.234)
	if err != nil {
		t.Fatalf("SendForward failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	payload, err := reader.ReceiveForward()
	if err != nil {
		t.Fatalf("ReceiveForward failed: %v", err)
	}

	if payload.BatchID != 1 {
		t.Errorf("BatchID = %d, want 1", payload.BatchID)
	}
	if payload.Level != 2 {
		t.Errorf("Level = %d, want 2", payload.Level)
	}
	if payload.ScaleFloat != 1.234 {
		t.Errorf("ScaleFloat = %f, want 1.234", payload.ScaleFloat)
	}
	if len(payload.Ciphertexts) != len(cts) {
		t.Fatalf("got %d ciphertexts, want %d", len(payload.Ciphertexts), len(cts))
	}
	for i := range cts {
		if !bytes.Equal(payload.Ciphertexts[i], cts[i]) {
			t.Errorf("Ciphertext %d mismatch", i)
		}
	}
}

func TestProtocolForwardOutput(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	if err := writer.SendForwardOutput(42, [][]byte{[]byte("neuron")}, 1, 2.5); err != nil {
		t.Fatalf("SendForwardOutput failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	msg, err := reader.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if msg.Type != MsgForwardOutput {
		t.Errorf("Type = %d, want %d", msg.Type, MsgForwardOutput)
	}
	payload, ok := msg.Payload.(ForwardPayload)
	if !ok {
		t.Fatalf("Payload is %T", msg.Payload)
	}
	if payload.BatchID != 42 {
		t.Errorf("BatchID = %d, want 42", payload.BatchID)
	}
}

func TestProtocolDone(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	err := writer.SendDone()
	if err != nil {
		t.Fatalf("SendDone failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	_, err = reader.ReceiveForward()
	if err != io.EOF {
		t.Errorf("Expected io.EOF after done, got %v", err)
	}
}

func TestProtocolError(t *testing.T) {
	var buf bytes.Buffer
	writer := NewProtocol(nil, &buf)

	err := writer.SendError(io.ErrUnexpectedEOF)
	if err != nil {
		t.Fatalf("SendError failed: %v", err)
	}

	reader := NewProtocol(&buf, nil)
	_, err = reader.ReceiveForward()
	if err == nil {
		t.Errorf("Expected error after SendError")
	}
}

func TestProtocolWithoutStreams(t *testing.T) {
	p := NewProtocol(nil, nil)
	if err := p.SendDone(); err == nil {
		t.Errorf("Expected error sending without a writer")
	}
	if _, err := p.Receive(); err == nil {
		t.Errorf("Expected error receiving without a reader")
	}
}

func TestMessageTypes(t *testing.T) {
	if MsgForwardInput != 0 {
		t.Errorf("MsgForwardInput = %d, want 0", MsgForwardInput)
	}
	if MsgForwardOutput != 1 {
		t.Errorf("MsgForwardOutput = %d, want 1", MsgForwardOutput)
	}
	if MsgDone != 2 {
		t.Errorf("MsgDone = %d, want 2", MsgDone)
	}
	if MsgError != 3 {
		t.Errorf("MsgError = %d, want 3", MsgError)
	}
}
