// Package ckkswrapper bundles the CKKS parameters and keys used for encrypted
// split inference.
package ckkswrapper

import (
	"math"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// DefaultLogN is the ring degree used by NewHeContext. 2^13 with a 180-bit
// modulus chain stays within the 128-bit security bound.
const DefaultLogN = 13

// HeContext is the key holder's side: it can encrypt and decrypt, and it
// issues evaluation keys to the server.
type HeContext struct {
	Params    hefloat.Parameters
	Encoder   *hefloat.Encoder
	Encryptor *rlwe.Encryptor
	Decryptor *rlwe.Decryptor

	kgen *rlwe.KeyGenerator
	sk   *rlwe.SecretKey
	rlk  *rlwe.RelinearizationKey
}

// ServerKit is what the evaluating party holds: public parameters, an encoder
// for plaintext weights and an evaluator with the keys it was issued.
type ServerKit struct {
	Params    hefloat.Parameters
	Encoder   *hefloat.Encoder
	Evaluator *hefloat.Evaluator
}

func NewHeContext() (*HeContext, error) {
	return NewHeContextWithLogN(DefaultLogN)
}

func NewHeContextWithLogN(logN int) (*HeContext, error) {
	params, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
		LogN:            logN,
		LogQ:            []int{55, 40, 40},
		LogP:            []int{45},
		LogDefaultScale: 40,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating CKKS parameters for logN=%d", logN)
	}

	kgen := hefloat.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()

	return &HeContext{
		Params:    params,
		Encoder:   hefloat.NewEncoder(params),
		Encryptor: hefloat.NewEncryptor(params, pk),
		Decryptor: hefloat.NewDecryptor(params, sk),
		kgen:      kgen,
		sk:        sk,
		rlk:       kgen.GenRelinearizationKeyNew(sk),
	}, nil
}

// GenServerKit issues a relinearization key and one Galois key per rotation.
func (h *HeContext) GenServerKit(rotations []int) *ServerKit {
	galEls := make([]uint64, len(rotations))
	for i, k := range rotations {
		galEls[i] = h.Params.GaloisElement(k)
	}
	evk := rlwe.NewMemEvaluationKeySet(h.rlk, h.kgen.GenGaloisKeysNew(galEls, h.sk)...)

	return &ServerKit{
		Params:    h.Params,
		Encoder:   hefloat.NewEncoder(h.Params),
		Evaluator: hefloat.NewEvaluator(h.Params, evk),
	}
}

// InnerSumRotations returns the left rotations that fold the first n slots
// of a ciphertext into slot 0.
func InnerSumRotations(n int) []int {
	var rots []int
	for k := 1; k < n; k *= 2 {
		rots = append(rots, k)
	}
	return rots
}

// EncryptVector encodes v into the first len(v) slots at the top level and
// encrypts it. The remaining slots are zero.
func (h *HeContext) EncryptVector(v []float64) (*rlwe.Ciphertext, error) {
	if len(v) > h.Params.MaxSlots() {
		return nil, errors.Errorf("vector of %d values exceeds %d slots", len(v), h.Params.MaxSlots())
	}
	pt := hefloat.NewPlaintext(h.Params, h.Params.MaxLevel())
	if err := h.Encoder.Encode(v, pt); err != nil {
		return nil, errors.Wrap(err, "encoding vector")
	}
	ct, err := h.Encryptor.EncryptNew(pt)
	if err != nil {
		return nil, errors.Wrap(err, "encrypting vector")
	}
	return ct, nil
}

// DecryptVector returns the real parts of the first n slots of ct.
func (h *HeContext) DecryptVector(ct *rlwe.Ciphertext, n int) ([]float64, error) {
	if n > h.Params.MaxSlots() {
		return nil, errors.Errorf("cannot read %d values from %d slots", n, h.Params.MaxSlots())
	}
	decoded := make([]complex128, h.Params.MaxSlots())
	if err := h.Encoder.Decode(h.Decryptor.DecryptNew(ct), decoded); err != nil {
		return nil, errors.Wrap(err, "decoding ciphertext")
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = real(decoded[i])
	}
	return out, nil
}

// Divergence decrypts ct and returns the largest absolute difference between
// its first len(shadow) slots and the plaintext shadow values.
func (h *HeContext) Divergence(ct *rlwe.Ciphertext, shadow []float64) (float64, error) {
	got, err := h.DecryptVector(ct, len(shadow))
	if err != nil {
		return 0, err
	}
	maxDiff := 0.0
	for i := range shadow {
		maxDiff = math.Max(maxDiff, math.Abs(got[i]-shadow[i]))
	}
	return maxDiff, nil
}
