package split

import (
	"ffnn/core/ckkswrapper"
	"ffnn/m"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// LinearCipher evaluates weights·x + biases on an encrypted column x packed
// in the first weights.Cols() slots of ct. It returns one ciphertext per row
// whose slot 0 holds that row's pre-activation. The kit needs the rotations
// from ckkswrapper.InnerSumRotations(weights.Cols()).
func LinearCipher(kit *ckkswrapper.ServerKit, ct *rlwe.Ciphertext, weights, biases m.Matrix) ([]*rlwe.Ciphertext, error) {
	rows, cols := weights.Dims()
	if rows == 0 || biases.Rows() != rows || biases.Cols() != 1 {
		return nil, errors.Wrapf(m.ErrDimensionMismatch, "weights %dx%d with biases %dx%d", rows, cols, biases.Rows(), biases.Cols())
	}
	if cols > kit.Params.MaxSlots() {
		return nil, errors.Errorf("%d inputs exceed %d slots", cols, kit.Params.MaxSlots())
	}
	if ct.Level() < 1 {
		return nil, errors.New("ciphertext has no level left to rescale")
	}

	eval := kit.Evaluator
	rots := ckkswrapper.InnerSumRotations(cols)
	out := make([]*rlwe.Ciphertext, rows)
	for j, row := range weights.Data() {
		pt := hefloat.NewPlaintext(kit.Params, ct.Level())
		if err := kit.Encoder.Encode(row, pt); err != nil {
			return nil, errors.Wrapf(err, "encoding row %d", j)
		}

		acc, err := eval.MulNew(ct, pt)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", j)
		}
		if err := eval.Rescale(acc, acc); err != nil {
			return nil, errors.Wrapf(err, "rescaling row %d", j)
		}
		for _, k := range rots {
			rotated, err := eval.RotateNew(acc, k)
			if err != nil {
				return nil, errors.Wrapf(err, "rotating row %d by %d", j, k)
			}
			if err := eval.Add(acc, rotated, acc); err != nil {
				return nil, errors.Wrapf(err, "row %d", j)
			}
		}
		if err := eval.Add(acc, biases.At(j, 0), acc); err != nil {
			return nil, errors.Wrapf(err, "adding bias %d", j)
		}
		out[j] = acc
	}
	return out, nil
}
