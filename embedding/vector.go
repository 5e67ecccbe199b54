package embedding

import (
	"encoding/binary"
	"math"

	"github.com/julielab/jcore/errors"
)

// Average returns the element-wise mean of vectors, which must all have the
// same length. The mean of no vectors is nil.
func Average(vectors [][]float64) ([]float64, error) {
	var c Centroid
	for _, v := range vectors {
		if err := c.Add(v); err != nil {
			return nil, err
		}
	}
	return c.Mean(), nil
}

// Centroid accumulates a running sum so a mean can be taken without
// keeping every vector.
type Centroid struct {
	sum   []float64
	count int
}

// NewCentroid restores an accumulator from a stored sum and count.
func NewCentroid(sum []float64, count int) *Centroid {
	return &Centroid{sum: append([]float64(nil), sum...), count: count}
}

// Add includes v in the mean.
func (c *Centroid) Add(v []float64) error {
	if c.count == 0 {
		c.sum = append(c.sum[:0], v...)
		c.count = 1
		return nil
	}
	if len(v) != len(c.sum) {
		return errors.NewInvalidRequestError("vector length %d does not match %d", len(v), len(c.sum))
	}
	for i, x := range v {
		c.sum[i] += x
	}
	c.count++
	return nil
}

// Count is the number of vectors added.
func (c *Centroid) Count() int { return c.count }

// Sum returns a copy of the running sum.
func (c *Centroid) Sum() []float64 { return append([]float64(nil), c.sum...) }

// Mean returns the element-wise mean, or nil if nothing was added.
func (c *Centroid) Mean() []float64 {
	if c.count == 0 {
		return nil
	}
	mean := make([]float64, len(c.sum))
	n := float64(c.count)
	for i, x := range c.sum {
		mean[i] = x / n
	}
	return mean
}

// Reset empties the accumulator, keeping its storage.
func (c *Centroid) Reset() {
	c.sum = c.sum[:0]
	c.count = 0
}

// MarshalVector encodes v as consecutive big-endian float64 values.
func MarshalVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return buf
}

// UnmarshalVector decodes a blob written by MarshalVector.
func UnmarshalVector(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, errors.Newf("invalid vector blob length: %d", len(data))
	}
	v := make([]float64, len(data)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
	}
	return v, nil
}
