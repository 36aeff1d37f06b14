// Package grid holds the coordinate math for the bounded token grid.
package grid

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Coord is a position in the grid. Value type; equality is structural.
type Coord struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

// Bytes returns the 24-byte big-endian key form used by position indexes.
func (c Coord) Bytes() []byte {
	b := make([]byte, 24)
	binary.BigEndian.PutUint64(b[0:8], uint64(c.X))
	binary.BigEndian.PutUint64(b[8:16], uint64(c.Y))
	binary.BigEndian.PutUint64(b[16:24], uint64(c.Z))
	return b
}

// absDiff is exact for any pair of int64s; the result always fits in uint64.
func absDiff(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// Manhattan returns the L1 distance between a and b: the sum of per-axis
// absolute differences. The sum can exceed uint64 for coordinates near the
// int64 extremes, so accumulation is carry-checked and fails instead of
// wrapping.
func Manhattan(a, b Coord) (uint64, error) {
	d, carry := bits.Add64(absDiff(a.X, b.X), absDiff(a.Y, b.Y), 0)
	if carry != 0 {
		return 0, fmt.Errorf("distance between %s and %s overflows", a, b)
	}
	d, carry = bits.Add64(d, absDiff(a.Z, b.Z), 0)
	if carry != 0 {
		return 0, fmt.Errorf("distance between %s and %s overflows", a, b)
	}
	return d, nil
}

// CheckBounds requires every axis of c to lie in the closed interval
// [-max, max].
func CheckBounds(c Coord, max int64) error {
	min := -max
	for _, v := range [3]int64{c.X, c.Y, c.Z} {
		if v < min || v > max {
			return fmt.Errorf("coordinate values must be between %d and %d", min, max)
		}
	}
	return nil
}
