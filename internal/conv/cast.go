package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// IntToInt32 converts v, failing if it is outside the int32 range.
func IntToInt32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit int32", ErrOverflow, v)
	}
	return int32(v), nil
}

// Int64ToInt32 converts v, failing if it is outside the int32 range.
func Int64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit int32", ErrOverflow, v)
	}
	return int32(v), nil
}

// Int32ToUint32 reinterprets the bits of v.
func Int32ToUint32(v int32) uint32 {
	return uint32(v) //nolint:gosec // bit reinterpretation
}

// Uint32ToInt32 reinterprets the bits of v.
func Uint32ToInt32(v uint32) int32 {
	return int32(v) //nolint:gosec // bit reinterpretation
}
