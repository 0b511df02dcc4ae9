package datum

import (
	"encoding/binary"
	"math"
)

// le is the fixed little-endian byte order used by every on-disk layout
// in this package, matching internal/storage's convention.
var le = binary.LittleEndian

func float32bits(f float32) uint32      { return math.Float32bits(f) }
func float32frombits(b uint32) float32  { return math.Float32frombits(b) }
