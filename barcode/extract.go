package barcode

import (
	"fmt"
)

// extractBits reads codeBits bits from the interior of a marker pair.
// The interior runs from the end of the start marker to the onset of the end
// marker and is split into equal windows; each bit is its window's majority.
// The first window is the most significant bit.
func extractBits(values []uint8, interiorStart, interiorEnd, codeBits int) (uint32, error) {
	length := interiorEnd - interiorStart
	if length < codeBits {
		return 0, fmt.Errorf("interior of %d samples cannot hold %d bit windows", length, codeBits)
	}

	var code uint32
	for bit := 0; bit < codeBits; bit++ {
		lo := interiorStart + bit*length/codeBits
		hi := interiorStart + (bit+1)*length/codeBits
		if hi <= lo {
			return 0, fmt.Errorf("bit %d window is empty", bit)
		}

		ones := 0
		for _, v := range values[lo:hi] {
			ones += int(v)
		}
		size := hi - lo

		code <<= 1
		switch {
		case 2*ones > size:
			code |= 1
		case 2*ones == size:
			return 0, fmt.Errorf("bit %d window is ambiguous (%d of %d samples high)", bit, ones, size)
		}
	}

	return code, nil
}
