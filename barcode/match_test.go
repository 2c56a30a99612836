package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerTemplate(t *testing.T) {
	p := DefaultParams()

	tpl := MarkerTemplate(p, 1000)
	require.Len(t, tpl, 60)
	assert.Equal(t, uint8(1), tpl[0])
	assert.Equal(t, uint8(1), tpl[14])
	assert.Equal(t, uint8(0), tpl[15])
	assert.Equal(t, uint8(1), tpl[30])
	assert.Equal(t, uint8(0), tpl[59])

	// round(0.015 * 333) = 5 samples per segment
	assert.Len(t, MarkerTemplate(p, 333), 20)

	assert.Nil(t, MarkerTemplate(p, 20))
}

func TestMatchTemplate(t *testing.T) {
	tpl := []uint8{1, 1, 0, 0, 1, 1, 0, 0}

	t.Run("finds exact occurrence", func(t *testing.T) {
		values := []uint8{0, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 0, 0}
		assert.Equal(t, []int{3}, MatchTemplate(values, tpl))
	})

	t.Run("partial agreement is not a match", func(t *testing.T) {
		values := []uint8{0, 1, 1, 0, 0, 1, 0, 0, 0, 0}
		assert.Empty(t, MatchTemplate(values, tpl))
	})

	t.Run("marker at the very end is evaluated", func(t *testing.T) {
		values := []uint8{0, 0, 1, 1, 0, 0, 1, 1, 0, 0}
		assert.Equal(t, []int{2}, MatchTemplate(values, tpl))
	})

	t.Run("marker cut by the channel edges never matches", func(t *testing.T) {
		head := []uint8{1, 0, 0, 1, 1, 0, 0, 0, 0, 0}
		tail := []uint8{0, 0, 0, 0, 1, 1, 0, 0, 1, 1}
		assert.Empty(t, MatchTemplate(head, tpl))
		assert.Empty(t, MatchTemplate(tail, tpl))
	})

	t.Run("channel shorter than template", func(t *testing.T) {
		assert.Nil(t, MatchTemplate([]uint8{1, 1, 0}, tpl))
		assert.Nil(t, MatchTemplate([]uint8{1, 1, 0}, nil))
	})
}

func TestOnsets(t *testing.T) {
	tests := []struct {
		name    string
		matches []int
		spacing float64
		want    []int
	}{
		{name: "empty", matches: nil, spacing: 500, want: nil},
		{name: "single", matches: []int{42}, spacing: 500, want: []int{42}},
		{name: "adjacent offsets collapse to earliest", matches: []int{100, 101, 102, 1100}, spacing: 500, want: []int{100, 1100}},
		{name: "chained jitter stays one onset", matches: []int{0, 300, 600, 900}, spacing: 500, want: []int{0}},
		{name: "exact spacing starts a new onset", matches: []int{0, 500}, spacing: 500, want: []int{0, 500}},
		{name: "zero spacing keeps everything", matches: []int{1, 2, 3}, spacing: 0, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Onsets(tt.matches, tt.spacing))
		})
	}
}

func TestPairer(t *testing.T) {
	pr := newPairer(DefaultParams(), 1000, 60)

	t.Run("pairs in order and reports strays", func(t *testing.T) {
		// stray, pair, pair, trailing start
		onsets := []int{0, 3000, 4020, 8000, 9020, 13000}
		pairs, unpaired := pr.pair(onsets)
		assert.Equal(t, []markerPair{{start: 3000, end: 4020}, {start: 8000, end: 9020}}, pairs)
		assert.Equal(t, []int{0, 13000}, unpaired)
	})

	t.Run("tolerance is strict", func(t *testing.T) {
		assert.True(t, pr.matches(0, 1020))
		assert.False(t, pr.matches(0, 1019))
		assert.False(t, pr.matches(0, 1021))
	})

	t.Run("fractional payload length", func(t *testing.T) {
		// 960 ms at 333 Hz is 319.68 samples
		at333 := newPairer(DefaultParams(), 333, 20)
		assert.True(t, at333.matches(0, 340))
		assert.True(t, at333.matches(0, 339))
		assert.False(t, at333.matches(0, 341))
	})
}

func TestExtractBits(t *testing.T) {
	build := func(bits []uint8, width int) []uint8 {
		var values []uint8
		for _, b := range bits {
			for i := 0; i < width; i++ {
				values = append(values, b)
			}
		}
		return values
	}

	t.Run("most significant bit first", func(t *testing.T) {
		values := build([]uint8{1, 0, 1, 1}, 3)
		code, err := extractBits(values, 0, len(values), 4)
		require.NoError(t, err)
		assert.Equal(t, uint32(0b1011), code)
	})

	t.Run("majority tolerates edge samples", func(t *testing.T) {
		values := build([]uint8{1, 0}, 5)
		values[4] = 0 // last sample of the first window flipped
		code, err := extractBits(values, 0, len(values), 2)
		require.NoError(t, err)
		assert.Equal(t, uint32(0b10), code)
	})

	t.Run("empty windows", func(t *testing.T) {
		_, err := extractBits(make([]uint8, 10), 0, 3, 4)
		assert.Error(t, err)
	})

	t.Run("tied window", func(t *testing.T) {
		values := []uint8{1, 0, 1, 1}
		_, err := extractBits(values, 0, 4, 2)
		assert.ErrorContains(t, err, "ambiguous")
	})
}
