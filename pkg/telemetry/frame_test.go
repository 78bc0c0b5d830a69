package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := Sample{DeviceID: "A1", Temperature: 23.45, Humidity: 56.70, Pressure: 1013.20, Sequence: 7}

	f := Encode(in)
	require.Len(t, f.Bytes(), FrameSize)
	assert.Equal(t, 20, FrameSize)
	assert.Equal(t, []byte{'A', '1', 0, 0}, f[:IDSize])

	out, err := Decode(f.Bytes())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeTruncatesID(t *testing.T) {
	f := Encode(Sample{DeviceID: "ABCDEF"})
	assert.Equal(t, byte(0), f[MaxIDLen], "id field must stay terminated")

	out, err := Decode(f.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "ABC", out.DeviceID)
}

func TestDecodeFullIDField(t *testing.T) {
	// A peer that fills all four id bytes still decodes
	f := Encode(Sample{Sequence: 1})
	copy(f[:IDSize], "WXYZ")

	out, err := Decode(f.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "WXYZ", out.DeviceID)
	assert.Equal(t, uint32(1), out.Sequence)
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	for _, n := range []int{0, 1, FrameSize - 1, FrameSize + 1, 250} {
		_, err := Decode(make([]byte, n))
		assert.Error(t, err, "size %d", n)
	}
}

func TestSampleValue(t *testing.T) {
	s := Sample{Temperature: 1, Humidity: 2, Pressure: 3}
	for i, m := range Metrics {
		v, ok := s.Value(m)
		require.True(t, ok)
		assert.Equal(t, float32(i+1), v)
	}
	_, ok := s.Value("x")
	assert.False(t, ok)
}
