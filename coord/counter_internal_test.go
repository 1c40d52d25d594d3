package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt64EncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		encoded := encodeInt64(v)
		assert.Len(t, encoded, 8)
		assert.Equal(t, v, decodeInt64([]byte(encoded)))
	}
}

func TestDecodeInt64RejectsWrongWidth(t *testing.T) {
	assert.Equal(t, int64(0), decodeInt64([]byte("short")))
	assert.Equal(t, int64(0), decodeInt64(nil))
}
