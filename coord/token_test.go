package coord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueTokenShape(t *testing.T) {
	token := uniqueToken("client-1")
	parts := strings.SplitN(token, ":", 2)
	assert.Len(t, parts, 2)
	assert.Equal(t, "client-1", parts[0])
	assert.Len(t, parts[1], 9)
}

func TestUniqueTokenIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		tok := uniqueToken("client-1")
		_, dup := seen[tok]
		assert.False(t, dup, "unexpected duplicate token %q", tok)
		seen[tok] = struct{}{}
	}
}
