package coord

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// uniqueToken builds a "<clientID>:<rand9>" identity string used to prove
// ownership of a barrier, leader-election, or counted-barrier key: every
// CAS winner writes its own token as the value, and a later read-back
// confirms whether this instance (and not a racing one) actually won. The
// random suffix is the first 9 hex characters of a fresh UUIDv4, the same
// generator testkit.NewID uses for test key suffixes.
func uniqueToken(clientID string) string {
	return fmt.Sprintf("%s:%s", clientID, randomSuffix())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
}
