// Package slug builds the external identifiers used in URLs instead of row IDs.
// A slug is a lower-cased base name followed by a time-ordered snowflake suffix.
package slug

import (
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	mu   sync.Mutex
)

// Init sets the snowflake node ID (0-1023). Each running instance needs its own.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

func getNode() *snowflake.Node {
	mu.Lock()
	defer mu.Unlock()
	if node == nil {
		// Node 0 is always valid.
		node, _ = snowflake.NewNode(0)
	}
	return node
}

// New returns base lower-cased and hyphenated, followed by a unique suffix.
func New(base string) string {
	return Join(base, Suffix())
}

// Suffix returns a fresh time-mixed identifier in base36.
func Suffix() string {
	return getNode().Generate().Base36()
}

// Join builds a slug from parts, lower-casing and replacing whitespace with hyphens.
// Empty parts are skipped.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.Join(strings.Fields(p), "-"))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "-")
}
