// Package catalog loads the model pool the assigner draws from.
//
// The pool file is a plain JSON array of model ids, e.g.
// ["gpt-alpha", "claude-beta", "gemini-gamma"].
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadPool reads the pool file at path. Entries are deduplicated and
// blank ids dropped, preserving first-seen order.
func LoadPool(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model pool: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model pool %s: %w", path, err)
	}
	return Normalize(raw), nil
}

// Normalize trims, drops blanks and deduplicates while keeping order.
func Normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
