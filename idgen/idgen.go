// Package idgen issues the sequential public identifiers handed to users
// at signup (BLIND001, Guardian001, ...).
package idgen

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	BlindPrefix    = "BLIND"
	GuardianPrefix = "Guardian"
)

// Next derives the identifier following last. An empty or unparsable last
// yields the first id of the sequence. The numeric part is padded to three
// digits but keeps growing past 999.
func Next(prefix, last string) string {
	n := 0
	if last != "" {
		rest := strings.TrimPrefix(last, prefix)
		if v, err := strconv.Atoi(rest); err == nil {
			n = v
		}
	}
	return fmt.Sprintf("%s%03d", prefix, n+1)
}
