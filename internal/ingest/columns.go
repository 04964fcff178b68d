package ingest

import (
	"fmt"
	"strings"

	"taxrecon/internal/normalize"
)

// normalizeHeader maps raw header cells to normalized, unique column names.
func normalizeHeader(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		name := normalize.ColumnName(h)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

type matcher func(column string) bool

func firstColumn(columns []string, match matcher) string {
	for _, c := range columns {
		if match(c) {
			return c
		}
	}
	return ""
}

func firstIndex(columns []string, match matcher) int {
	for i, c := range columns {
		if match(c) {
			return i
		}
	}
	return -1
}

func equalsAny(names ...string) matcher {
	return func(c string) bool {
		for _, n := range names {
			if c == n {
				return true
			}
		}
		return false
	}
}

func containsAny(parts ...string) matcher {
	return func(c string) bool {
		for _, p := range parts {
			if strings.Contains(c, p) {
				return true
			}
		}
		return false
	}
}

func hasToken(tokens ...string) matcher {
	return func(c string) bool {
		for _, part := range strings.Split(c, "_") {
			for _, t := range tokens {
				if part == t {
					return true
				}
			}
		}
		return false
	}
}

func all(ms ...matcher) matcher {
	return func(c string) bool {
		for _, m := range ms {
			if !m(c) {
				return false
			}
		}
		return true
	}
}

func anyOf(ms ...matcher) matcher {
	return func(c string) bool {
		for _, m := range ms {
			if m(c) {
				return true
			}
		}
		return false
	}
}
