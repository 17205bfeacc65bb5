package order

import "strings"

// ParseSerialBatch splits pasted text into serial numbers: one per line,
// trimmed, blank lines dropped, repeats removed keeping the first occurrence.
// An input with no serials returns ErrEmptyBatch.
func ParseSerialBatch(text string) ([]string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	serials := DedupeSerials(strings.Split(text, "\n"))
	if len(serials) == 0 {
		return nil, ErrEmptyBatch
	}
	return serials, nil
}

// DedupeSerials trims each value, drops empties and removes repeats while
// preserving first-occurrence order.
func DedupeSerials(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
