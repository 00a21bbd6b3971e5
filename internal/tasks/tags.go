package tasks

import "strings"

// ParseTags splits comma-separated tag text, trimming each segment and
// dropping empty ones. Order and duplicates are preserved.
func ParseTags(input string) []string {
	return NormalizeTags(strings.Split(input, ","))
}

// NormalizeTags trims tags and drops empty strings
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
