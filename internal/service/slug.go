package service

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of non [a-z0-9] characters into a
// single hyphen and trims hyphens from both ends.
func Slugify(s string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}
