package editor

import (
	"regexp"
	"strings"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reNonWord    = regexp.MustCompile(`[^\w-]+`)
	reDashes     = regexp.MustCompile(`--+`)
)

// Slugify lowercases s, turns whitespace runs into dashes and drops everything that is not a
// word character or a dash.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reWhitespace.ReplaceAllString(s, "-")
	s = reNonWord.ReplaceAllString(s, "")
	s = reDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ParseTags splits a comma separated list. Blank entries are dropped.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func FormatTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// htmlFilename is the asset name of the exported page of slug.
func htmlFilename(slug string) string {
	return strings.ToLower(reWhitespace.ReplaceAllString(slug, "-")) + "-post.html"
}
