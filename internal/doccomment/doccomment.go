// Package doccomment extracts type hints from documentation comments.
//
// Hints are tag annotations in the comment body:
//
//	// Find looks up a user.
//	// @param string $name
//	// @return User
//
// Parsing is lenient: a tag without enough words is ignored and never
// reported as an error.
package doccomment

import "strings"

// Comment holds the type hints found in a doc comment.
type Comment struct {
	// Return is the type named by the last well-formed return tag, or "".
	Return string

	// Params maps parameter names to their hinted types. Never nil.
	Params map[string]string
}

// tagMarker separates tag fragments in a comment body.
const tagMarker = "@"

// sigil is stripped from the front of parameter names ($name -> name).
const sigil = "$"

// Parse extracts parameter and return type hints from a raw doc comment.
// Both block (/** ... */) and line (// ...) comments are accepted.
func Parse(raw string) Comment {
	c := Comment{Params: make(map[string]string)}

	for _, fragment := range strings.Split(strip(raw), tagMarker) {
		words := strings.Fields(fragment)
		if len(words) == 0 {
			continue
		}
		keyword := strings.ToLower(words[0])
		switch {
		case strings.HasPrefix(keyword, "param"):
			if len(words) < 3 {
				continue
			}
			c.Params[strings.TrimPrefix(words[2], sigil)] = words[1]
		case strings.HasPrefix(keyword, "return"):
			if len(words) < 2 {
				continue
			}
			c.Return = words[1]
		}
	}
	return c
}

// strip removes comment delimiters and leading line markers.
func strip(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, "*/")
		for _, prefix := range []string{"/**", "/*", "//", "*"} {
			if strings.HasPrefix(line, prefix) {
				line = strings.TrimPrefix(line, prefix)
				break
			}
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
