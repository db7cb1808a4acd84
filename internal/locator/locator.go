// Package locator enumerates candidate service identifiers.
//
// An identifier is the path of a service file relative to the folder it was
// found in, slash-joined and without the file suffix:
//
//	services/Echo.go        -> "Echo"
//	services/users/Admin.go -> "users/Admin"
package locator

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultSuffix is the service-file suffix used when Locator.Suffix is empty.
const DefaultSuffix = ".go"

// hiddenMarker prefixes directories that are never descended into.
const hiddenMarker = "."

// Locator walks service folders.
type Locator struct {
	// Suffix identifies service files. Defaults to DefaultSuffix.
	Suffix string

	// OnSkip, if set, is called for every folder that could not be read.
	// Skipped folders are not errors.
	OnSkip func(dir string, err error)
}

// Enumerate returns the identifiers of every service file under folders,
// followed by the explicit names. Folders are walked in order and entries in
// lexical order. Duplicates are kept.
func (l Locator) Enumerate(folders []string, explicit []string) []string {
	var ids []string
	for _, folder := range folders {
		ids = append(ids, l.search(folder, "")...)
	}
	return append(ids, explicit...)
}

// search lists the services in root/sub. sub is slash-separated and either
// empty or ends with a slash.
func (l Locator) search(root, sub string) []string {
	dir := filepath.Join(root, filepath.FromSlash(sub))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if l.OnSkip != nil {
			l.OnSkip(dir, err)
		}
		return nil
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, hiddenMarker) {
				continue
			}
			ids = append(ids, l.search(root, sub+name+"/")...)
			continue
		}
		if id, ok := l.identifier(sub, name); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (l Locator) identifier(sub, name string) (string, bool) {
	suffix := l.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if !strings.HasSuffix(name, suffix) || strings.HasSuffix(name, "_test.go") {
		return "", false
	}
	// Files the go tool ignores.
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return "", false
	}
	base := strings.TrimSuffix(name, suffix)
	if base == "" {
		return "", false
	}
	return path.Join(sub, base), true
}
