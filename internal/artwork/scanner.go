package artwork

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Extensions lists the clip-art file suffixes picked up by a scan.
var Extensions = []string{".png", ".jpg", ".gif", ".svg"}

// Scanner finds artwork one and two directory levels below an activities root,
// i.e. root/*/*.ext and root/*/*/*.ext.
type Scanner struct {
	fs   billy.Filesystem
	root string
}

func NewScanner(fs billy.Filesystem, root string) *Scanner {
	return &Scanner{
		fs:   fs,
		root: root,
	}
}

func (s *Scanner) Root() string {
	return s.root
}

// Scan returns the matching paths in filesystem order. A missing root yields
// an empty result. Wildcards never match names starting with a dot.
func (s *Scanner) Scan() []string {
	var paths []string
	for _, ext := range Extensions {
		for _, pattern := range s.patterns(ext) {
			matches, err := util.Glob(s.fs, pattern)
			if err != nil {
				slog.Debug("Scanner: glob failed", "pattern", pattern, "error", err)
				continue
			}
			for _, match := range matches {
				if s.hidden(match) {
					continue
				}
				paths = append(paths, match)
			}
		}
	}

	slog.Debug("Scanner: scan complete", "root", s.root, "matches", len(paths))
	return paths
}

func (s *Scanner) patterns(ext string) []string {
	return []string{
		filepath.Join(s.root, "*", "*"+ext),
		filepath.Join(s.root, "*", "*", "*"+ext),
	}
}

// hidden reports whether a wildcard-matched component of path below the root
// starts with a dot.
func (s *Scanner) hidden(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
