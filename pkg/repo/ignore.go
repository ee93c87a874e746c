package repo

import (
	"path"
	"regexp"
	"strings"

	"github.com/odvcencio/mgit/pkg/vfs"
)

// IgnoreFileName is read from the working tree root.
const IgnoreFileName = ".mgitignore"

// IgnoreChecker decides whether a working-tree path is excluded from add,
// write-tree and status.
//
// Pattern syntax per line: blank lines and "#" comments are skipped, a
// leading "!" re-includes, a trailing "/" restricts the pattern to
// directories, a pattern with a leading or inner "/" matches the full
// relative path and any other pattern matches the base name. "*", "?" and "[...]" glob within
// one component; "**" spans components. The last matching pattern wins.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern string
	negated bool
	dirOnly bool
	anchor  bool // contains a slash: match against the full path
	regex   *regexp.Regexp
}

// NewIgnoreChecker builds a checker from the .mgitignore file at the root of
// work, if any. The metadata directory is always ignored.
func NewIgnoreChecker(work vfs.FS) *IgnoreChecker {
	ic := &IgnoreChecker{
		patterns: []ignorePattern{{pattern: MetaDirName, dirOnly: true}},
	}
	data, err := work.ReadFile(IgnoreFileName)
	if err == nil {
		ic.AddPatterns(string(data))
	}
	return ic
}

// AddPatterns appends the patterns of an ignore file body.
func (ic *IgnoreChecker) AddPatterns(body string) {
	for _, line := range strings.Split(body, "\n") {
		if p, ok := parseIgnoreLine(line); ok {
			ic.patterns = append(ic.patterns, p)
		}
	}
}

func parseIgnoreLine(line string) (ignorePattern, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignorePattern{}, false
	}

	var p ignorePattern
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	rooted := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignorePattern{}, false
	}

	p.anchor = rooted || strings.Contains(line, "/")
	p.pattern = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p, true
}

// IsIgnored reports whether the slash-separated relative file path is
// excluded. A path inside an ignored directory is ignored.
func (ic *IgnoreChecker) IsIgnored(rel string) bool {
	return ic.check(rel, false)
}

// IsIgnoredDir is like IsIgnored for a directory, where dir-only patterns
// may match the directory itself.
func (ic *IgnoreChecker) IsIgnoredDir(rel string) bool {
	return ic.check(rel, true)
}

func (ic *IgnoreChecker) check(rel string, isDir bool) bool {
	rel = vfs.Clean(rel)
	if rel == "." {
		return false
	}
	ignored := false
	for _, p := range ic.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negated
		}
	}
	return ignored
}

func (p ignorePattern) matches(rel string, isDir bool) bool {
	// Directory patterns cover everything beneath the directory.
	components := strings.Split(rel, "/")
	last := len(components)
	if !isDir {
		last--
	}
	for i := 1; i <= last; i++ {
		if p.matchOne(strings.Join(components[:i], "/"), components[i-1]) {
			return true
		}
	}
	if p.dirOnly {
		return false
	}
	return p.matchOne(rel, components[len(components)-1])
}

func (p ignorePattern) matchOne(full, base string) bool {
	target := base
	if p.anchor {
		target = full
	}
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	ok, _ := path.Match(p.pattern, target)
	return ok
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return b.String()
}
