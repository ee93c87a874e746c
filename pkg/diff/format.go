package diff

import (
	"fmt"
	"io"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// Hunk is a run of edits with its surrounding context. Starts are 1-based
// line numbers; a zero-length side reports the line before the hunk.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Edits              []Edit
}

// FileDiff holds the line-level changes to a single path.
type FileDiff struct {
	Path    string
	OldMode string // empty when the path is added
	NewMode string // empty when the path is deleted
	OldHash string
	NewHash string
	Binary  bool
	Hunks   []Hunk
}

// Added reports whether the path did not exist before.
func (d *FileDiff) Added() bool { return d.OldMode == "" }

// Deleted reports whether the path no longer exists.
func (d *FileDiff) Deleted() bool { return d.NewMode == "" }

// Compare builds the FileDiff for one path. Either side may be nil when the
// path is absent from it; the caller fills modes and hashes.
func Compare(path string, before, after []byte, context int) *FileDiff {
	d := &FileDiff{Path: path}
	if IsBinary(before) || IsBinary(after) {
		d.Binary = true
		return d
	}
	d.Hunks = Hunks(Lines(SplitLines(before), SplitLines(after)), context)
	return d
}

// Hunks groups an edit script into hunks, keeping up to context unchanged
// lines around each change. Changes separated by at most 2*context
// unchanged lines share a hunk.
func Hunks(edits []Edit, context int) []Hunk {
	if context < 0 {
		context = 0
	}
	var hunks []Hunk
	oldLine, newLine := 1, 1
	var cur *Hunk
	trailing := 0

	flush := func() {
		if cur == nil {
			return
		}
		if trailing > context {
			cur.Edits = cur.Edits[:len(cur.Edits)-(trailing-context)]
		}
		for _, e := range cur.Edits {
			if e.Op != Insert {
				cur.OldLines++
			}
			if e.Op != Delete {
				cur.NewLines++
			}
		}
		if cur.OldLines == 0 {
			cur.OldStart--
		}
		if cur.NewLines == 0 {
			cur.NewStart--
		}
		hunks = append(hunks, *cur)
		cur = nil
	}

	for i, e := range edits {
		if e.Op == Equal {
			if cur != nil {
				trailing++
				cur.Edits = append(cur.Edits, e)
				if trailing > 2*context {
					flush()
				}
			}
			oldLine++
			newLine++
			continue
		}
		if cur == nil {
			lead := 0
			for j := i - 1; j >= 0 && lead < context && edits[j].Op == Equal; j-- {
				lead++
			}
			cur = &Hunk{OldStart: oldLine - lead, NewStart: newLine - lead}
			cur.Edits = append(cur.Edits, edits[i-lead:i]...)
		}
		trailing = 0
		cur.Edits = append(cur.Edits, e)
		if e.Op == Delete {
			oldLine++
		} else {
			newLine++
		}
	}
	flush()
	return hunks
}

// Format writes d in unified diff form.
func Format(w io.Writer, d *FileDiff) error {
	var b strings.Builder
	fmt.Fprintf(&b, "diff --mgit a/%s b/%s\n", d.Path, d.Path)
	switch {
	case d.Added():
		fmt.Fprintf(&b, "new file mode %s\n", d.NewMode)
	case d.Deleted():
		fmt.Fprintf(&b, "deleted file mode %s\n", d.OldMode)
	case d.OldMode != d.NewMode:
		fmt.Fprintf(&b, "old mode %s\nnew mode %s\n", d.OldMode, d.NewMode)
	}
	if d.OldHash != "" || d.NewHash != "" {
		fmt.Fprintf(&b, "index %s..%s\n", short(d.OldHash), short(d.NewHash))
	}

	oldName, newName := "a/"+d.Path, "b/"+d.Path
	if d.Added() {
		oldName = "/dev/null"
	}
	if d.Deleted() {
		newName = "/dev/null"
	}
	if d.Binary {
		fmt.Fprintf(&b, "Binary files %s and %s differ\n", oldName, newName)
	} else if len(d.Hunks) > 0 {
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", oldName, newName)
		for _, h := range d.Hunks {
			fmt.Fprintf(&b, "@@ -%s +%s @@\n", span(h.OldStart, h.OldLines), span(h.NewStart, h.NewLines))
			for _, e := range h.Edits {
				switch e.Op {
				case Equal:
					b.WriteByte(' ')
				case Insert:
					b.WriteByte('+')
				case Delete:
					b.WriteByte('-')
				}
				b.WriteString(e.Line)
				b.WriteByte('\n')
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func span(start, n int) string {
	if n == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, n)
}

func short(h string) string {
	if h == "" {
		return "0000000"
	}
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
