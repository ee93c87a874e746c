package diff

import (
	"bytes"
	"strings"
)

// Op classifies a line in an edit script.
type Op int

const (
	Equal  Op = iota // line is present in both revisions
	Insert           // line is present in the after revision only
	Delete           // line is present in the before revision only
)

// Edit is a single step of an edit script produced by Lines.
type Edit struct {
	Op   Op
	Line string
}

// Lines computes the shortest edit script turning a into b with the Myers
// algorithm over whole lines. It runs in O((N+M)*D) time, D being the size
// of the script.
func Lines(a, b []string) []Edit {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		return uniform(Insert, b)
	case m == 0:
		return uniform(Delete, a)
	}

	offset := n + m
	v := make([]int, 2*offset+1)
	var trace [][]int
	for d := 0; d <= offset; d++ {
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				trace = append(trace, append([]int(nil), v...))
				return walkBack(trace, a, b)
			}
		}
		trace = append(trace, append([]int(nil), v...))
	}
	panic("diff: edit script not found")
}

func uniform(op Op, lines []string) []Edit {
	out := make([]Edit, len(lines))
	for i, l := range lines {
		out[i] = Edit{Op: op, Line: l}
	}
	return out
}

// walkBack rebuilds the script from the per-distance snapshots of v.
func walkBack(trace [][]int, a, b []string) []Edit {
	offset := len(a) + len(b)
	x, y := len(a), len(b)
	var rev []Edit

	for d := len(trace) - 1; d > 0; d-- {
		prev := trace[d-1]
		k := x - y
		var pk int
		if k == -d || (k != d && prev[offset+k-1] < prev[offset+k+1]) {
			pk = k + 1
		} else {
			pk = k - 1
		}
		px := prev[offset+pk]
		py := px - pk
		for x > px && y > py {
			x--
			y--
			rev = append(rev, Edit{Op: Equal, Line: a[x]})
		}
		if pk == k-1 {
			x--
			rev = append(rev, Edit{Op: Delete, Line: a[x]})
		} else {
			y--
			rev = append(rev, Edit{Op: Insert, Line: b[y]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		rev = append(rev, Edit{Op: Equal, Line: a[x]})
	}

	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// SplitLines splits data on "\n". A final newline does not produce a
// trailing empty line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// binarySniffLen bounds how much of a file IsBinary inspects.
const binarySniffLen = 8000

// IsBinary reports whether data looks like binary content: a NUL byte in
// its leading bytes.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
