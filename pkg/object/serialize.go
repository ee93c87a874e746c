package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

func frameHeader(objType ObjectType, size int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", objType, size))
}

// Frame prefixes body with the "type len\0" header. The result is the
// canonical encoding whose SHA-1 is the object's identity.
func Frame(objType ObjectType, body []byte) []byte {
	header := frameHeader(objType, len(body))
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out
}

// SplitFrame parses a framed object, returning its type and body. The
// declared size must match the body length.
func SplitFrame(raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("%w: missing NUL after header", ErrInvalidFormat)
	}
	header := string(raw[:nulIdx])
	body := raw[nulIdx+1:]

	kind, sizeText, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed header %q", ErrInvalidFormat, header)
	}
	objType := ObjectType(kind)
	if !objType.Valid() {
		return "", nil, fmt.Errorf("%w: unknown object type %q", ErrInvalidFormat, kind)
	}
	size, err := strconv.Atoi(sizeText)
	if err != nil || size < 0 {
		return "", nil, fmt.Errorf("%w: invalid length %q", ErrInvalidFormat, sizeText)
	}
	if len(body) != size {
		return "", nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrInvalidFormat, size, len(body))
	}
	return objType, body, nil
}

// stripFrame returns the body of data when it starts with a well-formed
// header for objType, and data unchanged otherwise. This lets decoders accept
// both the framed encoding and the bare body returned by Store.Read.
func stripFrame(objType ObjectType, data []byte) []byte {
	prefix := string(objType) + " "
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return data
	}
	nulIdx := bytes.IndexByte(data, 0)
	if nulIdx < 0 {
		return data
	}
	size, err := strconv.Atoi(string(data[len(prefix):nulIdx]))
	if err != nil || size != len(data)-nulIdx-1 {
		return data
	}
	return data[nulIdx+1:]
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob body (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// EncodeBlob returns the framed "blob <n>\0<data>" encoding.
func EncodeBlob(b *Blob) []byte {
	return Frame(TypeBlob, b.Data)
}

// UnmarshalBlob deserializes a framed or bare blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	body := stripFrame(TypeBlob, data)
	out := make([]byte, len(body))
	copy(out, body)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj body. Entries are sorted by Name for
// deterministic output. Each entry is:
//
//	mode SP name NUL <20-byte binary hash>
//
// An entry hash that is not valid hex is a programming error and panics;
// callers only build trees from hashes the store produced.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		raw, err := e.Hash.Raw()
		if err != nil {
			panic(fmt.Sprintf("marshal tree entry %q: %v", e.Name, err))
		}
		buf.WriteString(treeModeOrDefault(e.Mode))
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw[:])
	}
	return buf.Bytes()
}

// EncodeTree returns the framed tree encoding.
func EncodeTree(tr *TreeObj) []byte {
	return Frame(TypeTree, MarshalTree(tr))
}

// UnmarshalTree parses a framed or bare tree.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	body := stripFrame(TypeTree, data)
	tr := &TreeObj{}
	for idx := 0; idx < len(body); {
		sp := bytes.IndexByte(body[idx:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: entry at offset %d has no mode separator", ErrInvalidFormat, idx)
		}
		mode := string(body[idx : idx+sp])
		if err := validateTreeMode(mode); err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		nameStart := idx + sp + 1

		nul := bytes.IndexByte(body[nameStart:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: entry at offset %d has no NUL after name", ErrInvalidFormat, idx)
		}
		name := string(body[nameStart : nameStart+nul])
		if name == "" {
			return nil, fmt.Errorf("unmarshal tree: %w: empty entry name", ErrInvalidFormat)
		}

		hashStart := nameStart + nul + 1
		if hashStart+HashSize > len(body) {
			return nil, fmt.Errorf("unmarshal tree: %w: truncated hash for %q", ErrInvalidFormat, name)
		}
		h, err := HashFromRaw(body[hashStart : hashStart+HashSize])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
		idx = hashStart + HashSize
	}
	return tr, nil
}

func treeModeOrDefault(mode string) string {
	if strings.TrimSpace(mode) == "" {
		return TreeModeFile
	}
	return mode
}

func validateTreeMode(mode string) error {
	switch mode {
	case TreeModeDir, TreeModeFile, TreeModeExecutable:
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidFormat, mode)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj body:
//
//	tree H
//	parent H     (zero or more)
//	author A
//	committer C
//	sshsig S     (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "sshsig %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// EncodeCommit returns the framed commit encoding.
func EncodeCommit(c *CommitObj) []byte {
	return Frame(TypeCommit, MarshalCommit(c))
}

// UnmarshalCommit parses a framed or bare commit. Header lines it does not
// recognize are skipped.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	body := stripFrame(TypeCommit, data)

	var header, message []byte
	if idx := bytes.Index(body, []byte("\n\n")); idx >= 0 {
		header = body[:idx]
		message = body[idx+2:]
	} else {
		header = bytes.TrimSuffix(body, []byte("\n"))
	}

	c := &CommitObj{Message: string(message)}
	for _, line := range strings.Split(string(header), "\n") {
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "tree":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: tree: %w", err)
			}
			c.TreeHash = h
		case "parent":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: parent: %w", err)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			c.Author = val
		case "committer":
			c.Committer = val
		case "sshsig":
			c.Signature = val
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: %w: missing tree header", ErrInvalidFormat)
	}
	return c, nil
}
