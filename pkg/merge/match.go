package merge

import (
	"fmt"

	"github.com/odvcencio/mgit/pkg/index"
)

// Disposition describes how one path resolved across base, ours and theirs.
type Disposition int

const (
	Unchanged     Disposition = iota
	OursOnly                  // ours modified, theirs unchanged
	TheirsOnly                // theirs modified, ours unchanged
	BothSame                  // both sides reached the same state
	AddedOurs                 // new path in ours, not in base
	AddedTheirs               // new path in theirs, not in base
	DeletedOurs               // deleted by ours, theirs unchanged
	DeletedTheirs             // deleted by theirs, ours unchanged
	DeletedBoth               // deleted on both sides
	Conflicted                // sides disagree and neither matches base
)

func (d Disposition) String() string {
	switch d {
	case Unchanged:
		return "Unchanged"
	case OursOnly:
		return "OursOnly"
	case TheirsOnly:
		return "TheirsOnly"
	case BothSame:
		return "BothSame"
	case AddedOurs:
		return "AddedOurs"
	case AddedTheirs:
		return "AddedTheirs"
	case DeletedOurs:
		return "DeletedOurs"
	case DeletedTheirs:
		return "DeletedTheirs"
	case DeletedBoth:
		return "DeletedBoth"
	case Conflicted:
		return "Conflicted"
	}
	return fmt.Sprintf("Disposition(%d)", int(d))
}

// ConflictKind names the shape of a conflict.
type ConflictKind int

const (
	BothModified ConflictKind = iota // present everywhere, three distinct hashes
	BothAdded                        // absent from base, added differently
	ModifyDelete                     // ours modified, theirs deleted
	DeleteModify                     // ours deleted, theirs modified
)

func (k ConflictKind) String() string {
	switch k {
	case BothModified:
		return "both-modified"
	case BothAdded:
		return "both-added"
	case ModifyDelete:
		return "modify-delete"
	case DeleteModify:
		return "delete-modify"
	}
	return fmt.Sprintf("ConflictKind(%d)", int(k))
}

// side is one version of a path; nil means absent.
type side = *index.Entry

// same reports whether two sides agree: both absent, or both present with
// the same hash.
func same(a, b side) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash == b.Hash
}

// classify applies the three-way rule table to one path. The second result
// selects the winning side when the path is not conflicted (nil = absent).
func classify(base, ours, theirs side) (Disposition, side) {
	switch {
	case same(ours, theirs):
		switch {
		case ours == nil && base == nil:
			// Unreachable for a path in the union; kept for completeness.
			return Unchanged, nil
		case ours == nil:
			return DeletedBoth, nil
		case same(base, ours):
			return Unchanged, ours
		default:
			return BothSame, ours
		}

	case same(ours, base):
		switch {
		case theirs == nil:
			return DeletedTheirs, nil
		case base == nil:
			return AddedTheirs, theirs
		default:
			return TheirsOnly, theirs
		}

	case same(theirs, base):
		switch {
		case ours == nil:
			return DeletedOurs, nil
		case base == nil:
			return AddedOurs, ours
		default:
			return OursOnly, ours
		}
	}
	return Conflicted, nil
}

// conflictKind names a conflicted path. Only called when classify returned
// Conflicted, so ours and theirs are not both absent.
func conflictKind(base, ours, theirs side) ConflictKind {
	switch {
	case base == nil:
		return BothAdded
	case theirs == nil:
		return ModifyDelete
	case ours == nil:
		return DeleteModify
	default:
		return BothModified
	}
}
