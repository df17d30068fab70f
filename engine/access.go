package engine

import "strings"

// AccessMask packs four positive rights into its low nibble and the matching
// four denial rights into its high nibble: C=1 R=2 U=4 D=8, !C=16 !R=32
// !U=64 !D=128.
type AccessMask uint8

const (
	CanCreate AccessMask = 1 << iota
	CanRead
	CanUpdate
	CanDelete
	CantCreate
	CantRead
	CantUpdate
	CantDelete
)

// FullAccess grants every positive right and denies nothing.
const FullAccess AccessMask = CanCreate | CanRead | CanUpdate | CanDelete

// PositiveBits enumerates the low-nibble rights in the order the evaluator
// walks them.
var PositiveBits = [4]AccessMask{CanCreate, CanRead, CanUpdate, CanDelete}

// FullBits enumerates all eight bits, positive then denial.
var FullBits = [8]AccessMask{CanCreate, CanRead, CanUpdate, CanDelete, CantCreate, CantRead, CantUpdate, CantDelete}

// predicateNames is indexed directly by bit value, mirroring the reference
// implementation's sparse lookup table (indices 0,3,5,6,7 are unused).
var predicateNames = [9]string{
	0: "",
	1: "v-s:canCreate",
	2: "v-s:canRead",
	3: "",
	4: "v-s:canUpdate",
	5: "",
	6: "",
	7: "",
	8: "v-s:canDelete",
}

// PredicateName returns the relation name associated with a single positive
// right bit, or "" if bit is not one of the four positive rights.
func PredicateName(bit AccessMask) string {
	if int(bit) >= len(predicateNames) {
		return ""
	}
	return predicateNames[bit]
}

// Effective folds an access mask's denial nibble into its positive nibble:
// a record that only *allows* rights (no bits above 15 set) passes through
// unchanged; a record carrying denials suppresses the corresponding
// positive bits before it can contribute to a decision.
func Effective(access AccessMask) AccessMask {
	if access <= 0x0F {
		return access
	}
	return (((access & 0xF0) >> 4) ^ 0x0F) & access
}

// PrettyString renders an access mask as a space-separated, trailing-space
// token list: "C R U D " for full access, "!C !R " for denied create/read,
// "" for zero.
func PrettyString(access AccessMask) string {
	var b strings.Builder
	if access&CanCreate != 0 {
		b.WriteString("C ")
	}
	if access&CanRead != 0 {
		b.WriteString("R ")
	}
	if access&CanUpdate != 0 {
		b.WriteString("U ")
	}
	if access&CanDelete != 0 {
		b.WriteString("D ")
	}
	if access&CantCreate != 0 {
		b.WriteString("!C ")
	}
	if access&CantRead != 0 {
		b.WriteString("!R ")
	}
	if access&CantUpdate != 0 {
		b.WriteString("!U ")
	}
	if access&CantDelete != 0 {
		b.WriteString("!D ")
	}
	return b.String()
}

// AccessBuilder accumulates overlapping grants of the four positive rights
// into a single Record, keeping a reference count per right so that the
// bit is only cleared once every grant contributing to it has been
// withdrawn. This is a fixture-building affordance for tests and in-memory
// storage seeding, not part of the graph-walk algorithm itself.
type AccessBuilder struct {
	Record   Record
	counters map[byte]uint16
}

// NewAccessBuilder starts from a record with full positive access, matching
// the default a bare subject or object identity carries.
func NewAccessBuilder(id string) *AccessBuilder {
	return &AccessBuilder{Record: NewRecord(id), counters: make(map[byte]uint16)}
}

// NewAccessBuilderWithAccess starts from an explicit access mask.
func NewAccessBuilderWithAccess(id string, access AccessMask) *AccessBuilder {
	return &AccessBuilder{Record: NewRecordWithAccess(id, access), counters: make(map[byte]uint16)}
}

func accessBitFor(right byte) AccessMask {
	switch right {
	case 'C':
		return CanCreate
	case 'R':
		return CanRead
	case 'U':
		return CanUpdate
	case 'D':
		return CanDelete
	default:
		return 0
	}
}

// AddRight grants right, bumping its reference count. Unknown letters are
// counted but never touch the access mask.
func (b *AccessBuilder) AddRight(right byte) {
	b.counters[right]++
	b.Record.Access |= accessBitFor(right)
}

// RemoveRight withdraws one grant of right, reports whether that was the
// last reference (in which case the mask bit is cleared).
func (b *AccessBuilder) RemoveRight(right byte) bool {
	count, ok := b.counters[right]
	if !ok {
		return false
	}
	count--
	if count == 0 {
		delete(b.counters, right)
		b.Record.Access &^= accessBitFor(right)
		return true
	}
	b.counters[right] = count
	return false
}

// HasRight reports whether right currently has at least one outstanding grant.
func (b *AccessBuilder) HasRight(right byte) bool {
	return b.counters[right] > 0
}

// RightCount returns the outstanding reference count for right.
func (b *AccessBuilder) RightCount(right byte) uint16 {
	return b.counters[right]
}
