package engine

// subjectWalk records the access mask and marker last folded in for a
// group visited during the subject closure walk, so a later visit with no
// new information can be skipped.
type subjectWalk struct {
	access AccessMask
	marker Marker
}

// context carries every piece of mutable state threaded through one
// Authorize call: the running decision, the exclusive-restriction flags,
// the memoization maps that guarantee termination over cyclic group
// graphs, and the parent-link maps used to reconstruct trace paths.
type context struct {
	objectID  string
	subjectID string

	requestAccess      AccessMask
	calcRightRes       AccessMask
	isNeedExclusiveAz  bool
	isFoundExclusiveAz bool
	filterValue        string

	// walkedGroupsS/treeGroupsS memoize the subject closure walk (C4).
	walkedGroupsS map[string]subjectWalk
	treeGroupsS   map[string]string

	// walkedGroupsO/treeGroupsO memoize the object traversal (C6).
	walkedGroupsO map[string]AccessMask
	treeGroupsO   map[string]string

	// subjectGroups is the flattened subject closure consulted by the
	// object evaluator (C5): group id -> access mask and marker the
	// subject carries into that group.
	subjectGroups map[string]Record

	// checkedGroups memoizes the evaluator's fast path (C5): object group
	// id -> the access mask it was last evaluated against.
	checkedGroups map[string]AccessMask
}

func newContext(requestAccess AccessMask) *context {
	return &context{
		requestAccess: requestAccess,
		walkedGroupsS: make(map[string]subjectWalk),
		treeGroupsS:   make(map[string]string),
		walkedGroupsO: make(map[string]AccessMask),
		treeGroupsO:   make(map[string]string),
		subjectGroups: make(map[string]Record),
		checkedGroups: make(map[string]AccessMask),
	}
}
