package engine

// maxDepth caps recursion over both the subject and object graphs (I1): a
// branch deeper than this is treated as exhausted rather than walked
// further, which bounds the cost of a pathological or accidentally-cyclic
// group graph without needing to detect every cycle up front.
const maxDepth = 32

// UniversalGroup is probed on every pass in addition to the object itself:
// a permission record attached here applies regardless of which object is
// being checked. Storage implementations and fixtures may seed permission
// records against this id to grant rights globally.
const UniversalGroup = "v-s:AllResourcesGroup"

// Authorize computes the access mask object_id grants subject_id out of
// requestAccess, by walking the subject's group closure and the object's
// group tree and joining permission records found along the way.
//
// The walk runs in up to two passes. The first pass narrows requestAccess
// to whatever a filter attached to the object's own first-level groups
// permits, if one exists, and reads the plain "P<id>" permission keys. If
// that pass denies and a filter was found, a second pass runs with the full
// requestAccess and reads the filter-prefixed "P<filter><id>" keys instead;
// the subject closure from the first pass is reused.
//
// trace may be nil, in which case no diagnostics are collected and the
// evaluator's fast-path short-circuits stay enabled.
func Authorize(storage Storage, objectID, subjectID string, requestAccess AccessMask, trace *Trace) (AccessMask, error) {
	ctx := newContext(requestAccess)
	ctx.objectID = objectID
	ctx.subjectID = subjectID

	trace.writeInfo("authorize uri=%s, user=%s, request_access=%s\n", objectID, subjectID, PrettyString(requestAccess))

	subjectClosure := make(map[string]Record)
	if err := closeSubject(storage, trace, ctx, subjectID, FullAccess, subjectClosure, 0, false); err != nil {
		return 0, err
	}

	storage.Yield()

	ctx.subjectGroups = subjectClosure
	ctx.subjectGroups[subjectID] = NewRecord(subjectID)

	firstLevelGroups := []Record{NewRecord(objectID)}
	if blob, ok, err := storage.Get(MembershipPrefix + objectID); err == nil && ok {
		firstLevelGroups = append(firstLevelGroups, storage.DecodeRecords(blob)...)
	}

	requestAccessWithFilter := requestAccess
	var filterValue string
	for _, gr := range firstLevelGroups {
		if ctx.filterValue != "" {
			break
		}
		f, found := getFilter(storage, gr.ID)
		if !found {
			continue
		}
		filterValue = f.ID
		if filterValue != "" {
			requestAccessWithFilter = requestAccess & f.Access
		}
		break
	}

	if result, err := authorizeObjectGroups(storage, trace, ctx, objectID, requestAccessWithFilter); err != nil {
		return 0, err
	} else if result != nil {
		return *result, nil
	}

	ctx.filterValue = filterValue

	if ctx.filterValue != "" {
		ctx.checkedGroups = make(map[string]AccessMask)
		ctx.walkedGroupsO = make(map[string]AccessMask)

		if result, err := authorizeObjectGroups(storage, trace, ctx, objectID, requestAccess); err != nil {
			return 0, err
		} else if result != nil {
			return *result, nil
		}
	}

	if finalCheck(ctx, trace) {
		return ctx.calcRightRes, nil
	}

	if trace.isACL() {
		trace.ACL.Reset()
	}
	trace.writeInfo("result: uri=%s, user=%s, request=%s, answer=%s\n\n", objectID, subjectID, PrettyString(requestAccess), PrettyString(0))

	return 0, nil
}

// TraceAuthorize runs Authorize with every diagnostic channel enabled and
// returns the populated Trace alongside the granted mask, for callers
// (debugging CLI commands, tests) that want the full narration without
// building a Trace themselves.
func TraceAuthorize(storage Storage, objectID, subjectID string, requestAccess AccessMask) (AccessMask, *Trace, error) {
	t := NewTrace()
	access, err := Authorize(storage, objectID, subjectID, requestAccess, t)
	return access, t, err
}

func authorizeObjectGroups(storage Storage, trace *Trace, ctx *context, id string, requestAccess AccessMask) (*AccessMask, error) {
	for _, gr := range [2]string{UniversalGroup, id} {
		res, err := evaluateObjectGroup(storage, trace, ctx, requestAccess, gr, FullAccess)
		if err != nil {
			return nil, err
		}
		if res && finalCheck(ctx, trace) {
			result := ctx.calcRightRes
			return &result, nil
		}
	}

	res, err := traverseObjectGroup(storage, trace, ctx, requestAccess, id, FullAccess, 0)
	if err != nil {
		return nil, err
	}
	if res && finalCheck(ctx, trace) {
		result := ctx.calcRightRes
		return &result, nil
	}

	return nil, nil
}

// finalCheck applies the exclusive-restriction finalization rule: a grant
// only stands if either no exclusive restriction was ever raised, or one
// was raised and a matching exclusive finding on the object side confirmed
// it.
func finalCheck(ctx *context, trace *Trace) bool {
	res := !ctx.isNeedExclusiveAz || ctx.isFoundExclusiveAz
	if trace.isInfo() && res {
		trace.writeInfo("result: uri=%s, user=%s, request=%s, answer=%s\n\n", ctx.objectID, ctx.subjectID, PrettyString(ctx.requestAccess), PrettyString(ctx.calcRightRes))
	}
	return res
}

func getFilter(storage Storage, id string) (Record, bool) {
	blob, ok, err := storage.Get(FilterPrefix + id)
	if err != nil || !ok {
		return Record{}, false
	}
	return storage.DecodeFilter(blob)
}
