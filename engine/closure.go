package engine

// closeSubject computes the transitive group membership closure of uri,
// folding each group's access mask (capped to accessMask) into
// ctx.walkedGroupsS for cycle detection and writing a flattened Record per
// reachable group into results. It is the subject-side half of the graph
// walk: the object traversal (traverseObjectGroup) later joins permission
// records against the closure this produces.
//
// ignoreExclusive, once set by an ancestor marked MarkerIgnoreExclusive,
// suppresses MarkerExclusive detection for the remainder of that branch.
func closeSubject(storage Storage, trace *Trace, ctx *context, uri string, accessMask AccessMask, results map[string]Record, level int, ignoreExclusive bool) error {
	if level > maxDepth {
		return nil
	}

	blob, ok, err := storage.Get(MembershipPrefix + uri)
	if err != nil {
		return wrapStorageErr("close subject", uri, err)
	}
	if !ok {
		return nil
	}

	for _, group := range storage.DecodeRecords(blob) {
		if group.ID == "" {
			continue
		}

		newAccess := group.Access & accessMask
		group.Access = newAccess

		var prevAccess AccessMask
		if prev, seen := ctx.walkedGroupsS[group.ID]; seen {
			prevAccess = prev.access
			if (prevAccess&newAccess) == newAccess && group.Marker == prev.marker {
				continue
			}
		}
		ctx.walkedGroupsS[group.ID] = subjectWalk{access: newAccess | prevAccess, marker: group.Marker}

		if trace.isInfo() {
			ctx.treeGroupsS[group.ID] = uri
		}

		if uri == group.ID {
			continue
		}

		childIgnoreExclusive := ignoreExclusive
		if !ignoreExclusive && group.Marker == MarkerIgnoreExclusive {
			childIgnoreExclusive = true
		}

		storage.Yield()

		if err := closeSubject(storage, trace, ctx, group.ID, FullAccess, results, level+1, childIgnoreExclusive); err != nil {
			return err
		}

		if !ignoreExclusive && group.Marker == MarkerExclusive {
			trace.writeInfo("FOUND EXCLUSIVE RESTRICTIONS, PATH=%s \n", renderPath(ctx.treeGroupsS, group.ID))
			ctx.isNeedExclusiveAz = true
		}

		newMarker := group.Marker
		if existing, seen := results[group.ID]; seen && existing.Marker != MarkerNone {
			newMarker = existing.Marker
		}

		results[group.ID] = Record{
			ID:        group.ID,
			Access:    group.Access,
			Marker:    newMarker,
			IsDeleted: group.IsDeleted,
			Level:     level,
		}
	}

	return nil
}
