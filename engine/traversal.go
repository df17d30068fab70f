package engine

import "strings"

// exclusiveGroupSuffix and ttlGroupID are the two heuristics the traversal
// uses to decide whether an object's group membership already satisfies
// the exclusive-restriction requirement the subject closure raised.
// ttlGroupID, and exclusiveGroupSuffix as a test on group ids, apply at the
// top level only; exclusiveGroupSuffix is also tested on the parent id at
// any level.
const (
	exclusiveGroupSuffix = "_group"
	ttlGroupID           = "cfg:TTLResourcesGroup"
)

// traverseObjectGroup walks the object side of the graph: for each group
// uri belongs to, it evaluates that group's permission records
// (evaluateObjectGroup) and then recurses into the group's own memberships.
// It reports true only when a group evaluated directly at this level
// satisfies the request and the finalization conditions hold; results of
// the recursive calls are not propagated, so rights found deeper stay in
// ctx.calcRightRes for the caller's final check. A membership lookup miss
// at the top level, or an empty group set at any level, marks the
// exclusive-restriction requirement as satisfied (there is nothing left to
// exclude against).
func traverseObjectGroup(storage Storage, trace *Trace, ctx *context, requestAccess AccessMask, uri string, accessMask AccessMask, level int) (bool, error) {
	if level > maxDepth {
		return false, nil
	}

	storage.Yield()

	blob, ok, err := storage.Get(MembershipPrefix + uri)
	if err != nil {
		return false, wrapStorageErr("traverse object group", uri, err)
	}
	if !ok {
		if level == 0 {
			ctx.isFoundExclusiveAz = true
		}
		return false, nil
	}

	groups := storage.DecodeRecords(blob)
	groupsLen := len(groups)
	containsSuffixGroup := false

	for idx, group := range groups {
		if group.ID == "" {
			continue
		}

		newAccess := group.Access & accessMask
		group.Access = newAccess
		key := group.ID

		if ctx.isNeedExclusiveAz && !ctx.isFoundExclusiveAz {
			if level == 0 {
				if strings.Contains(group.ID, exclusiveGroupSuffix) {
					containsSuffixGroup = true
				}
				if idx == groupsLen-1 && !containsSuffixGroup {
					ctx.isFoundExclusiveAz = true
				}
				if strings.Contains(group.ID, ttlGroupID) {
					ctx.isFoundExclusiveAz = true
				}
			}

			if !ctx.isFoundExclusiveAz && (level == 0 || strings.Contains(uri, exclusiveGroupSuffix)) {
				if sVal, seen := ctx.subjectGroups[key]; seen && sVal.Marker == MarkerExclusive {
					ctx.isFoundExclusiveAz = true
				}
			}
		}

		if group.Marker == MarkerExclusive {
			continue
		}

		var prevAccess AccessMask
		if v, seen := ctx.walkedGroupsO[key]; seen {
			prevAccess = v
			if (prevAccess&newAccess) == newAccess {
				continue
			}
		}

		ctx.walkedGroupsO[key] = newAccess | prevAccess
		if trace.isInfo() {
			ctx.treeGroupsO[key] = uri
		}

		if uri == group.ID {
			continue
		}

		res, err := evaluateObjectGroup(storage, trace, ctx, requestAccess, group.ID, group.Access)
		if err != nil {
			return false, err
		}
		if res {
			if !ctx.isNeedExclusiveAz {
				return true, nil
			}
			if ctx.isNeedExclusiveAz && ctx.isFoundExclusiveAz {
				return true, nil
			}
		}

		if _, err := traverseObjectGroup(storage, trace, ctx, requestAccess, group.ID, newAccess, level+1); err != nil {
			return false, err
		}
	}

	if groupsLen == 0 {
		ctx.isFoundExclusiveAz = true
	}

	return false, nil
}
