package engine

import "fmt"

// evaluateObjectGroup joins the permission records attached to
// objectGroupID against the subject closure (ctx.subjectGroups), folding
// any matching right into ctx.calcRightRes. With no trace channel active it
// reports whether the inbound requestAccess has been fully satisfied; with
// any channel active it always reports false, so callers keep walking.
//
// When no trace channel is active, two fast paths apply: a group whose own
// restriction mask cannot possibly cover the bits still outstanding is
// skipped outright, and a group already evaluated against the same access
// mask is skipped as redundant. Both are disabled under tracing, since a
// trace is expected to show every group actually visited.
func evaluateObjectGroup(storage Storage, trace *Trace, ctx *context, requestAccess AccessMask, objectGroupID string, objectGroupAccess AccessMask) (bool, error) {
	if !trace.active() {
		leftToCheck := (ctx.calcRightRes ^ requestAccess) & requestAccess
		if leftToCheck&objectGroupAccess == 0 {
			return false, nil
		}
		if v, seen := ctx.checkedGroups[objectGroupID]; seen && v == objectGroupAccess {
			return false, nil
		}
		ctx.checkedGroups[objectGroupID] = objectGroupAccess
	}

	storage.Yield()

	trace.writeGroup(objectGroupID + "\n")

	aclKey := PermissionPrefix + objectGroupID
	if ctx.filterValue != "" {
		aclKey = PermissionPrefix + ctx.filterValue + objectGroupID
	}

	blob, ok, err := storage.Get(aclKey)
	if err != nil {
		return false, wrapStorageErr("evaluate object group", objectGroupID, err)
	}

	if ok {
		for _, permission := range storage.DecodeRecords(blob) {
			subjectGroup, known := ctx.subjectGroups[permission.ID]
			if !known {
				continue
			}

			permissionAccess := Effective(permission.Access)

			for _, bit := range PositiveBits {
				if requestAccess&bit&objectGroupAccess&subjectGroup.Access == 0 {
					continue
				}
				calcBits := bit & permissionAccess
				if calcBits == 0 {
					continue
				}

				prevRes := ctx.calcRightRes
				ctx.calcRightRes |= calcBits

				if ctx.calcRightRes&requestAccess == requestAccess {
					switch {
					case trace.isInfo():
						// keep walking so the trace channels below still fire
					case !trace.isGroup() && !trace.isACL():
						return true, nil
					}
				}

				if trace.isInfo() && prevRes != ctx.calcRightRes {
					filterLog := ""
					if ctx.filterValue != "" {
						filterLog = ", with filter " + ctx.filterValue
					}
					trace.writeInfo("found permission S:[%s], O:[%s], access=%s%s\n", permission.ID, objectGroupID, PrettyString(permissionAccess), filterLog)
					trace.writeInfo("access: request=%s, calc=%s, total=%s\n", PrettyString(requestAccess), PrettyString(calcBits), PrettyString(ctx.calcRightRes))
					trace.writeInfo("O-PATH%s\n", renderPath(ctx.treeGroupsO, objectGroupID))
					trace.writeInfo("S-PATH%s\n", renderPath(ctx.treeGroupsS, permission.ID))
				}

				if trace.isACL() {
					trace.writeACL(fmt.Sprintf("%s;%s;%s\n", objectGroupID, permission.ID, PredicateName(bit)))
				}
			}
		}
	}

	if ctx.calcRightRes&requestAccess == requestAccess && !trace.active() {
		return true, nil
	}

	return false, nil
}
