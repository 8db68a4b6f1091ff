// Package workspacepolicy answers every workspace visibility and mutation
// question for an explicit viewer.
//
// Authorization rules:
//   - Admins see every workspace and every member list
//   - Everyone sees public workspaces; members see their own private ones
//   - Workfile changes require membership and an unarchived workspace
//     (archival blocks everyone, including the owner)
//   - Administrative changes (settings, membership, archival) require
//     ownership; ownership is singular and not transferable here
//
// The predicates are pure functions over models and are recomputed on every
// call. There is deliberately no caching in front of them: a stale answer
// after a membership or archival change is a security defect, not a
// performance nuisance.
package workspacepolicy

import (
	"context"
	"errors"

	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrPermissionDenied is returned by mutation entry points when the viewer
// may not administer or modify the workspace. Reads never return it; an
// invisible workspace just yields empty results.
var ErrPermissionDenied = errors.New("permission denied")

// CanView reports whether the viewer may see the workspace and the objects
// scoped to it.
func CanView(viewer models.User, ws models.Workspace) bool {
	if viewer.Admin {
		return true
	}
	return ws.Public || ws.HasMember(viewer.ID)
}

// CanModifyWorkfiles reports whether the viewer may create or change
// workfiles in the workspace. Nobody can while the workspace is archived.
func CanModifyWorkfiles(viewer models.User, ws models.Workspace) bool {
	if ws.Archived {
		return false
	}
	return ws.HasMember(viewer.ID) || viewer.ID == ws.OwnerID
}

// CanAdminister reports whether the viewer may change workspace settings,
// membership, and archival state. Admins may administer any workspace.
func CanAdminister(viewer models.User, ws models.Workspace) bool {
	return viewer.Admin || viewer.ID == ws.OwnerID
}

// MembersVisibleTo returns the member ids the viewer may see. Admins and
// anyone who can view the workspace get the full list; non-members of a
// private workspace get an empty set, not an error.
func MembersVisibleTo(viewer models.User, ws models.Workspace) []primitive.ObjectID {
	if !CanView(viewer, ws) {
		return nil
	}
	return ws.MemberIDs
}

// WorkspacesVisibleTo returns the workspaces the viewer may see, delegating
// the set computation to the store so it stays a single indexed query.
func WorkspacesVisibleTo(ctx context.Context, store *workspacestore.Store, viewer models.User) ([]models.Workspace, error) {
	return store.VisibleTo(ctx, viewer)
}
