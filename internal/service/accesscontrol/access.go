// Package accesscontrol holds the pure permission predicates the registry is
// built on. Every function here is side-effect free and total: given a
// document snapshot and a caller, it answers yes or no and never fails.
//
// Share grants confer read/write access to document content only. Control
// over metadata and lifecycle (rename, share, revoke, delete, restore, purge)
// stays with the owner and system admins.
package accesscontrol

import "docregistry/internal/domain/models"

// CanRead reports whether the caller may read the document's content.
func CanRead(doc *models.Document, caller string, admin bool) bool {
	if admin || doc.Owner == caller {
		return true
	}
	grant, ok := doc.GrantFor(caller)
	return ok && grant.CanRead
}

// CanWrite reports whether the caller may write the document's content.
func CanWrite(doc *models.Document, caller string, admin bool) bool {
	if admin || doc.Owner == caller {
		return true
	}
	grant, ok := doc.GrantFor(caller)
	return ok && grant.CanWrite
}

// CanManage reports whether the caller controls the document's metadata and
// lifecycle. Grants never confer this; only the owner and admins hold it.
func CanManage(doc *models.Document, caller string, admin bool) bool {
	return admin || doc.Owner == caller
}

// PermissionsFor returns the caller's effective permission set on the
// document, filtered through CanRead and CanWrite. Owners and admins always
// receive both.
func PermissionsFor(doc *models.Document, caller string, admin bool) []string {
	perms := make([]string, 0, 2)
	if CanRead(doc, caller, admin) {
		perms = append(perms, models.PermissionRead)
	}
	if CanWrite(doc, caller, admin) {
		perms = append(perms, models.PermissionWrite)
	}
	return perms
}
