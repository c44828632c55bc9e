package models

import (
	"encoding/json"
	"time"
)

// Permission names accepted in share requests and reported in access responses.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// Document is the aggregate root of the registry. Versions and shares belong
// exclusively to their parent document: soft delete keeps them for restore,
// a purge destroys them with the document.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"owner" db:"owner"`
	Tag       string    `json:"tag,omitempty" db:"tag"`
	Title     string    `json:"title" db:"title"`
	Deleted   bool      `json:"deleted" db:"deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Versions maps a version label to its room token. A mapping is
	// create-if-absent only; once written it never changes.
	Versions map[string]string `json:"versions"`

	// Shares holds the discretionary grants, one row per username.
	Shares []ShareGrant `json:"shared_with"`
}

// ShareGrant is a per-user, per-document permission record. Write does not
// imply read at the data level; the operations layer treats owner and admin
// as implicitly holding both.
type ShareGrant struct {
	Username string `json:"username" db:"username"`
	CanRead  bool   `json:"-" db:"can_read"`
	CanWrite bool   `json:"-" db:"can_write"`
}

// Permissions returns the grant as the wire-format permission list.
func (g ShareGrant) Permissions() []string {
	perms := make([]string, 0, 2)
	if g.CanRead {
		perms = append(perms, PermissionRead)
	}
	if g.CanWrite {
		perms = append(perms, PermissionWrite)
	}
	return perms
}

// MarshalJSON renders the grant in the wire shape
// {"username": ..., "permissions": ["read", "write"]}.
func (g ShareGrant) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Username    string   `json:"username"`
		Permissions []string `json:"permissions"`
	}{
		Username:    g.Username,
		Permissions: g.Permissions(),
	})
}

// GrantFor returns the share grant for username, if any.
func (d *Document) GrantFor(username string) (ShareGrant, bool) {
	for _, g := range d.Shares {
		if g.Username == username {
			return g, true
		}
	}
	return ShareGrant{}, false
}
