package accesscontrol

import (
	"reflect"
	"testing"

	"docregistry/internal/domain/models"
)

func snapshot() *models.Document {
	return &models.Document{
		ID:    "doc1",
		Owner: "alice",
		Shares: []models.ShareGrant{
			{Username: "reader", CanRead: true},
			{Username: "writer", CanWrite: true},
			{Username: "editor", CanRead: true, CanWrite: true},
			{Username: "revoked"},
		},
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name       string
		caller     string
		admin      bool
		wantRead   bool
		wantWrite  bool
		wantManage bool
	}{
		{name: "owner", caller: "alice", wantRead: true, wantWrite: true, wantManage: true},
		{name: "admin", caller: "nobody", admin: true, wantRead: true, wantWrite: true, wantManage: true},
		{name: "read grant", caller: "reader", wantRead: true},
		{name: "write grant without read", caller: "writer", wantWrite: true},
		{name: "full grant", caller: "editor", wantRead: true, wantWrite: true},
		{name: "empty grant row", caller: "revoked"},
		{name: "stranger", caller: "mallory"},
	}

	doc := snapshot()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRead(doc, tt.caller, tt.admin); got != tt.wantRead {
				t.Errorf("CanRead = %v, want %v", got, tt.wantRead)
			}
			if got := CanWrite(doc, tt.caller, tt.admin); got != tt.wantWrite {
				t.Errorf("CanWrite = %v, want %v", got, tt.wantWrite)
			}
			if got := CanManage(doc, tt.caller, tt.admin); got != tt.wantManage {
				t.Errorf("CanManage = %v, want %v", got, tt.wantManage)
			}
		})
	}
}

// A grant never confers manage rights, no matter how broad it is.
func TestGrantsNeverManage(t *testing.T) {
	doc := snapshot()
	for _, caller := range []string{"reader", "writer", "editor"} {
		if CanManage(doc, caller, false) {
			t.Errorf("grantee %q must not manage the document", caller)
		}
	}
}

func TestPermissionsFor(t *testing.T) {
	doc := snapshot()

	tests := []struct {
		name   string
		caller string
		admin  bool
		want   []string
	}{
		{name: "owner gets both", caller: "alice", want: []string{"read", "write"}},
		{name: "admin gets both", caller: "nobody", admin: true, want: []string{"read", "write"}},
		{name: "read only", caller: "reader", want: []string{"read"}},
		{name: "write only", caller: "writer", want: []string{"write"}},
		{name: "stranger gets none", caller: "mallory", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PermissionsFor(doc, tt.caller, tt.admin)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PermissionsFor = %v, want %v", got, tt.want)
			}
		})
	}
}
