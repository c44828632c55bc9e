package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AdminDirectory is a static list of usernames granted the system admin
// flag, loaded once at startup from a YAML file:
//
//	admins:
//	  - alice
//	  - ops-bot
//
// Deployments that carry the admin flag in token claims instead can simply
// run without a directory file.
type AdminDirectory struct {
	admins map[string]struct{}
}

type adminFile struct {
	Admins []string `yaml:"admins"`
}

// LoadAdminDirectory reads the admin list from path. An empty path yields an
// empty directory, which grants nobody.
func LoadAdminDirectory(path string) (*AdminDirectory, error) {
	dir := &AdminDirectory{admins: map[string]struct{}{}}
	if path == "" {
		return dir, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin file: %w", err)
	}

	var file adminFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse admin file: %w", err)
	}

	for _, name := range file.Admins {
		dir.admins[name] = struct{}{}
	}

	return dir, nil
}

// IsAdmin reports whether username is listed. Safe on a nil directory.
func (d *AdminDirectory) IsAdmin(username string) bool {
	if d == nil {
		return false
	}
	_, ok := d.admins[username]
	return ok
}
