// Package roles loads the static username -> role-set assignment file.
package roles

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"gopkg.in/yaml.v3"
)

// File is the parsed role configuration. Read-only after Load.
type File struct {
	Users []models.UserRoleAssignment `yaml:"users" validate:"required,dive"`
}

var validate = validator.New()

// Load reads and validates the role file at path. A missing or malformed
// file is a configuration failure and should abort the run before any
// network call is made.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse role file %s: %w", path, err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid role file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.Users))
	for _, user := range file.Users {
		if _, dup := seen[user.Username]; dup {
			return nil, fmt.Errorf("invalid role file %s: duplicate username %q", path, user.Username)
		}
		seen[user.Username] = struct{}{}
	}

	return &file, nil
}

// RolesFor returns the role set assigned to username. Unknown usernames get
// an empty set, which the resolver turns into the deny-all policy.
func (f *File) RolesFor(username string) models.RoleSet {
	for _, user := range f.Users {
		if user.Username == username {
			return user.RoleSet()
		}
	}
	return models.NewRoleSet()
}
