package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeRoleFile(t, `
users:
  - username: user_a
    roles:
      - admin
      - full_data_access
  - username: user_b
    roles:
      - restricted
      - limited_api_access
      - restricted_db
      - row_restricted
      - mask_data
`)

	file, err := Load(path)
	require.NoError(t, err)
	require.Len(t, file.Users, 2)

	adminRoles := file.RolesFor("user_a")
	assert.True(t, adminRoles.Has(models.RoleAdmin))
	assert.True(t, adminRoles.Has(models.RoleFullDataAccess))

	limitedRoles := file.RolesFor("user_b")
	assert.Len(t, limitedRoles, 5)
	assert.True(t, limitedRoles.Has(models.RoleMaskData))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeRoleFile(t, "users: [not: valid: yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingUsername(t *testing.T) {
	path := writeRoleFile(t, `
users:
  - roles:
      - admin
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_DuplicateUsername(t *testing.T) {
	path := writeRoleFile(t, `
users:
  - username: user_a
    roles: [admin]
  - username: user_a
    roles: [restricted]
`)
	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate username")
}

func TestRolesFor_UnknownUser(t *testing.T) {
	path := writeRoleFile(t, `
users:
  - username: user_a
    roles: [admin]
`)
	file, err := Load(path)
	require.NoError(t, err)

	set := file.RolesFor("nobody")
	assert.Empty(t, set)
}

func TestRolesFor_DuplicateRolesCollapse(t *testing.T) {
	path := writeRoleFile(t, `
users:
  - username: user_a
    roles: [mask_data, mask_data, row_restricted]
`)
	file, err := Load(path)
	require.NoError(t, err)

	set := file.RolesFor("user_a")
	assert.Len(t, set, 2)
}
