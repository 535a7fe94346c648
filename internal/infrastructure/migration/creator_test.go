package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/expensetracker/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Add cards", "add_cards"},
		{"  add--closing day ", "add_closing_day"},
		{"Índice!", "ndice"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}

func TestCreateScript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tenant")

	first, err := CreateScript(dir, "create banks")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_banks.up.sql"), first.UpPath)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateScript(dir, "create cards")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	body, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "create_cards (down)")

	_, err = CreateScript(dir, "!!!")
	assert.Error(t, err)
}

func TestListScripts(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_late.up.sql":     {},
		"000002_early.up.sql":    {},
		"000002_early.down.sql":  {},
		"README.md":              {},
		"nested/000003_x.up.sql": {},
	}
	names, err := ListScripts(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_early", "000010_late"}, names)
}

func TestListScripts_Embedded(t *testing.T) {
	control, err := ListScripts(migrations.Control())
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_principals", "000002_create_tenants"}, control)

	tenant, err := ListScripts(migrations.Tenant())
	require.NoError(t, err)
	assert.NotEmpty(t, tenant)
}
