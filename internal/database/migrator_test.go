package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  int32
		want    int32
		wantErr bool
	}{
		{"latest", LatestVersion, 1, false},
		{"explicit latest", 1, 1, false},
		{"drop everything", 0, 0, false},
		{"past newest", 2, 0, true},
		{"negative", -2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTarget(tt.target, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrationFS_embedsReversibleMigrations(t *testing.T) {
	subtree, err := migrationFS()
	require.NoError(t, err)

	names, err := fs.Glob(subtree, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_create_patients.sql", names[0])

	for _, name := range names {
		body, err := fs.ReadFile(subtree, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "---- create above / drop below ----", name)
	}

	body, err := fs.ReadFile(subtree, names[0])
	require.NoError(t, err)
	up, _, _ := strings.Cut(string(body), "---- create above / drop below ----")
	for _, constraint := range []string{"patients_age_check", "patients_gender_check", "patients_height_check", "patients_weight_check"} {
		assert.Contains(t, up, constraint, "sqlerr infers the column from this constraint name")
	}
}
