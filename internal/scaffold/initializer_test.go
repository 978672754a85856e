package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/lattice/internal/config"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		setupFunc func(dir string)
		wantFiles []string
		wantErr   string
	}{
		{
			name:      "fresh initialization",
			opts:      Options{},
			wantFiles: []string{"lattice.yml"},
		},
		{
			name:      "with catalog",
			opts:      Options{Instance: "research", WithCatalog: true},
			wantFiles: []string{"lattice.yml", "catalog.yml"},
		},
		{
			name: "existing config is kept without force",
			opts: Options{},
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "lattice.yml"), []byte("old content"), 0644)
			},
			wantErr: "project already initialized",
		},
		{
			name: "force overwrites",
			opts: Options{Force: true},
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "lattice.yml"), []byte("old content"), 0644)
			},
			wantFiles: []string{"lattice.yml"},
		},
		{
			name:    "invalid instance",
			opts:    Options{Instance: "Not Valid"},
			wantErr: "invalid instance name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.setupFunc != nil {
				tt.setupFunc(dir)
			}

			created, err := Initialize(dir, tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			want := make([]string, len(tt.wantFiles))
			for i, f := range tt.wantFiles {
				want[i] = filepath.Join(dir, f)
			}
			assert.Equal(t, want, created)
		})
	}
}

func TestInitialize_ConfigLoads(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(dir, Options{Instance: "research", RedisURL: "redis://cache:6380/2", WithCatalog: true})
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, "lattice.yml"))
	require.NoError(t, err)
	assert.Equal(t, "research", cfg.Instance)
	assert.Equal(t, "redis://cache:6380/2", cfg.Redis.URL)
	assert.Equal(t, filepath.Join(dir, CatalogFile), cfg.Catalog)
	assert.Equal(t, config.DefaultModel, cfg.Generation.Model)
}

func TestCheckExisting(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckExisting(dir, true))

	require.NoError(t, os.WriteFile(filepath.Join(dir, CatalogFile), []byte("x"), 0644))
	assert.NoError(t, CheckExisting(dir, false))

	err := CheckExisting(dir, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.yml")
}
