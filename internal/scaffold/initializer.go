package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/lattice/internal/config"
	"github.com/dyluth/lattice/pkg/catalog"
)

//go:embed templates/*
var templatesFS embed.FS

// CatalogFile is the name of the editable catalog written by --with-catalog.
const CatalogFile = "catalog.yml"

// Options controls what Initialize writes.
type Options struct {
	Instance    string
	RedisURL    string
	WithCatalog bool // Also write the built-in catalog for editing
	Force       bool // Overwrite existing files
}

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes lattice.yml (and optionally catalog.yml) into dir and
// returns the paths it created.
func Initialize(dir string, opts Options) ([]string, error) {
	if opts.Instance == "" {
		opts.Instance = config.DefaultInstance
	}
	if opts.RedisURL == "" {
		opts.RedisURL = config.DefaultRedisURL
	}
	if err := config.ValidateInstanceName(opts.Instance); err != nil {
		return nil, err
	}

	if !opts.Force {
		if err := CheckExisting(dir, opts.WithCatalog); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles(opts)
	if err != nil {
		return nil, err
	}

	created := make([]string, 0, len(files))
	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
		created = append(created, path)
	}

	if err := validateCreatedFiles(dir, opts.WithCatalog); err != nil {
		return nil, err
	}
	return created, nil
}

// getTemplateFiles renders the files to write.
func getTemplateFiles(opts Options) ([]FileInfo, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/lattice.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read lattice.yml template: %w", err)
	}

	data := struct {
		Instance string
		RedisURL string
		Catalog  string
	}{Instance: opts.Instance, RedisURL: opts.RedisURL}
	if opts.WithCatalog {
		data.Catalog = CatalogFile
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render lattice.yml: %w", err)
	}

	files := []FileInfo{{Path: config.DefaultPath, Content: buf.Bytes(), Permissions: 0644}}
	if opts.WithCatalog {
		files = append(files, FileInfo{Path: CatalogFile, Content: catalog.DefaultYAML(), Permissions: 0644})
	}
	return files, nil
}

// validateCreatedFiles loads what was written the same way the CLI will.
func validateCreatedFiles(dir string, withCatalog bool) error {
	cfg, err := config.Load(filepath.Join(dir, config.DefaultPath))
	if err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultPath, err)
	}
	if withCatalog {
		if _, err := catalog.Load(cfg.Catalog); err != nil {
			return fmt.Errorf("created %s is invalid: %w", CatalogFile, err)
		}
	}
	return nil
}
