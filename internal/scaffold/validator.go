package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/lattice/internal/config"
)

// CheckExisting returns an error naming any file Initialize would
// overwrite.
func CheckExisting(dir string, withCatalog bool) error {
	candidates := []string{config.DefaultPath}
	if withCatalog {
		candidates = append(candidates, CatalogFile)
	}

	var existing []string
	for _, name := range candidates {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'lattice init --force' to overwrite",
		strings.Join(existing, ", "))
}
