// Package modpack loads unpacked mod packs and extracts their entries.
package modpack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sqpack-tools/internal/config"
	"github.com/Faultbox/sqpack-tools/internal/logger"
	"github.com/Faultbox/sqpack-tools/pkg/sqpack"
)

// Pack is an unpacked mod pack: a mod list plus the data file it indexes.
type Pack struct {
	Dir     string
	List    *ModList
	archive *sqpack.Archive
	index   map[string]int
}

// Open loads the mod list and maps the data file found in dir.
func Open(dir string, files config.PackConfig) (*Pack, error) {
	listPath := filepath.Join(dir, files.ModList)
	f, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("opening mod list: %w", err)
	}
	defer f.Close()

	list, err := ParseModList(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", listPath, err)
	}

	archive, err := sqpack.OpenFile(filepath.Join(dir, files.DataFile))
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}

	p := &Pack{
		Dir:     dir,
		List:    list,
		archive: archive,
		index:   make(map[string]int, len(list.Entries)),
	}
	for i, entry := range list.Entries {
		key := NormalizePath(entry.FullPath)
		if _, dup := p.index[key]; dup {
			logger.Debug("duplicate mod entry", logger.Path(entry.FullPath))
			continue
		}
		p.index[key] = i
	}

	logger.Debug("opened mod pack",
		logger.Path(dir),
	)
	return p, nil
}

// Close unmaps the data file.
func (p *Pack) Close() error {
	return p.archive.Close()
}

// Archive returns the decoder over the pack's data file.
func (p *Pack) Archive() *sqpack.Archive {
	return p.archive
}

// Entries returns all mod entries in list order, duplicates included.
func (p *Pack) Entries() []ModEntry {
	return p.List.Entries
}

// Lookup returns the first entry for path.
func (p *Pack) Lookup(path string) (ModEntry, bool) {
	i, ok := p.index[NormalizePath(path)]
	if !ok {
		return ModEntry{}, false
	}
	return p.List.Entries[i], true
}

// Load decodes the file stored for path.
func (p *Pack) Load(path string) ([]byte, error) {
	entry, ok := p.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return p.archive.ReadFile(entry.ModOffset)
}

// NormalizePath normalizes a game path for case-insensitive lookup.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(strings.TrimPrefix(path, "/"))
}
