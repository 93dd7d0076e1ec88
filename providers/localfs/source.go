// Package localfs liest Dump-Dateien aus dem lokalen Dateisystem.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"medline-loader/providers"
)

// Source implementiert providers.Source für lokale Pfade.
type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "local" }

// List gibt für ein Verzeichnis alle Dump-Dateien darin zurück, für eine
// einzelne Datei nur diese selbst.
func (s *Source) List(_ context.Context, location string) ([]string, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{location}, nil
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", location, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !providers.IsDumpFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(location, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (s *Source) Open(_ context.Context, location string) (io.ReadCloser, error) {
	return os.Open(location)
}
