package providers

import (
	"context"
	"io"
	"strings"
)

// Source ist das Interface, das jede Dump-Quelle (lokales Verzeichnis, S3-Bucket) implementieren muss.
type Source interface {
	// List gibt alle Dateien unter location in lexikalischer Reihenfolge zurück.
	List(ctx context.Context, location string) ([]string, error)

	// Open öffnet eine einzelne Datei als Stream. Der Aufrufer schließt ihn.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "local").
	Name() string
}

// dumpSuffixes sind die Dateiendungen, die List berücksichtigt.
var dumpSuffixes = []string{".xml", ".xml.gz", ".xml.zst"}

// IsDumpFile meldet, ob name wie eine MEDLINE-Dump-Datei aussieht.
func IsDumpFile(name string) bool {
	for _, s := range dumpSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
