package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInputContract: parallele Argumentlisten haben unterschiedliche Länge.
	ErrInputContract = errors.New("input contract violated")
	// ErrUnresolved: eine eingefügte Zeile ist beim anschließenden Lookup nicht auffindbar.
	ErrUnresolved = errors.New("entity not resolvable")
	// ErrSyncRunning: es läuft bereits ein Sync.
	ErrSyncRunning = errors.New("sync already running")
)

// CheckLengths prüft, dass alle parallelen Listen gleich lang sind.
func CheckLengths(lengths ...int) error {
	for i := 1; i < len(lengths); i++ {
		if lengths[i] != lengths[0] {
			return fmt.Errorf("%w: co-indexed lists have lengths %v", ErrInputContract, lengths)
		}
	}
	return nil
}
