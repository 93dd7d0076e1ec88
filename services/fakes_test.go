package services

import (
	"context"
	"errors"

	"medline-loader/models"
	"medline-loader/storage"
)

var errStoreDown = errors.New("store down")

// recordingStore protokolliert alle Aufrufe und reicht sie an inner weiter.
// Mit failAt > 0 schlägt der failAt-te Aufruf mit errStoreDown fehl.
type recordingStore struct {
	inner  storage.Store
	calls  []string
	failAt int
}

func (s *recordingStore) record(op string) error {
	s.calls = append(s.calls, op)
	if s.failAt > 0 && len(s.calls) == s.failAt {
		return errStoreDown
	}
	return nil
}

func (s *recordingStore) BulkInsertOrIgnore(ctx context.Context, rows any) error {
	if err := s.record("bulk_insert_or_ignore"); err != nil {
		return err
	}
	if s.inner == nil {
		return nil
	}
	return s.inner.BulkInsertOrIgnore(ctx, rows)
}

func (s *recordingStore) BulkLookup(ctx context.Context, dest any, column string, keys []string) error {
	if err := s.record("bulk_lookup"); err != nil {
		return err
	}
	if s.inner == nil {
		return nil
	}
	return s.inner.BulkLookup(ctx, dest, column, keys)
}

func (s *recordingStore) InsertAndReturnID(ctx context.Context, row models.Keyed) (uint, error) {
	if err := s.record("insert_and_return_id"); err != nil {
		return 0, err
	}
	if s.inner == nil {
		return 1, nil
	}
	return s.inner.InsertAndReturnID(ctx, row)
}

func (s *recordingStore) LookupOne(ctx context.Context, dest any, column string, value any) (bool, error) {
	if err := s.record("lookup_one"); err != nil {
		return false, err
	}
	if s.inner == nil {
		return false, nil
	}
	return s.inner.LookupOne(ctx, dest, column, value)
}

// recordingTransactor legt um jede Transaktion der echten Datenbank einen recordingStore.
// Die Aufrufzählung läuft über alle Transaktionen weiter.
type recordingTransactor struct {
	db  storage.Transactor
	rec *recordingStore
}

func (t *recordingTransactor) WithTransaction(ctx context.Context, fn func(storage.Store) error) error {
	return t.db.WithTransaction(ctx, func(st storage.Store) error {
		t.rec.inner = st
		return fn(t.rec)
	})
}
