package storage

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"medline-loader/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store ist die schmale Schnittstelle, die der Import-Kern gegen die Datenbank verwendet.
// Alle Aufrufe laufen innerhalb von Transactor.WithTransaction.
type Store interface {
	// BulkInsertOrIgnore fügt rows (Slice oder Pointer auf Slice bzw. Struct) ein
	// und überspringt Zeilen, deren eindeutiger Schlüssel schon existiert.
	BulkInsertOrIgnore(ctx context.Context, rows any) error
	// BulkLookup lädt alle Zeilen, deren column einen der keys enthält, nach dest.
	BulkLookup(ctx context.Context, dest any, column string, keys []string) error
	// InsertAndReturnID legt eine Singleton-Zeile an (oder ignoriert sie) und gibt ihre ID zurück.
	InsertAndReturnID(ctx context.Context, row models.Keyed) (uint, error)
	// LookupOne lädt höchstens eine Zeile mit column = value.
	LookupOne(ctx context.Context, dest any, column string, value any) (bool, error)
}

// Transactor öffnet einen Transaktionsrahmen. Commit bei nil, sonst Rollback.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(Store) error) error
}

// DB implementiert Store und Transactor auf GORM.
type DB struct {
	gorm      *gorm.DB
	batchSize int
	timeout   time.Duration
}

// NewDB erstellt einen Store. timeout gilt pro Roundtrip, 0 deaktiviert ihn.
func NewDB(db *gorm.DB, batchSize int, timeout time.Duration) *DB {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &DB{gorm: db, batchSize: batchSize, timeout: timeout}
}

// WithTransaction führt fn in einer Transaktion aus. Auch bei Panics wird zurückgerollt.
func (d *DB) WithTransaction(ctx context.Context, fn func(Store) error) error {
	return d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{gorm: tx, batchSize: d.batchSize, timeout: d.timeout})
	})
}

func (d *DB) roundTrip(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if d.timeout <= 0 {
		return d.gorm.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	return d.gorm.WithContext(ctx), cancel
}

func (d *DB) BulkInsertOrIgnore(ctx context.Context, rows any) error {
	if length(rows) == 0 {
		return nil
	}
	db, cancel := d.roundTrip(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, d.batchSize).Error
	if err != nil {
		return fmt.Errorf("insert-or-ignore %s: %w", typeName(rows), err)
	}
	return nil
}

func (d *DB) BulkLookup(ctx context.Context, dest any, column string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	out := reflect.ValueOf(dest)
	if out.Kind() != reflect.Pointer || out.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("bulk lookup: dest must be a pointer to a slice, got %T", dest)
	}

	for start := 0; start < len(keys); start += d.batchSize {
		end := min(start+d.batchSize, len(keys))
		chunk := reflect.New(out.Elem().Type())

		db, cancel := d.roundTrip(ctx)
		err := db.Where(clause.IN{Column: clause.Column{Name: column}, Values: toAny(keys[start:end])}).
			Find(chunk.Interface()).Error
		cancel()
		if err != nil {
			return fmt.Errorf("bulk lookup %s by %s: %w", typeName(dest), column, err)
		}
		out.Elem().Set(reflect.AppendSlice(out.Elem(), chunk.Elem()))
	}
	return nil
}

func (d *DB) InsertAndReturnID(ctx context.Context, row models.Keyed) (uint, error) {
	if reflect.ValueOf(row).Kind() != reflect.Pointer {
		return 0, fmt.Errorf("insert %T: row must be a pointer", row)
	}
	if err := d.BulkInsertOrIgnore(ctx, row); err != nil {
		return 0, err
	}

	column, value := row.UniqueKey()
	stored := reflect.New(reflect.TypeOf(row).Elem()).Interface()
	found, err := d.LookupOne(ctx, stored, column, value)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("insert %s: no row with %s=%v after insert", typeName(row), column, value)
	}
	return stored.(models.Keyed).GetID(), nil
}

func (d *DB) LookupOne(ctx context.Context, dest any, column string, value any) (bool, error) {
	db, cancel := d.roundTrip(ctx)
	defer cancel()

	res := db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).Limit(1).Find(dest)
	if res.Error != nil {
		return false, fmt.Errorf("lookup %s by %s: %w", typeName(dest), column, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func length(rows any) int {
	v := reflect.Indirect(reflect.ValueOf(rows))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len()
	case reflect.Invalid:
		return 0
	default:
		return 1
	}
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

func toAny(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
