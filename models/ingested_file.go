package models

import "time"

// Status einer Eingabedatei im inkrementellen Sync.
const (
	FileStatusRunning  = "running"
	FileStatusComplete = "complete"
	FileStatusFailed   = "failed"
)

// IngestedFile protokolliert, welche Dump-Dateien bereits importiert wurden.
type IngestedFile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Location string `json:"location" gorm:"uniqueIndex;not null"`
	RunID    string `json:"run_id" gorm:"index"`
	Status   string `json:"status" gorm:"index;not null"`

	Records  int    `json:"records"`
	Ingested int    `json:"ingested"`
	Rejected int    `json:"rejected"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty" gorm:"type:text"`

	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (IngestedFile) TableName() string {
	return "ingested_files"
}
