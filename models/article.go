package models

import "time"

// Journal ist der Zeitschriften-Snapshot eines Artikels, eindeutig über die ISSN.
type Journal struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	ISSN         string  `json:"issn" gorm:"column:issn;uniqueIndex;not null"`
	ISSNType     *string `json:"issn_type,omitempty" gorm:"column:issn_type"`
	Title        *string `json:"title,omitempty" gorm:"type:text"`
	Abbreviation *string `json:"abbreviation,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Journal) TableName() string { return "journals" }

func (j Journal) GetID() uint { return j.ID }

func (j Journal) UniqueKey() (string, any) { return "issn", j.ISSN }

// JournalInfo ist der kanonische NLM-Katalogeintrag einer Zeitschrift.
type JournalInfo struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	NlmUniqueID string  `json:"nlm_unique_id" gorm:"column:nlm_unique_id;uniqueIndex;not null"`
	ISSN        *string `json:"issn,omitempty" gorm:"column:issn"`
	Country     *string `json:"country,omitempty"`
	MedlineTA   *string `json:"medline_ta,omitempty" gorm:"column:abbreviation"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (JournalInfo) TableName() string { return "journal_infos" }

func (j JournalInfo) GetID() uint { return j.ID }

func (j JournalInfo) UniqueKey() (string, any) { return "nlm_unique_id", j.NlmUniqueID }

// Article ist der eigentliche Record. Identität ist der Inhalts-Hash.
type Article struct {
	ID uint `json:"id" gorm:"primaryKey"`

	PubYear     *int       `json:"pub_year,omitempty"`
	PubMonth    *int       `json:"pub_month,omitempty"`
	PubDay      *int       `json:"pub_day,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"column:dt_published;type:date"`
	PubModel    *string    `json:"pub_model,omitempty"`

	JournalID     *uint   `json:"journal_id,omitempty" gorm:"index"`
	JournalVolume *string `json:"journal_volume,omitempty"`
	JournalIssue  *string `json:"journal_issue,omitempty"`

	Title           string  `json:"title" gorm:"type:text;not null"`
	VernacularTitle *string `json:"vernacular_title,omitempty" gorm:"column:title_vernacular;type:text"`
	Pagination      *string `json:"pagination,omitempty"`
	Language        *string `json:"language,omitempty"`

	ContentAddress
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Article) TableName() string { return "articles" }

func (a Article) GetID() uint { return a.ID }

func (a Article) UniqueKey() (string, any) { return ContentHashColumn, a.ContentHash }

// Citation verpackt einen Article mit den MEDLINE-Katalogdaten. Genau eine pro PMID.
type Citation struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	PMID string `json:"pmid" gorm:"column:pmid;uniqueIndex;not null"`

	Status *string `json:"status,omitempty"`
	Owner  *string `json:"owner,omitempty"`

	DateCreated   *time.Time `json:"date_created,omitempty" gorm:"column:dt_created;type:date"`
	DateCompleted *time.Time `json:"date_completed,omitempty" gorm:"column:dt_completion;type:date"`
	DateRevised   *time.Time `json:"date_revised,omitempty" gorm:"column:dt_revision;type:date"`

	ArticleID     uint  `json:"article_id" gorm:"not null;index"`
	JournalInfoID *uint `json:"journal_info_id,omitempty" gorm:"index"`
	NumReferences *int  `json:"num_references,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Citation) TableName() string { return "citations" }

func (c Citation) GetID() uint { return c.ID }

func (c Citation) UniqueKey() (string, any) { return "pmid", c.PMID }
