package models

// Descriptor ist ein MeSH-Deskriptor. Wird nur nachgeschlagen, nie beim Import angelegt.
type Descriptor struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	UI   string `json:"ui" gorm:"column:ui;uniqueIndex;not null"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Descriptor) TableName() string { return "descriptors" }

func (d Descriptor) GetID() uint   { return d.ID }
func (d Descriptor) GetUI() string { return d.UI }

// Qualifier ist ein MeSH-Subheading.
type Qualifier struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	UI   string `json:"ui" gorm:"column:ui;uniqueIndex;not null"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Qualifier) TableName() string { return "qualifiers" }

func (q Qualifier) GetID() uint   { return q.ID }
func (q Qualifier) GetUI() string { return q.UI }
