package models

// Author ist ein Autor oder eine Autorengruppe (CollectiveName).
type Author struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	LastName         *string `json:"last_name,omitempty" gorm:"column:name_last"`
	ForeName         *string `json:"fore_name,omitempty" gorm:"column:name_first"`
	Initials         *string `json:"initials,omitempty" gorm:"column:name_initials"`
	Suffix           *string `json:"suffix,omitempty" gorm:"column:name_suffix"`
	CollectiveName   *string `json:"collective_name,omitempty" gorm:"type:text"`
	Identifier       *string `json:"identifier,omitempty"`
	IdentifierSource *string `json:"identifier_source,omitempty"`
	// Erste gefundene Adresse, nicht Teil des Schlüssels
	Email *string `json:"email,omitempty"`
	ContentAddress
}

func (Author) TableName() string { return "authors" }

func (a Author) GetID() uint { return a.ID }

func (a Author) NaturalKey() []*string {
	return []*string{a.LastName, a.ForeName, a.Initials, a.Suffix, a.CollectiveName, a.Identifier, a.IdentifierSource}
}

// Affiliation ist eine Institutionsangabe ohne eingebettete E-Mail.
type Affiliation struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	Affiliation      string  `json:"affiliation" gorm:"type:text;not null"`
	Identifier       *string `json:"identifier,omitempty"`
	IdentifierSource *string `json:"identifier_source,omitempty"`
	ContentAddress
}

func (Affiliation) TableName() string { return "affiliations" }

func (a Affiliation) GetID() uint { return a.ID }

func (a Affiliation) NaturalKey() []*string {
	return []*string{&a.Affiliation, a.Identifier, a.IdentifierSource}
}

// Chemical ist ein Eintrag der ChemicalList.
type Chemical struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	RegistryNumber *string `json:"registry_number,omitempty" gorm:"column:num_registry"`
	UI             *string `json:"ui,omitempty" gorm:"column:uid;index"`
	Name           string  `json:"name" gorm:"type:text;not null"`
	ContentAddress
}

func (Chemical) TableName() string { return "chemicals" }

func (c Chemical) GetID() uint { return c.ID }

func (c Chemical) NaturalKey() []*string {
	return []*string{c.RegistryNumber, c.UI, &c.Name}
}

type Keyword struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Keyword string `json:"keyword" gorm:"type:text;not null"`
	ContentAddress
}

func (Keyword) TableName() string { return "keywords" }

func (k Keyword) GetID() uint { return k.ID }

func (k Keyword) NaturalKey() []*string { return []*string{&k.Keyword} }

// Grant ist eine Förderangabe aus der GrantList.
type Grant struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	GrantID *string `json:"grant_id,omitempty" gorm:"column:uid"`
	Acronym *string `json:"acronym,omitempty"`
	Agency  *string `json:"agency,omitempty" gorm:"type:text"`
	Country *string `json:"country,omitempty"`
	ContentAddress
}

func (Grant) TableName() string { return "grants" }

func (g Grant) GetID() uint { return g.ID }

func (g Grant) NaturalKey() []*string {
	return []*string{g.GrantID, g.Acronym, g.Agency, g.Country}
}

type Databank struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`
	ContentAddress
}

func (Databank) TableName() string { return "databanks" }

func (d Databank) GetID() uint { return d.ID }

func (d Databank) NaturalKey() []*string { return []*string{&d.Name} }

type AccessionNumber struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	AccessionNumber string `json:"accession_number" gorm:"not null"`
	ContentAddress
}

func (AccessionNumber) TableName() string { return "accession_numbers" }

func (a AccessionNumber) GetID() uint { return a.ID }

func (a AccessionNumber) NaturalKey() []*string { return []*string{&a.AccessionNumber} }

// PublicationType ist z.B. "Journal Article" (D016428).
type PublicationType struct {
	ID   uint    `json:"id" gorm:"primaryKey"`
	UI   *string `json:"ui,omitempty" gorm:"column:uid"`
	Name string  `json:"name" gorm:"not null"`
	ContentAddress
}

func (PublicationType) TableName() string { return "publication_types" }

func (p PublicationType) GetID() uint { return p.ID }

func (p PublicationType) NaturalKey() []*string { return []*string{p.UI, &p.Name} }

// AbstractText ist ein (ggf. strukturierter) Abschnitt des Abstracts.
type AbstractText struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Label    *string `json:"label,omitempty"`
	Category string  `json:"category" gorm:"not null;default:'unassigned'"`
	Text     string  `json:"text" gorm:"type:text;not null"`
	ContentAddress
}

func (AbstractText) TableName() string { return "abstract_texts" }

func (a AbstractText) GetID() uint { return a.ID }

func (a AbstractText) NaturalKey() []*string { return []*string{a.Label, &a.Category, &a.Text} }
