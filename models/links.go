package models

// Verknüpfungszeilen tragen einen Hash über ihr Schlüsseltupel, damit ein
// erneuter Import desselben Records keine Duplikate erzeugt. Nullable
// Fremdschlüssel würden in einem zusammengesetzten Unique-Index nicht greifen.

// ArticleAuthorAffiliation verknüpft Artikel, Autor und (optional) Affiliation.
// Ordinal ist die 1-basierte Position des Autors in der Quelle.
type ArticleAuthorAffiliation struct {
	ID            uint  `json:"id" gorm:"primaryKey"`
	ArticleID     uint  `json:"article_id" gorm:"not null;index"`
	AuthorID      uint  `json:"author_id" gorm:"not null;index"`
	AffiliationID *uint `json:"affiliation_id,omitempty" gorm:"index"`
	Ordinal       int   `json:"ordinal" gorm:"not null"`
	ContentAddress
}

func (ArticleAuthorAffiliation) TableName() string { return "article_author_affiliations" }

type ArticleAbstractText struct {
	ID             uint `json:"id" gorm:"primaryKey"`
	ArticleID      uint `json:"article_id" gorm:"not null;index"`
	AbstractTextID uint `json:"abstract_text_id" gorm:"not null;index"`
	Ordinal        int  `json:"ordinal" gorm:"not null"`
	ContentAddress
}

func (ArticleAbstractText) TableName() string { return "article_abstract_texts" }

type ArticlePublicationType struct {
	ID                uint `json:"id" gorm:"primaryKey"`
	ArticleID         uint `json:"article_id" gorm:"not null;index"`
	PublicationTypeID uint `json:"publication_type_id" gorm:"not null;index"`
	ContentAddress
}

func (ArticlePublicationType) TableName() string { return "article_publication_types" }

type ArticleGrant struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ArticleID uint `json:"article_id" gorm:"not null;index"`
	GrantID   uint `json:"grant_id" gorm:"not null;index"`
	ContentAddress
}

func (ArticleGrant) TableName() string { return "article_grants" }

// ArticleDatabankAccessionNumber verknüpft Artikel, Datenbank und Accession-Nummer.
// Eine Datenbank ohne Nummern ergibt eine Zeile ohne AccessionNumberID.
type ArticleDatabankAccessionNumber struct {
	ID                uint  `json:"id" gorm:"primaryKey"`
	ArticleID         uint  `json:"article_id" gorm:"not null;index"`
	DatabankID        uint  `json:"databank_id" gorm:"not null;index"`
	AccessionNumberID *uint `json:"accession_number_id,omitempty" gorm:"index"`
	ContentAddress
}

func (ArticleDatabankAccessionNumber) TableName() string { return "article_databank_accession_numbers" }

type CitationChemical struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	CitationID uint `json:"citation_id" gorm:"not null;index"`
	ChemicalID uint `json:"chemical_id" gorm:"not null;index"`
	ContentAddress
}

func (CitationChemical) TableName() string { return "citation_chemicals" }

type CitationKeyword struct {
	ID         uint  `json:"id" gorm:"primaryKey"`
	CitationID uint  `json:"citation_id" gorm:"not null;index"`
	KeywordID  uint  `json:"keyword_id" gorm:"not null;index"`
	IsMajor    *bool `json:"is_major,omitempty"`
	ContentAddress
}

func (CitationKeyword) TableName() string { return "citation_keywords" }

// CitationDescriptorQualifier ist ein MeSH-Heading-Paar. Ohne Qualifier
// bleibt QualifierID leer. Die Major-Flags sind unabhängig voneinander.
type CitationDescriptorQualifier struct {
	ID                uint  `json:"id" gorm:"primaryKey"`
	CitationID        uint  `json:"citation_id" gorm:"not null;index"`
	DescriptorID      uint  `json:"descriptor_id" gorm:"not null;index"`
	QualifierID       *uint `json:"qualifier_id,omitempty" gorm:"index"`
	IsDescriptorMajor *bool `json:"is_descriptor_major,omitempty"`
	IsQualifierMajor  *bool `json:"is_qualifier_major,omitempty"`
	ContentAddress
}

func (CitationDescriptorQualifier) TableName() string { return "citation_descriptors_qualifiers" }

// CitationIdentifier ist eine typisierte externe ID (doi, pmc, pii, ...).
type CitationIdentifier struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	CitationID     uint   `json:"citation_id" gorm:"not null;index"`
	IdentifierType string `json:"identifier_type" gorm:"not null;index"`
	Identifier     string `json:"identifier" gorm:"not null"`
	ContentAddress
}

func (CitationIdentifier) TableName() string { return "citation_identifiers" }
