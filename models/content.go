package models

// ContentHashColumn ist die Spalte, über die inhaltsadressierte Zeilen aufgelöst werden.
const ContentHashColumn = "content_hash"

// ContentAddress ist die inhaltsbasierte Identität einer Zeile.
// Der Hash wird vom Resolver bzw. Graph-Assembler gesetzt, nie von der Datenbank.
type ContentAddress struct {
	ContentHash string `json:"content_hash" gorm:"column:content_hash;size:64;uniqueIndex;not null"`
}

// SetContentHash setzt den Hash.
func (c *ContentAddress) SetContentHash(h string) {
	c.ContentHash = h
}

// GetContentHash gibt den Hash zurück.
func (c ContentAddress) GetContentHash() string {
	return c.ContentHash
}

// ContentAddressed beschreibt wiederkehrende Sub-Entitäten, deren Identität
// ein Hash über ihre natürlichen Schlüsselfelder ist.
type ContentAddressed interface {
	// NaturalKey gibt die Schlüsselfelder in fester Reihenfolge zurück.
	NaturalKey() []*string
	SetContentHash(string)
	GetContentHash() string
	GetID() uint
}

// Keyed beschreibt Singleton-Zeilen (Article, Citation, Journal, JournalInfo)
// mit genau einer eindeutigen Schlüsselspalte.
type Keyed interface {
	UniqueKey() (column string, value any)
	GetID() uint
}

// VocabularyEntry ist ein Eintrag des vorab befüllten MeSH-Vokabulars.
type VocabularyEntry interface {
	GetID() uint
	GetUI() string
}

// All listet alle Modelle für die Migration.
func All() []any {
	return []any{
		&Journal{}, &JournalInfo{}, &Article{}, &Citation{},
		&Author{}, &Affiliation{}, &Chemical{}, &Keyword{}, &Grant{},
		&Databank{}, &AccessionNumber{}, &PublicationType{}, &AbstractText{},
		&Descriptor{}, &Qualifier{},
		&ArticleAuthorAffiliation{}, &ArticleAbstractText{}, &ArticlePublicationType{},
		&ArticleGrant{}, &ArticleDatabankAccessionNumber{},
		&CitationChemical{}, &CitationKeyword{}, &CitationDescriptorQualifier{}, &CitationIdentifier{},
		&IngestedFile{},
	}
}
