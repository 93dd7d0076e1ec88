// Package pubmed bildet MEDLINE/PubMed-XML auf typisierte Dokumente ab.
//
// Die Strukturen spiegeln die Verschachtelung der PubMed-DTD. Optionale
// Blätter sind Pointer und bleiben nil, wenn das Element fehlt oder leer ist;
// wiederholte Elemente werden zu Slices.
package pubmed

import "time"

// PubmedArticle ist ein Record aus einem PubmedArticleSet.
type PubmedArticle struct {
	MedlineCitation MedlineCitation
	PubmedData      PubmedData
}

// Empty meldet ein abgelehntes Dokument (fehlender Titel, PMID-Version != 1).
func (a PubmedArticle) Empty() bool {
	return a.MedlineCitation.PMID == nil
}

// PMID gibt die PMID oder "" zurück.
func (a PubmedArticle) PMID() string {
	if a.MedlineCitation.PMID == nil {
		return ""
	}
	return *a.MedlineCitation.PMID
}

// MedlineCitation enthält Katalog- und Artikeldaten.
type MedlineCitation struct {
	PMID        *string
	PMIDVersion *string
	Status      *string
	Owner       *string

	DateCreated   Date
	DateCompleted Date
	DateRevised   Date

	Article            Article
	JournalInfo        MedlineJournalInfo
	Chemicals          []Chemical
	Keywords           []Keyword
	MeshHeadings       []MeshHeading
	NumberOfReferences *int
}

// Date ist ein Datum mit einzeln optionalen Teilen. Value ist nur gesetzt,
// wenn Jahr, Monat und Tag vorhanden sind und ein gültiges Kalenderdatum ergeben.
type Date struct {
	Year        *int
	Month       *int
	Day         *int
	MedlineDate *string
	Value       *time.Time
}

// Article ist der eigentliche Artikel.
type Article struct {
	PubModel        *string
	Journal         Journal
	Title           *string
	VernacularTitle *string
	Pagination      *string
	Languages       []string

	AbstractTexts        []AbstractText
	CopyrightInformation *string

	AuthorListComplete *bool
	Authors            []Author

	DataBanks        []DataBank
	Grants           []Grant
	PublicationTypes []PublicationType
	ELocationIDs     []ELocationID
	ArticleDates     []Date

	// Published ist ArticleDate, ersatzweise JournalIssue/PubDate; das Jahr
	// fällt zuletzt auf MedlineDate zurück.
	Published Date
}

// Language gibt die erste Sprache zurück.
func (a Article) Language() *string {
	if len(a.Languages) == 0 {
		return nil
	}
	return &a.Languages[0]
}

// Journal ist der Zeitschriften-Snapshot im Artikel.
type Journal struct {
	ISSN            *string
	ISSNType        *string
	Title           *string
	ISOAbbreviation *string
	CitedMedium     *string
	Volume          *string
	Issue           *string
	PubDate         Date
}

type AbstractText struct {
	Label    *string
	Category string
	Text     *string
}

// Author ist ein Autor. Email ist die erste Adresse aus den Affiliations.
type Author struct {
	Valid            *bool
	LastName         *string
	ForeName         *string
	Initials         *string
	Suffix           *string
	CollectiveName   *string
	Identifier       *string
	IdentifierSource *string
	Email            *string
	Affiliations     []Affiliation
}

// Affiliation ist eine AffiliationInfo ohne eingebettete E-Mail.
type Affiliation struct {
	Text             *string
	Identifier       *string
	IdentifierSource *string
	Email            *string
}

type DataBank struct {
	Name             *string
	AccessionNumbers []string
}

type Grant struct {
	GrantID *string
	Acronym *string
	Agency  *string
	Country *string
}

type PublicationType struct {
	UI   *string
	Name *string
}

type ELocationID struct {
	Type  *string
	Valid *bool
	Value *string
}

// MedlineJournalInfo ist der NLM-Katalogeintrag der Zeitschrift.
type MedlineJournalInfo struct {
	Country     *string
	MedlineTA   *string
	NlmUniqueID *string
	ISSNLinking *string
}

type Chemical struct {
	RegistryNumber *string
	UI             *string
	Name           *string
}

type Keyword struct {
	Owner *string
	Major *bool
	Text  *string
}

// MeshHeading ist ein Deskriptor mit seinen Qualifiern.
type MeshHeading struct {
	Descriptor MeshTerm
	Qualifiers []MeshTerm
}

type MeshTerm struct {
	UI    *string
	Name  *string
	Major *bool
}

// PubmedData enthält Status und externe IDs.
type PubmedData struct {
	PublicationStatus *string
	ArticleIDs        []ArticleID
}

type ArticleID struct {
	Type  *string
	Value *string
}
