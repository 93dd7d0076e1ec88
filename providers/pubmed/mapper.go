package pubmed

import (
	"strconv"
	"strings"

	"medline-loader/xmlstream"

	"go.uber.org/zap"
)

// Mapper wandelt PubmedArticle-Teilbäume in Dokumente um.
// Normalisierungsfehler werden geloggt, nie zurückgegeben.
type Mapper struct {
	Logger *zap.Logger
}

// NewMapper erstellt einen Mapper. Ein nil-Logger wird durch zap.NewNop ersetzt.
func NewMapper(logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{Logger: logger}
}

// Map bildet einen Record ab. Abgelehnte Records ergeben PubmedArticle{}.
func (m *Mapper) Map(n *xmlstream.Node) PubmedArticle {
	mc := n.Child("MedlineCitation")
	pmidNode := mc.Child("PMID")
	pmid := pmidNode.Value()
	log := m.Logger
	if pmid != nil {
		log = log.With(zap.String("pmid", *pmid))
	}

	if pmid == nil {
		log.Debug("Record ohne PMID verworfen")
		return PubmedArticle{}
	}
	if v := pmidNode.Attr("Version"); v == nil || *v != "1" {
		log.Debug("Record verworfen: keine Erstversion", zap.Stringp("version", v))
		return PubmedArticle{}
	}
	article := mc.Child("Article")
	if article.Child("ArticleTitle").Value() == nil {
		log.Debug("Record verworfen: ArticleTitle fehlt")
		return PubmedArticle{}
	}

	dm := dateMapper{log: log}
	return PubmedArticle{
		MedlineCitation: MedlineCitation{
			PMID:               pmid,
			PMIDVersion:        pmidNode.Attr("Version"),
			Status:             mc.Attr("Status"),
			Owner:              mc.Attr("Owner"),
			DateCreated:        dm.date(mc.Child("DateCreated"), "DateCreated"),
			DateCompleted:      dm.date(mc.Child("DateCompleted"), "DateCompleted"),
			DateRevised:        dm.date(mc.Child("DateRevised"), "DateRevised"),
			Article:            mapArticle(article, dm),
			JournalInfo:        mapJournalInfo(mc.Child("MedlineJournalInfo")),
			Chemicals:          mapChemicals(mc.Child("ChemicalList")),
			Keywords:           mapKeywords(mc.All("KeywordList")),
			MeshHeadings:       mapMeshHeadings(mc.Child("MeshHeadingList")),
			NumberOfReferences: dm.integer(mc.Child("NumberOfReferences").Value(), "NumberOfReferences"),
		},
		PubmedData: mapPubmedData(n.Child("PubmedData")),
	}
}

type dateMapper struct {
	log *zap.Logger
}

func (dm dateMapper) integer(s *string, field string) *int {
	if s == nil {
		return nil
	}
	v, err := strconv.Atoi(*s)
	if err != nil {
		dm.log.Warn("Kein ganzzahliger Wert", zap.String("field", field), zap.String("value", *s))
		return nil
	}
	return &v
}

func (dm dateMapper) date(n *xmlstream.Node, field string) Date {
	if n == nil {
		return Date{}
	}
	year, month, day := n.Child("Year").Value(), n.Child("Month").Value(), n.Child("Day").Value()
	d := Date{
		Year:        dm.integer(year, field+".Year"),
		Day:         dm.integer(day, field+".Day"),
		MedlineDate: n.Child("MedlineDate").Value(),
	}
	if month != nil {
		if mo, ok := ParseMonth(*month); ok {
			d.Month = &mo
		} else {
			dm.log.Warn("Unbekannter Monat", zap.String("field", field), zap.String("value", *month))
		}
	}
	if d.Year == nil && d.MedlineDate != nil {
		d.Year = YearFromMedlineDate(*d.MedlineDate)
	}

	t, err := AssembleDate(year, month, day)
	if err != nil {
		dm.log.Warn("Datum konnte nicht gebildet werden", zap.String("field", field), zap.Error(err))
	}
	d.Value = t
	return d
}

func mapArticle(n *xmlstream.Node, dm dateMapper) Article {
	a := Article{
		PubModel:             EnumValue(n.Attr("PubModel")),
		Journal:              mapJournal(n.Child("Journal"), dm),
		Title:                n.Child("ArticleTitle").Value(),
		VernacularTitle:      n.Child("VernacularTitle").Value(),
		Pagination:           n.Path("Pagination", "MedlinePgn").Value(),
		CopyrightInformation: n.Path("Abstract", "CopyrightInformation").Value(),
	}
	for _, l := range n.All("Language") {
		if v := l.Value(); v != nil {
			a.Languages = append(a.Languages, *v)
		}
	}
	for _, t := range n.Path("Abstract").All("AbstractText") {
		a.AbstractTexts = append(a.AbstractTexts, AbstractText{
			Label:    t.Attr("Label"),
			Category: AbstractCategory(t.Attr("NlmCategory")),
			Text:     t.Value(),
		})
	}

	authors := n.Child("AuthorList")
	a.AuthorListComplete = ParseYN(authors.Attr("CompleteYN"))
	for _, au := range authors.All("Author") {
		a.Authors = append(a.Authors, mapAuthor(au, dm.log))
	}

	for _, db := range n.Path("DataBankList").All("DataBank") {
		bank := DataBank{Name: db.Child("DataBankName").Value()}
		for _, acc := range db.Path("AccessionNumberList").All("AccessionNumber") {
			if v := acc.Value(); v != nil {
				bank.AccessionNumbers = append(bank.AccessionNumbers, *v)
			}
		}
		a.DataBanks = append(a.DataBanks, bank)
	}
	for _, g := range n.Path("GrantList").All("Grant") {
		a.Grants = append(a.Grants, Grant{
			GrantID: g.Child("GrantID").Value(),
			Acronym: g.Child("Acronym").Value(),
			Agency:  g.Child("Agency").Value(),
			Country: g.Child("Country").Value(),
		})
	}
	for _, pt := range n.Path("PublicationTypeList").All("PublicationType") {
		a.PublicationTypes = append(a.PublicationTypes, PublicationType{UI: pt.Attr("UI"), Name: pt.Value()})
	}
	for _, e := range n.All("ELocationID") {
		a.ELocationIDs = append(a.ELocationIDs, ELocationID{
			Type:  EnumValue(e.Attr("EIdType")),
			Valid: ParseYN(e.Attr("ValidYN")),
			Value: e.Value(),
		})
	}
	for _, ad := range n.All("ArticleDate") {
		a.ArticleDates = append(a.ArticleDates, dm.date(ad, "ArticleDate"))
	}

	a.Published = a.Journal.PubDate
	if len(a.ArticleDates) > 0 {
		a.Published = publishedDate(a.ArticleDates[0], a.Journal.PubDate)
	}
	return a
}

// publishedDate nimmt jedes Feld aus ArticleDate und fällt feldweise auf PubDate zurück.
func publishedDate(article, pub Date) Date {
	return Date{
		Year:        firstOf(article.Year, pub.Year),
		Month:       firstOf(article.Month, pub.Month),
		Day:         firstOf(article.Day, pub.Day),
		MedlineDate: firstOf(article.MedlineDate, pub.MedlineDate),
		Value:       firstOf(article.Value, pub.Value),
	}
}

func firstOf[T any](v, fallback *T) *T {
	if v != nil {
		return v
	}
	return fallback
}

func mapJournal(n *xmlstream.Node, dm dateMapper) Journal {
	issue := n.Child("JournalIssue")
	return Journal{
		ISSN:            n.Child("ISSN").Value(),
		ISSNType:        EnumValue(n.Child("ISSN").Attr("IssnType")),
		Title:           n.Child("Title").Value(),
		ISOAbbreviation: n.Child("ISOAbbreviation").Value(),
		CitedMedium:     issue.Attr("CitedMedium"),
		Volume:          issue.Child("Volume").Value(),
		Issue:           issue.Child("Issue").Value(),
		PubDate:         dm.date(issue.Child("PubDate"), "PubDate"),
	}
}

func mapAuthor(n *xmlstream.Node, log *zap.Logger) Author {
	a := Author{
		Valid:          ParseYN(n.Attr("ValidYN")),
		LastName:       n.Child("LastName").Value(),
		ForeName:       n.Child("ForeName").Value(),
		Initials:       n.Child("Initials").Value(),
		Suffix:         n.Child("Suffix").Value(),
		CollectiveName: n.Child("CollectiveName").Value(),
	}
	a.Identifier, a.IdentifierSource = authorIdentifier(n.All("Identifier"), log)

	for _, info := range n.All("AffiliationInfo") {
		aff := Affiliation{}
		aff.Identifier, aff.IdentifierSource = firstIdentifier(info.All("Identifier"))
		if text := info.Child("Affiliation").Value(); text != nil {
			email, cleaned := ExtractEmail(*text)
			aff.Email = email
			if cleaned != "" {
				aff.Text = &cleaned
			}
		}
		if a.Email == nil && aff.Email != nil {
			a.Email = aff.Email
		}
		a.Affiliations = append(a.Affiliations, aff)
	}
	return a
}

// authorIdentifier bevorzugt eine ORCID; eine ungültige ORCID wird verworfen.
func authorIdentifier(ids []*xmlstream.Node, log *zap.Logger) (*string, *string) {
	for _, id := range ids {
		src := id.Attr("Source")
		if src == nil || !strings.EqualFold(*src, "ORCID") {
			continue
		}
		raw := id.Value()
		if v := NormalizeORCID(raw); v != nil {
			return v, src
		}
		if raw != nil {
			log.Warn("ORCID verworfen", zap.String("value", *raw))
		}
		return nil, nil
	}
	return firstIdentifier(ids)
}

func firstIdentifier(ids []*xmlstream.Node) (*string, *string) {
	for _, id := range ids {
		if v := id.Value(); v != nil {
			return v, id.Attr("Source")
		}
	}
	return nil, nil
}

func mapJournalInfo(n *xmlstream.Node) MedlineJournalInfo {
	return MedlineJournalInfo{
		Country:     n.Child("Country").Value(),
		MedlineTA:   n.Child("MedlineTA").Value(),
		NlmUniqueID: n.Child("NlmUniqueID").Value(),
		ISSNLinking: n.Child("ISSNLinking").Value(),
	}
}

func mapChemicals(n *xmlstream.Node) []Chemical {
	var out []Chemical
	for _, c := range n.All("Chemical") {
		name := c.Child("NameOfSubstance")
		out = append(out, Chemical{
			RegistryNumber: c.Child("RegistryNumber").Value(),
			UI:             name.Attr("UI"),
			Name:           name.Value(),
		})
	}
	return out
}

func mapKeywords(lists []*xmlstream.Node) []Keyword {
	var out []Keyword
	for _, l := range lists {
		owner := l.Attr("Owner")
		for _, k := range l.All("Keyword") {
			out = append(out, Keyword{Owner: owner, Major: ParseYN(k.Attr("MajorTopicYN")), Text: k.Value()})
		}
	}
	return out
}

func mapMeshHeadings(n *xmlstream.Node) []MeshHeading {
	var out []MeshHeading
	for _, h := range n.All("MeshHeading") {
		heading := MeshHeading{Descriptor: meshTerm(h.Child("DescriptorName"))}
		for _, q := range h.All("QualifierName") {
			heading.Qualifiers = append(heading.Qualifiers, meshTerm(q))
		}
		out = append(out, heading)
	}
	return out
}

func meshTerm(n *xmlstream.Node) MeshTerm {
	return MeshTerm{UI: n.Attr("UI"), Name: n.Value(), Major: ParseYN(n.Attr("MajorTopicYN"))}
}

func mapPubmedData(n *xmlstream.Node) PubmedData {
	d := PubmedData{PublicationStatus: n.Child("PublicationStatus").Value()}
	for _, id := range n.Path("ArticleIdList").All("ArticleId") {
		d.ArticleIDs = append(d.ArticleIDs, ArticleID{Type: EnumValue(id.Attr("IdType")), Value: id.Value()})
	}
	return d
}
