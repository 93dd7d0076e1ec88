package services

import (
	"context"

	"medline-loader/models"
	"medline-loader/providers/pubmed"
	"medline-loader/storage"

	"go.uber.org/zap"
)

// Resolved enthält die IDs aller Entitäten eines Records. Die Slices laufen
// parallel zu den Listen im Dokument; 0 steht für eine übersprungene Position.
type Resolved struct {
	JournalInfoID *uint
	JournalID     *uint
	ArticleID     uint
	CitationID    uint

	AbstractTextIDs    []uint
	ChemicalIDs        []uint
	AuthorIDs          []uint
	AffiliationIDs     [][]uint
	PublicationTypeIDs []uint
	KeywordIDs         []uint
	GrantIDs           []uint
	DescriptorIDs      map[string]uint
	QualifierIDs       map[string]uint
	DatabankIDs        []uint
	AccessionNumberIDs [][]uint
}

// resolveEntities legt alle Entitäten eines Records an bzw. findet sie.
// Die Reihenfolge der Schritte ist fest; jeder Schritt wird vorher geloggt.
func (in *Ingester) resolveEntities(ctx context.Context, st storage.Store, log *zap.Logger, doc pubmed.PubmedArticle) (*Resolved, error) {
	mc := doc.MedlineCitation
	art := mc.Article
	r := &Resolved{}
	var err error

	if r.JournalInfoID, err = logged(log, "journal_info", func() (*uint, error) {
		return resolveJournalInfo(ctx, st, mc.JournalInfo)
	}); err != nil {
		return nil, err
	}
	if r.JournalID, err = logged(log, "journal", func() (*uint, error) {
		return resolveJournal(ctx, st, art.Journal)
	}); err != nil {
		return nil, err
	}
	if r.ArticleID, err = logged(log, "article", func() (uint, error) {
		return st.InsertAndReturnID(ctx, newArticle(doc, r.JournalID))
	}); err != nil {
		return nil, err
	}
	if r.CitationID, err = logged(log, "citation", func() (uint, error) {
		return st.InsertAndReturnID(ctx, newCitation(doc, r.ArticleID, r.JournalInfoID))
	}); err != nil {
		return nil, err
	}

	if r.AbstractTextIDs, err = logged(log, "abstract_texts", func() ([]uint, error) {
		return resolveSparse[models.AbstractText](ctx, st, len(art.AbstractTexts), func(i int) (models.AbstractText, bool) {
			t := art.AbstractTexts[i]
			if t.Text == nil {
				return models.AbstractText{}, false
			}
			return models.AbstractText{Label: t.Label, Category: t.Category, Text: *t.Text}, true
		})
	}); err != nil {
		return nil, err
	}

	if r.ChemicalIDs, err = logged(log, "chemicals", func() ([]uint, error) {
		return resolveSparse[models.Chemical](ctx, st, len(mc.Chemicals), func(i int) (models.Chemical, bool) {
			c := mc.Chemicals[i]
			if c.Name == nil {
				return models.Chemical{}, false
			}
			return models.Chemical{RegistryNumber: c.RegistryNumber, UI: c.UI, Name: *c.Name}, true
		})
	}); err != nil {
		return nil, err
	}

	if err = in.resolveAuthors(ctx, st, log, art.Authors, r); err != nil {
		return nil, err
	}

	if r.PublicationTypeIDs, err = logged(log, "publication_types", func() ([]uint, error) {
		return resolveSparse[models.PublicationType](ctx, st, len(art.PublicationTypes), func(i int) (models.PublicationType, bool) {
			p := art.PublicationTypes[i]
			if p.Name == nil {
				return models.PublicationType{}, false
			}
			return models.PublicationType{UI: p.UI, Name: *p.Name}, true
		})
	}); err != nil {
		return nil, err
	}

	if r.KeywordIDs, err = logged(log, "keywords", func() ([]uint, error) {
		return resolveSparse[models.Keyword](ctx, st, len(mc.Keywords), func(i int) (models.Keyword, bool) {
			k := mc.Keywords[i]
			if k.Text == nil {
				return models.Keyword{}, false
			}
			return models.Keyword{Keyword: *k.Text}, true
		})
	}); err != nil {
		return nil, err
	}

	if r.GrantIDs, err = logged(log, "grants", func() ([]uint, error) {
		return resolveSparse[models.Grant](ctx, st, len(art.Grants), func(i int) (models.Grant, bool) {
			g := art.Grants[i]
			if g.GrantID == nil && g.Acronym == nil && g.Agency == nil && g.Country == nil {
				return models.Grant{}, false
			}
			return models.Grant{GrantID: g.GrantID, Acronym: g.Acronym, Agency: g.Agency, Country: g.Country}, true
		})
	}); err != nil {
		return nil, err
	}

	if err = in.resolveMesh(ctx, st, log, mc.MeshHeadings, r); err != nil {
		return nil, err
	}

	if err = resolveDatabanks(ctx, st, log, art.DataBanks, r); err != nil {
		return nil, err
	}
	return r, nil
}

func resolveJournalInfo(ctx context.Context, st storage.Store, info pubmed.MedlineJournalInfo) (*uint, error) {
	if info.NlmUniqueID == nil {
		return nil, nil
	}
	id, err := st.InsertAndReturnID(ctx, &models.JournalInfo{
		NlmUniqueID: *info.NlmUniqueID,
		ISSN:        info.ISSNLinking,
		Country:     info.Country,
		MedlineTA:   info.MedlineTA,
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func resolveJournal(ctx context.Context, st storage.Store, j pubmed.Journal) (*uint, error) {
	if j.ISSN == nil {
		return nil, nil
	}
	id, err := st.InsertAndReturnID(ctx, &models.Journal{
		ISSN:         *j.ISSN,
		ISSNType:     j.ISSNType,
		Title:        j.Title,
		Abbreviation: j.ISOAbbreviation,
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// newArticle baut den Article. Die PMID geht in den Hash ein, damit jede
// Citation ihren eigenen Article erhält.
func newArticle(doc pubmed.PubmedArticle, journalID *uint) *models.Article {
	a := doc.MedlineCitation.Article
	pub := a.Published
	row := &models.Article{
		PubYear:         pub.Year,
		PubMonth:        pub.Month,
		PubDay:          pub.Day,
		PublishedAt:     pub.Value,
		PubModel:        a.PubModel,
		JournalID:       journalID,
		JournalVolume:   a.Journal.Volume,
		JournalIssue:    a.Journal.Issue,
		Title:           *a.Title,
		VernacularTitle: a.VernacularTitle,
		Pagination:      a.Pagination,
		Language:        a.Language(),
	}
	row.ContentHash = ContentHash(
		doc.MedlineCitation.PMID, a.Title, a.Journal.ISSN, a.Journal.Volume, a.Journal.Issue,
		a.Pagination, intString(pub.Year), intString(pub.Month), intString(pub.Day), row.Language,
	)
	return row
}

func newCitation(doc pubmed.PubmedArticle, articleID uint, journalInfoID *uint) *models.Citation {
	mc := doc.MedlineCitation
	return &models.Citation{
		PMID:          *mc.PMID,
		Status:        mc.Status,
		Owner:         mc.Owner,
		DateCreated:   mc.DateCreated.Value,
		DateCompleted: mc.DateCompleted.Value,
		DateRevised:   mc.DateRevised.Value,
		ArticleID:     articleID,
		JournalInfoID: journalInfoID,
		NumReferences: mc.NumberOfReferences,
	}
}

// resolveAuthors überspringt Autoren mit ValidYN="N"; deren Position bleibt 0.
func (in *Ingester) resolveAuthors(ctx context.Context, st storage.Store, log *zap.Logger, authors []pubmed.Author, r *Resolved) error {
	var err error
	r.AuthorIDs, err = logged(log, "authors", func() ([]uint, error) {
		return resolveSparse[models.Author](ctx, st, len(authors), func(i int) (models.Author, bool) {
			a := authors[i]
			if a.Valid != nil && !*a.Valid {
				return models.Author{}, false
			}
			return models.Author{
				LastName:         a.LastName,
				ForeName:         a.ForeName,
				Initials:         a.Initials,
				Suffix:           a.Suffix,
				CollectiveName:   a.CollectiveName,
				Identifier:       a.Identifier,
				IdentifierSource: a.IdentifierSource,
				Email:            a.Email,
			}, true
		})
	})
	if err != nil {
		return err
	}

	// alle Affiliations des Records in einem Batch, danach zurückverteilen
	var (
		flat  []models.Affiliation
		owner [][2]int
	)
	for i, a := range authors {
		if r.AuthorIDs[i] == 0 {
			continue
		}
		for j, aff := range a.Affiliations {
			if aff.Text == nil {
				continue
			}
			flat = append(flat, models.Affiliation{
				Affiliation:      *aff.Text,
				Identifier:       aff.Identifier,
				IdentifierSource: aff.IdentifierSource,
			})
			owner = append(owner, [2]int{i, j})
		}
	}
	ids, err := logged(log, "affiliations", func() ([]uint, error) {
		return ResolveAll(ctx, st, flat)
	})
	if err != nil {
		return err
	}

	r.AffiliationIDs = make([][]uint, len(authors))
	for i, a := range authors {
		r.AffiliationIDs[i] = make([]uint, len(a.Affiliations))
	}
	for k, pos := range owner {
		r.AffiliationIDs[pos[0]][pos[1]] = ids[k]
	}
	return nil
}

func (in *Ingester) resolveMesh(ctx context.Context, st storage.Store, log *zap.Logger, headings []pubmed.MeshHeading, r *Resolved) error {
	var descUIs, qualUIs []string
	for _, h := range headings {
		if h.Descriptor.UI != nil {
			descUIs = append(descUIs, *h.Descriptor.UI)
		}
		for _, q := range h.Qualifiers {
			if q.UI != nil {
				qualUIs = append(qualUIs, *q.UI)
			}
		}
	}

	var err error
	if r.DescriptorIDs, err = logged(log, "descriptors", func() (map[string]uint, error) {
		return in.Vocab.Descriptors(ctx, st, descUIs)
	}); err != nil {
		return err
	}
	r.QualifierIDs, err = logged(log, "qualifiers", func() (map[string]uint, error) {
		return in.Vocab.Qualifiers(ctx, st, qualUIs)
	})
	return err
}

func resolveDatabanks(ctx context.Context, st storage.Store, log *zap.Logger, banks []pubmed.DataBank, r *Resolved) error {
	var err error
	r.DatabankIDs, err = logged(log, "databanks", func() ([]uint, error) {
		return resolveSparse[models.Databank](ctx, st, len(banks), func(i int) (models.Databank, bool) {
			if banks[i].Name == nil {
				return models.Databank{}, false
			}
			return models.Databank{Name: *banks[i].Name}, true
		})
	})
	if err != nil {
		return err
	}

	var (
		flat  []models.AccessionNumber
		owner [][2]int
	)
	for i, b := range banks {
		if r.DatabankIDs[i] == 0 {
			continue
		}
		for j, acc := range b.AccessionNumbers {
			flat = append(flat, models.AccessionNumber{AccessionNumber: acc})
			owner = append(owner, [2]int{i, j})
		}
	}
	ids, err := logged(log, "accession_numbers", func() ([]uint, error) {
		return ResolveAll(ctx, st, flat)
	})
	if err != nil {
		return err
	}

	r.AccessionNumberIDs = make([][]uint, len(banks))
	for i, b := range banks {
		r.AccessionNumberIDs[i] = make([]uint, len(b.AccessionNumbers))
	}
	for k, pos := range owner {
		r.AccessionNumberIDs[pos[0]][pos[1]] = ids[k]
	}
	return nil
}
