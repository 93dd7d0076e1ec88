package services

import (
	"context"

	"medline-loader/models"
	"medline-loader/providers/pubmed"
	"medline-loader/storage"
)

// Graph enthält alle Verknüpfungszeilen eines Records.
type Graph struct {
	AuthorAffiliations   []models.ArticleAuthorAffiliation
	AbstractTexts        []models.ArticleAbstractText
	PublicationTypes     []models.ArticlePublicationType
	Grants               []models.ArticleGrant
	DatabankAccessions   []models.ArticleDatabankAccessionNumber
	Chemicals            []models.CitationChemical
	Keywords             []models.CitationKeyword
	DescriptorQualifiers []models.CitationDescriptorQualifier
	Identifiers          []models.CitationIdentifier
}

// Rows zählt alle Zeilen des Graphen.
func (g *Graph) Rows() int {
	return len(g.AuthorAffiliations) + len(g.AbstractTexts) + len(g.PublicationTypes) +
		len(g.Grants) + len(g.DatabankAccessions) + len(g.Chemicals) + len(g.Keywords) +
		len(g.DescriptorQualifiers) + len(g.Identifiers)
}

// Persist schreibt alle Tabellen per Insert-or-ignore. Leere Tabellen werden übersprungen.
func (g *Graph) Persist(ctx context.Context, st storage.Store) error {
	for _, rows := range []any{
		&g.AuthorAffiliations, &g.AbstractTexts, &g.PublicationTypes, &g.Grants,
		&g.DatabankAccessions, &g.Chemicals, &g.Keywords, &g.DescriptorQualifiers, &g.Identifiers,
	} {
		if err := st.BulkInsertOrIgnore(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

// BuildGraph baut die Verknüpfungen aus Dokument und aufgelösten IDs.
// Positionen (Autoren, Abstract-Abschnitte) kommen aus der Quellreihenfolge.
func BuildGraph(doc pubmed.PubmedArticle, r *Resolved) (*Graph, error) {
	mc := doc.MedlineCitation
	art := mc.Article
	g := &Graph{}

	if err := CheckLengths(len(art.Authors), len(r.AuthorIDs), len(r.AffiliationIDs)); err != nil {
		return nil, err
	}
	for i, authorID := range r.AuthorIDs {
		if authorID == 0 {
			continue
		}
		if err := CheckLengths(len(art.Authors[i].Affiliations), len(r.AffiliationIDs[i])); err != nil {
			return nil, err
		}
		g.addAuthor(r.ArticleID, authorID, i+1, r.AffiliationIDs[i])
	}

	if err := CheckLengths(len(art.AbstractTexts), len(r.AbstractTextIDs)); err != nil {
		return nil, err
	}
	for i, id := range r.AbstractTextIDs {
		if id == 0 {
			continue
		}
		g.AbstractTexts = append(g.AbstractTexts, models.ArticleAbstractText{
			ArticleID: r.ArticleID, AbstractTextID: id, Ordinal: i + 1,
			ContentAddress: models.ContentAddress{ContentHash: linkHash("article_abstract_texts", r.ArticleID, id, i+1)},
		})
	}

	if err := CheckLengths(len(art.PublicationTypes), len(r.PublicationTypeIDs)); err != nil {
		return nil, err
	}
	for _, id := range distinct(r.PublicationTypeIDs) {
		g.PublicationTypes = append(g.PublicationTypes, models.ArticlePublicationType{
			ArticleID: r.ArticleID, PublicationTypeID: id,
			ContentAddress: models.ContentAddress{ContentHash: linkHash("article_publication_types", r.ArticleID, id)},
		})
	}

	if err := CheckLengths(len(art.Grants), len(r.GrantIDs)); err != nil {
		return nil, err
	}
	for _, id := range distinct(r.GrantIDs) {
		g.Grants = append(g.Grants, models.ArticleGrant{
			ArticleID: r.ArticleID, GrantID: id,
			ContentAddress: models.ContentAddress{ContentHash: linkHash("article_grants", r.ArticleID, id)},
		})
	}

	if err := CheckLengths(len(art.DataBanks), len(r.DatabankIDs), len(r.AccessionNumberIDs)); err != nil {
		return nil, err
	}
	for i, bankID := range r.DatabankIDs {
		if bankID == 0 {
			continue
		}
		g.addDatabank(r.ArticleID, bankID, r.AccessionNumberIDs[i])
	}

	if err := CheckLengths(len(mc.Chemicals), len(r.ChemicalIDs)); err != nil {
		return nil, err
	}
	for _, id := range distinct(r.ChemicalIDs) {
		g.Chemicals = append(g.Chemicals, models.CitationChemical{
			CitationID: r.CitationID, ChemicalID: id,
			ContentAddress: models.ContentAddress{ContentHash: linkHash("citation_chemicals", r.CitationID, id)},
		})
	}

	if err := CheckLengths(len(mc.Keywords), len(r.KeywordIDs)); err != nil {
		return nil, err
	}
	seen := make(map[uint]bool)
	for i, id := range r.KeywordIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		g.Keywords = append(g.Keywords, models.CitationKeyword{
			CitationID: r.CitationID, KeywordID: id, IsMajor: mc.Keywords[i].Major,
			ContentAddress: models.ContentAddress{ContentHash: linkHash("citation_keywords", r.CitationID, id)},
		})
	}

	for _, h := range mc.MeshHeadings {
		g.addMeshHeading(r, h)
	}

	for _, aid := range doc.PubmedData.ArticleIDs {
		if aid.Type == nil || aid.Value == nil {
			continue
		}
		g.Identifiers = append(g.Identifiers, models.CitationIdentifier{
			CitationID: r.CitationID, IdentifierType: *aid.Type, Identifier: *aid.Value,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("citation_identifiers", r.CitationID, *aid.Type, *aid.Value),
			},
		})
	}
	return g, nil
}

// addAuthor legt pro Affiliation eine Zeile an, ohne Affiliation eine Zeile mit NULL.
func (g *Graph) addAuthor(articleID, authorID uint, ordinal int, affiliationIDs []uint) {
	var linked bool
	for _, affID := range affiliationIDs {
		if affID == 0 {
			continue
		}
		affID := affID
		g.AuthorAffiliations = append(g.AuthorAffiliations, models.ArticleAuthorAffiliation{
			ArticleID: articleID, AuthorID: authorID, AffiliationID: &affID, Ordinal: ordinal,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("article_author_affiliations", articleID, authorID, &affID, ordinal),
			},
		})
		linked = true
	}
	if !linked {
		g.AuthorAffiliations = append(g.AuthorAffiliations, models.ArticleAuthorAffiliation{
			ArticleID: articleID, AuthorID: authorID, Ordinal: ordinal,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("article_author_affiliations", articleID, authorID, nil, ordinal),
			},
		})
	}
}

func (g *Graph) addDatabank(articleID, bankID uint, accessionIDs []uint) {
	var linked bool
	for _, accID := range accessionIDs {
		if accID == 0 {
			continue
		}
		accID := accID
		g.DatabankAccessions = append(g.DatabankAccessions, models.ArticleDatabankAccessionNumber{
			ArticleID: articleID, DatabankID: bankID, AccessionNumberID: &accID,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("article_databank_accession_numbers", articleID, bankID, &accID),
			},
		})
		linked = true
	}
	if !linked {
		g.DatabankAccessions = append(g.DatabankAccessions, models.ArticleDatabankAccessionNumber{
			ArticleID: articleID, DatabankID: bankID,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("article_databank_accession_numbers", articleID, bankID, nil),
			},
		})
	}
}

// addMeshHeading: unbekannte Deskriptoren und Qualifier werden still übergangen.
// Bleibt kein Qualifier übrig, entsteht eine Zeile mit QualifierID NULL.
func (g *Graph) addMeshHeading(r *Resolved, h pubmed.MeshHeading) {
	if h.Descriptor.UI == nil {
		return
	}
	descID, ok := r.DescriptorIDs[*h.Descriptor.UI]
	if !ok {
		return
	}

	var linked bool
	for _, q := range h.Qualifiers {
		if q.UI == nil {
			continue
		}
		qualID, ok := r.QualifierIDs[*q.UI]
		if !ok {
			continue
		}
		g.DescriptorQualifiers = append(g.DescriptorQualifiers, models.CitationDescriptorQualifier{
			CitationID: r.CitationID, DescriptorID: descID, QualifierID: &qualID,
			IsDescriptorMajor: h.Descriptor.Major, IsQualifierMajor: q.Major,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("citation_descriptors_qualifiers", r.CitationID, descID, &qualID),
			},
		})
		linked = true
	}
	if !linked {
		g.DescriptorQualifiers = append(g.DescriptorQualifiers, models.CitationDescriptorQualifier{
			CitationID: r.CitationID, DescriptorID: descID, IsDescriptorMajor: h.Descriptor.Major,
			ContentAddress: models.ContentAddress{
				ContentHash: linkHash("citation_descriptors_qualifiers", r.CitationID, descID, nil),
			},
		})
	}
}

// distinct entfernt Nullen und Duplikate unter Erhalt der Reihenfolge.
func distinct(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
