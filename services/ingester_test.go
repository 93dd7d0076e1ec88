package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"medline-loader/models"
	"medline-loader/storage"
	"medline-loader/testutil"
	"medline-loader/xmlstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const minimalRecord = `<PubmedArticle>
  <MedlineCitation Status="MEDLINE" Owner="NLM">
    <PMID Version="1">30000001</PMID>
    <Article PubModel="Print">
      <Journal>
        <ISSN IssnType="Print">1234-5678</ISSN>
        <JournalIssue CitedMedium="Print">
          <Volume>12</Volume>
          <PubDate><Year>2018</Year><Month>Dec</Month><Day>05</Day></PubDate>
        </JournalIssue>
        <Title>Journal of Tests</Title>
      </Journal>
      <ArticleTitle>A minimal record.</ArticleTitle>
      <AuthorList CompleteYN="Y">
        <Author ValidYN="Y"><LastName>Doe</LastName><ForeName>Jane</ForeName><Initials>J</Initials></Author>
      </AuthorList>
      <Language>eng</Language>
    </Article>
    <MedlineJournalInfo><Country>England</Country><NlmUniqueID>0000001</NlmUniqueID></MedlineJournalInfo>
    <MeshHeadingList>
      <MeshHeading>
        <DescriptorName UI="D006801" MajorTopicYN="N">Humans</DescriptorName>
        <QualifierName UI="Q000008" MajorTopicYN="Y">administration &amp; dosage</QualifierName>
        <QualifierName UI="Q000009" MajorTopicYN="N">adverse effects</QualifierName>
      </MeshHeading>
    </MeshHeadingList>
  </MedlineCitation>
  <PubmedData>
    <ArticleIdList><ArticleId IdType="pubmed">30000001</ArticleId></ArticleIdList>
  </PubmedData>
</PubmedArticle>`

func articleSet(records ...string) string {
	return "<?xml version=\"1.0\"?>\n<PubmedArticleSet>\n" + strings.Join(records, "\n") + "\n</PubmedArticleSet>\n"
}

func withPMID(record, pmid string) string {
	return strings.ReplaceAll(record, "30000001", pmid)
}

func newTestIngester(t *testing.T, tx storage.Transactor) *Ingester {
	return NewIngester(tx, testutil.Logger(t), "PubmedArticle")
}

// rowCounts zählt alle Tabellen außer ingested_files.
func rowCounts(t *testing.T, db *gorm.DB) map[string]int64 {
	t.Helper()
	counts := make(map[string]int64)
	for _, m := range models.All() {
		if _, ok := m.(*models.IngestedFile); ok {
			continue
		}
		counts[fmt.Sprintf("%T", m)] = testutil.Count(t, db, m)
	}
	return counts
}

func parseRecord(t *testing.T, record string) *xmlstream.Node {
	t.Helper()
	n, err := xmlstream.NewDecoder(strings.NewReader(record), "PubmedArticle").Next()
	require.NoError(t, err)
	return n
}

func TestIngestMinimalRecord(t *testing.T) {
	st, db := testutil.Store(t)
	seedVocabulary(t, db)
	in := newTestIngester(t, st)
	ctx := context.Background()

	stats, err := in.IngestStream(ctx, strings.NewReader(articleSet(minimalRecord)), "minimal.xml")
	require.NoError(t, err)
	assert.Equal(t, RunStats{Records: 1, Ingested: 1}, stats)

	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Article{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Citation{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Author{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.ArticleAuthorAffiliation{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.CitationIdentifier{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Journal{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.JournalInfo{}))

	var pairs []models.CitationDescriptorQualifier
	require.NoError(t, db.Order("id").Find(&pairs).Error)
	require.Len(t, pairs, 2)
	assert.Equal(t, pairs[0].DescriptorID, pairs[1].DescriptorID)
	assert.True(t, *pairs[0].IsQualifierMajor)
	assert.False(t, *pairs[1].IsQualifierMajor)
	assert.False(t, *pairs[0].IsDescriptorMajor)

	var citation models.Citation
	require.NoError(t, db.First(&citation).Error)
	assert.Equal(t, "30000001", citation.PMID)
	require.NotNil(t, citation.JournalInfoID)

	var article models.Article
	require.NoError(t, db.First(&article).Error)
	require.NotNil(t, article.PublishedAt)
	assert.Equal(t, "2018-12-05", article.PublishedAt.Format("2006-01-02"))

	before := rowCounts(t, db)
	stats, err = in.IngestStream(ctx, strings.NewReader(articleSet(minimalRecord)), "minimal.xml")
	require.NoError(t, err)
	assert.Equal(t, RunStats{Records: 1, Skipped: 1}, stats)
	assert.Equal(t, before, rowCounts(t, db))
}

func TestPersistIsIdempotent(t *testing.T) {
	st, db := testutil.Store(t)
	seedVocabulary(t, db)
	in := newTestIngester(t, st)
	ctx := context.Background()

	doc := in.Mapper.Map(parseRecord(t, minimalRecord))
	persist := func() {
		require.NoError(t, st.WithTransaction(ctx, func(s storage.Store) error {
			return in.persist(ctx, s, in.Logger, doc)
		}))
	}

	persist()
	before := rowCounts(t, db)
	persist()
	assert.Equal(t, before, rowCounts(t, db))
}

func TestIngestSharesEntitiesAcrossRecords(t *testing.T) {
	st, db := testutil.Store(t)
	seedVocabulary(t, db)
	in := newTestIngester(t, st)

	input := articleSet(minimalRecord, withPMID(minimalRecord, "30000002"))
	stats, err := in.IngestStream(context.Background(), strings.NewReader(input), "two.xml")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Ingested)

	assert.EqualValues(t, 2, testutil.Count(t, db, &models.Citation{}))
	assert.EqualValues(t, 2, testutil.Count(t, db, &models.Article{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Author{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Journal{}))
	assert.EqualValues(t, 2, testutil.Count(t, db, &models.ArticleAuthorAffiliation{}))
	assert.EqualValues(t, 4, testutil.Count(t, db, &models.CitationDescriptorQualifier{}))
}

func TestIngestRejectsRecordWithoutTitle(t *testing.T) {
	st, db := testutil.Store(t)
	in := newTestIngester(t, st)

	untitled := strings.Replace(withPMID(minimalRecord, "30000009"), "<ArticleTitle>A minimal record.</ArticleTitle>", "", 1)
	secondVersion := strings.Replace(withPMID(minimalRecord, "30000010"), `Version="1"`, `Version="2"`, 1)
	input := articleSet(untitled, secondVersion, minimalRecord)

	stats, err := in.IngestStream(context.Background(), strings.NewReader(input), "mixed.xml")
	require.NoError(t, err)
	assert.Equal(t, RunStats{Records: 3, Ingested: 1, Rejected: 2}, stats)
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Citation{}))
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Article{}))
}

func TestIngestUnknownMeshIsOmitted(t *testing.T) {
	st, db := testutil.Store(t)
	in := newTestIngester(t, st)

	_, err := in.IngestStream(context.Background(), strings.NewReader(articleSet(minimalRecord)), "novocab.xml")
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Citation{}))
	assert.EqualValues(t, 0, testutil.Count(t, db, &models.CitationDescriptorQualifier{}))
}

func TestIngestMalformedStreamAborts(t *testing.T) {
	st, db := testutil.Store(t)
	in := newTestIngester(t, st)

	input := "<PubmedArticleSet>" + minimalRecord + "<PubmedArticle><MedlineCitation></PubmedArticle>"
	stats, err := in.IngestStream(context.Background(), strings.NewReader(input), "broken.xml")
	require.Error(t, err)
	assert.Equal(t, 1, stats.Ingested)
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Citation{}))
}

func TestIngestFailingStoreRollsBackRecord(t *testing.T) {
	st, db := testutil.Store(t)
	seedVocabulary(t, db)

	// zuerst zählen, wie viele Store-Aufrufe ein Record braucht
	counting := &recordingTransactor{db: st, rec: &recordingStore{}}
	_, err := newTestIngester(t, counting).IngestStream(context.Background(),
		strings.NewReader(articleSet(withPMID(minimalRecord, "1"))), "count.xml")
	require.NoError(t, err)
	last := len(counting.rec.calls)
	require.Greater(t, last, 10)

	failing := &recordingTransactor{db: st, rec: &recordingStore{failAt: last}}
	stats, err := newTestIngester(t, failing).IngestStream(context.Background(),
		strings.NewReader(articleSet(withPMID(minimalRecord, "2"), withPMID(minimalRecord, "3"))), "fail.xml")
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, stats.Ingested)
	assert.Equal(t, 1, stats.Records, "the run stops at the failing record")

	var pmids []string
	require.NoError(t, db.Model(&models.Citation{}).Pluck("pmid", &pmids).Error)
	assert.Equal(t, []string{"1"}, pmids)
}

func TestIngestCanceledContext(t *testing.T) {
	st, db := testutil.Store(t)
	in := newTestIngester(t, st)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.IngestStream(ctx, strings.NewReader(articleSet(minimalRecord)), "canceled.xml")
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, testutil.Count(t, db, &models.Citation{}))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ingested", OutcomeIngested.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
}

func TestIngestStoresAuthorOrdinals(t *testing.T) {
	st, db := testutil.Store(t)
	seedVocabulary(t, db)
	in := newTestIngester(t, st)
	ctx := context.Background()

	single := `<Author ValidYN="Y"><LastName>Doe</LastName><ForeName>Jane</ForeName><Initials>J</Initials></Author>`
	author := func(last string) string {
		return `<Author ValidYN="Y"><LastName>` + last + `</LastName><Initials>X</Initials></Author>`
	}
	// Mu existiert schon und hat daher die kleinste ID
	first := withPMID(strings.Replace(minimalRecord, single, author("Mu"), 1), "2")
	three := strings.Replace(minimalRecord, single, author("Zeta")+author("Alpha")+author("Mu"), 1)

	_, err := in.IngestStream(ctx, strings.NewReader(articleSet(first, three)), "ordinals.xml")
	require.NoError(t, err)

	var citation models.Citation
	require.NoError(t, db.Where("pmid = ?", "30000001").First(&citation).Error)

	var rows []struct {
		Ordinal  int
		NameLast string
		AuthorID uint
	}
	require.NoError(t, db.Table("article_author_affiliations").
		Select("article_author_affiliations.ordinal, authors.name_last, article_author_affiliations.author_id").
		Joins("JOIN authors ON authors.id = article_author_affiliations.author_id").
		Where("article_author_affiliations.article_id = ?", citation.ArticleID).
		Order("article_author_affiliations.ordinal").
		Scan(&rows).Error)

	require.Len(t, rows, 3)
	for i, want := range []string{"Zeta", "Alpha", "Mu"} {
		assert.Equal(t, i+1, rows[i].Ordinal)
		assert.Equal(t, want, rows[i].NameLast)
	}
	assert.Less(t, rows[2].AuthorID, rows[0].AuthorID)
	assert.EqualValues(t, 3, testutil.Count(t, db, &models.Author{}))
}
