// Package eutils holt PubmedArticleSet-XML über die NCBI E-utilities.
//
// Eine Location "eutils:<suchterm>" wird per ESearch in PMID-Blöcke zerlegt;
// jeder Block ist eine eigene Location "eutils:pmid:<id>,<id>,..." und wird
// per EFetch als XML-Stream geöffnet.
package eutils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Scheme ist das Präfix aller E-utilities-Locations.
const Scheme = "eutils:"

const pmidPrefix = Scheme + "pmid:"

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Source implementiert providers.Source für ESearch/EFetch.
type Source struct {
	BaseURL   string
	APIKey    string
	Tool      string
	Email     string
	BatchSize int
	Client    *http.Client
	Logger    *zap.Logger
}

// New erstellt eine Source. batchSize begrenzt die PMIDs pro EFetch.
func New(baseURL, apiKey string, batchSize int, logger *zap.Logger) *Source {
	if batchSize <= 0 {
		batchSize = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		BatchSize: batchSize,
		Client:    httpClient,
		Logger:    logger,
	}
}

func (s *Source) Name() string { return "eutils" }

// IsQuery meldet, ob location eine E-utilities-Location ist.
func IsQuery(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// List sucht alle PMIDs zum Term und gibt sie blockweise als Locations zurück.
// PMID-Locations werden unverändert zurückgegeben.
func (s *Source) List(ctx context.Context, location string) ([]string, error) {
	if strings.HasPrefix(location, pmidPrefix) {
		return []string{location}, nil
	}
	term, ok := strings.CutPrefix(location, Scheme)
	if !ok || strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("not an eutils query: %q", location)
	}

	ids, err := s.searchIDs(ctx, term)
	if err != nil {
		return nil, err
	}
	var out []string
	for start := 0; start < len(ids); start += s.BatchSize {
		end := min(start+s.BatchSize, len(ids))
		out = append(out, pmidPrefix+strings.Join(ids[start:end], ","))
	}
	return out, nil
}

// Open ruft EFetch für einen PMID-Block auf. Der Body ist der XML-Stream.
func (s *Source) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	ids, ok := strings.CutPrefix(location, pmidPrefix)
	if !ok || ids == "" {
		return nil, fmt.Errorf("not an eutils pmid location: %q", location)
	}

	form := s.params()
	form.Set("id", ids)
	form.Set("retmode", "xml")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/efetch.fcgi", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.Logger.Debug("Rufe EFetch auf", zap.Int("pmids", strings.Count(ids, ",")+1))
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		s.Logger.Error("EFetch-API hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("efetch failed: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IdList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (s *Source) searchIDs(ctx context.Context, term string) ([]string, error) {
	log := s.Logger.With(zap.String("term", term))
	log.Info("Starte PubMed ESearch für IDs.")

	var allIDs []string
	for offset := 0; ; offset += s.BatchSize {
		ids, err := s.esearch(ctx, term, s.BatchSize, offset)
		if err != nil {
			log.Error("ESearch-Anfrage fehlgeschlagen", zap.Int("offset", offset), zap.Error(err))
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		allIDs = append(allIDs, ids...)
		log.Debug("Erfolgreich IDs von ESearch erhalten", zap.Int("count", len(ids)), zap.Int("offset", offset))

		if len(ids) < s.BatchSize {
			break
		}
	}
	log.Info("PubMed ESearch abgeschlossen", zap.Int("total_ids", len(allIDs)))
	return allIDs, nil
}

func (s *Source) esearch(ctx context.Context, term string, retmax, retstart int) ([]string, error) {
	q := s.params()
	q.Set("term", term)
	q.Set("retmode", "json")
	q.Set("retmax", strconv.Itoa(retmax))
	q.Set("retstart", strconv.Itoa(retstart))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/esearch.fcgi?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("esearch failed: status %d", resp.StatusCode)
	}
	var out esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("esearch response: %w", err)
	}
	return out.ESearchResult.IdList, nil
}

func (s *Source) params() url.Values {
	v := url.Values{"db": {"pubmed"}}
	if s.APIKey != "" {
		v.Set("api_key", s.APIKey)
	}
	if s.Tool != "" {
		v.Set("tool", s.Tool)
	}
	if s.Email != "" {
		v.Set("email", s.Email)
	}
	return v
}
