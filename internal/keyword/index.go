// Package keyword indexes pattern metadata with Bleve so searches can be
// narrowed to patterns whose metadata matches a text query.
package keyword

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/wavekb/internal/models"
)

// MatchOptions tunes Match. Nil means an exact query-string match.
type MatchOptions struct {
	// Fuzzy matches each query term within Fuzziness edits instead of parsing the
	// query string syntax.
	Fuzzy bool
	// Fuzziness is the maximum edit distance (1 or 2). Defaults to 1.
	Fuzziness int
}

// metadataDoc is what gets indexed for one pattern. Text holds "key value" pairs
// so free text hits both keys and values; Meta keeps typed fields for
// field-scoped queries such as meta.topic:animals or meta.rank:>=2.
type metadataDoc struct {
	Text string          `json:"text"`
	Keys []string        `json:"keys"`
	Meta models.Metadata `json:"meta"`
}

// MetadataIndex is an in-memory Bleve index keyed by pattern id.
type MetadataIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewMetadataIndex creates an empty in-memory index.
func NewMetadataIndex() (*MetadataIndex, error) {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("keys", bleve.NewKeywordFieldMapping())
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata index: %w", err)
	}
	return &MetadataIndex{index: index}, nil
}

// Index adds or replaces the metadata for id.
func (m *MetadataIndex) Index(id string, meta models.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Index(id, toDoc(meta))
}

// Delete removes id. Deleting an unknown id is not an error.
func (m *MetadataIndex) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Delete(id)
}

// Rebuild replaces the whole index with patterns.
func (m *MetadataIndex) Rebuild(patterns []*models.WavePattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.allIDs()
	if err != nil {
		return err
	}
	batch := m.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	for _, p := range patterns {
		if err := batch.Index(p.ID, toDoc(p.Metadata)); err != nil {
			return fmt.Errorf("failed to index %s: %w", p.ID, err)
		}
	}
	return m.index.Batch(batch)
}

// Match returns the ids whose metadata matches query. An empty query is an
// invalid argument.
func (m *MetadataIndex) Match(query string, opts *MatchOptions) (map[string]struct{}, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: metadata query is empty", models.ErrInvalidArgument)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	count, err := m.index.DocCount()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	if count == 0 {
		return out, nil
	}

	var q blevequery.Query
	if opts != nil && opts.Fuzzy {
		q = buildFuzzyQuery(query, opts.Fuzziness)
	} else {
		q = bleve.NewQueryStringQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = int(count)
	results, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata query %q: %v", models.ErrInvalidArgument, query, err)
	}
	for _, hit := range results.Hits {
		out[hit.ID] = struct{}{}
	}
	return out, nil
}

// Len returns the number of indexed patterns.
func (m *MetadataIndex) Len() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.DocCount()
}

// Close releases the index.
func (m *MetadataIndex) Close() error {
	return m.index.Close()
}

func (m *MetadataIndex) allIDs() ([]string, error) {
	count, err := m.index.DocCount()
	if err != nil || count == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	results, err := m.index.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// buildFuzzyQuery ORs a FuzzyQuery per whitespace-separated term.
func buildFuzzyQuery(query string, fuzziness int) blevequery.Query {
	if fuzziness <= 0 {
		fuzziness = 1
	}
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField("text")
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func toDoc(meta models.Metadata) metadataDoc {
	keys := meta.Keys()
	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		if s := formatValue(meta[k]); s != "" {
			b.WriteByte(' ')
			b.WriteString(s)
		}
	}
	return metadataDoc{Text: b.String(), Keys: keys, Meta: meta}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
