// Package knowledge is the integration boundary of wavekb: one Engine wires the
// converter, store, resonance search, absorption, metadata index and
// persistence together and logs every operation.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/absorb"
	"github.com/hyperjump/wavekb/internal/embedding"
	"github.com/hyperjump/wavekb/internal/keyword"
	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/persistence"
	"github.com/hyperjump/wavekb/internal/search"
	"github.com/hyperjump/wavekb/internal/store"
	"github.com/hyperjump/wavekb/internal/wave"
)

// Engine is the knowledge base. It is safe for concurrent use; the store's lock
// serializes mutations, and writeMu keeps each store write and its metadata
// index update together.
type Engine struct {
	writeMu sync.Mutex

	store     *store.Store
	converter *wave.Converter
	index     *search.Index
	absorber  *absorb.Engine
	meta      *keyword.MetadataIndex
	embedder  embedding.Embedder
	archive   *persistence.Archive
	logger    *zap.Logger
	newID     func() string

	snapshotPath    string
	archiveKeep     int
	defaultTopK     int
	maxTopK         int
	defaultMinRes   float64
	defaultStrength float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEmbedder enables text requests.
func WithEmbedder(em embedding.Embedder) Option {
	return func(e *Engine) { e.embedder = em }
}

// WithSnapshotPath sets where Save and Load read and write.
func WithSnapshotPath(path string) Option {
	return func(e *Engine) { e.snapshotPath = path }
}

// WithArchive makes Save also append to a, pruned to keep entries.
func WithArchive(a *persistence.Archive, keep int) Option {
	return func(e *Engine) {
		e.archive = a
		e.archiveKeep = keep
	}
}

// WithSearchDefaults sets the top_k used when a request leaves it unset, the cap
// applied to every request, and the min_resonance used when a request leaves it unset.
func WithSearchDefaults(defaultTopK, maxTopK int, minResonance float64) Option {
	return func(e *Engine) {
		e.defaultTopK = defaultTopK
		e.maxTopK = maxTopK
		e.defaultMinRes = minResonance
	}
}

// WithAbsorbStrength sets the strength used when a request leaves it unset.
func WithAbsorbStrength(s float64) Option {
	return func(e *Engine) { e.defaultStrength = s }
}

// WithIDGenerator replaces the uuid generator used for requests without an id.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New builds an Engine over s and indexes the metadata already in it.
func New(s *store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		s = store.New()
	}
	meta, err := keyword.NewMetadataIndex()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		store:           s,
		converter:       wave.NewConverter(),
		index:           search.NewIndex(nil),
		absorber:        absorb.NewEngine(),
		meta:            meta,
		logger:          zap.NewNop(),
		newID:           uuid.NewString,
		defaultTopK:     10,
		maxTopK:         100,
		defaultStrength: 0.5,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.meta.Rebuild(e.store.List()); err != nil {
		_ = e.meta.Close()
		return nil, err
	}
	return e, nil
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Convert turns an embedding into a wave pattern without storing it.
func (e *Engine) Convert(embedding []float64, meta models.Metadata) (*models.WavePattern, error) {
	p, err := e.converter.Convert(embedding, meta)
	if err != nil {
		return nil, e.fail("convert", err)
	}
	return p, nil
}

// ConvertInput converts an embedding, or text through the embedder when the
// embedding is empty, without storing the result.
func (e *Engine) ConvertInput(ctx context.Context, embedding []float64, text string, meta models.Metadata) (*models.WavePattern, error) {
	vec, err := e.vector(ctx, embedding, text)
	if err != nil {
		return nil, e.fail("convert", err)
	}
	return e.Convert(vec, meta)
}

// Insert stores a fully formed pattern.
func (e *Engine) Insert(p *models.WavePattern) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := e.store.Insert(p); err != nil {
		return e.fail("insert", err, zap.String("id", idOf(p)))
	}
	e.indexMetadata(p.ID, p.Metadata)
	e.logger.Debug("pattern inserted", zap.String("id", p.ID))
	return nil
}

// Remember converts the request's embedding (or text) and stores the result.
// A missing id is replaced with a new uuid.
func (e *Engine) Remember(req *models.InsertRequest) (*models.WavePattern, error) {
	if req == nil {
		return nil, e.fail("remember", fmt.Errorf("%w: request is nil", models.ErrInvalidArgument))
	}
	vec, err := e.vector(context.Background(), req.Embedding, req.Text)
	if err != nil {
		return nil, e.fail("remember", err)
	}
	p, err := e.converter.Convert(vec, req.Metadata)
	if err != nil {
		return nil, e.fail("remember", err)
	}
	p.ID = req.ID
	if p.ID == "" {
		p.ID = e.newID()
	}
	if err := e.Insert(p); err != nil {
		return nil, err
	}
	return e.store.Get(p.ID)
}

// Get returns a copy of the pattern stored under id.
func (e *Engine) Get(id string) (*models.WavePattern, error) {
	p, err := e.store.Get(id)
	if err != nil {
		return nil, e.fail("get", err, zap.String("id", id))
	}
	return p, nil
}

// Update replaces the pattern stored under id.
func (e *Engine) Update(id string, p *models.WavePattern) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := e.store.Update(id, p); err != nil {
		return e.fail("update", err, zap.String("id", id))
	}
	e.indexMetadata(id, p.Metadata)
	e.logger.Debug("pattern updated", zap.String("id", id))
	return nil
}

// Delete removes id. Other patterns keep it in their absorbed ids.
func (e *Engine) Delete(id string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := e.store.Delete(id); err != nil {
		return e.fail("delete", err, zap.String("id", id))
	}
	if err := e.meta.Delete(id); err != nil {
		e.logger.Warn("metadata index delete failed", zap.String("id", id), zap.Error(err))
	}
	e.logger.Debug("pattern deleted", zap.String("id", id))
	return nil
}

// List returns up to limit patterns starting at offset, in insertion order, and
// the total count. limit <= 0 means no limit.
func (e *Engine) List(offset, limit int) ([]*models.WavePattern, int) {
	all := e.store.List()
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total
}

// Len returns the number of stored patterns.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Search ranks stored patterns by resonance with query. The request's embedding
// and text are ignored; every other field applies.
func (e *Engine) Search(query *models.WavePattern, req *models.SearchRequest) (*models.SearchResponse, error) {
	if req == nil {
		req = &models.SearchRequest{}
	}
	start := time.Now()
	r := *req
	r.ApplyDefaults(e.defaultTopK, e.maxTopK)
	minRes := e.defaultMinRes
	if r.MinResonance != nil {
		minRes = *r.MinResonance
	}

	opts := search.Options{
		TopK:         r.TopK,
		MinResonance: minRes,
		ExcludeIDs:   r.ExcludeIDs,
		Explain:      r.Explain,
	}
	if r.MetadataQuery != "" {
		allowed, err := e.meta.Match(r.MetadataQuery, nil)
		if err != nil {
			return nil, e.fail("search", err)
		}
		opts.Filter = func(id string) bool {
			_, ok := allowed[id]
			return ok
		}
	}

	results, stats, err := e.index.SearchWithStats(e.store, query, opts)
	if err != nil {
		return nil, e.fail("search", err)
	}
	for _, res := range results {
		// A concurrent delete can remove a hit between scoring and here.
		if p, err := e.store.Get(res.ID); err == nil {
			res.Pattern = p
		}
	}
	resp := &models.SearchResponse{
		Results:   results,
		Total:     stats.Matched,
		Scanned:   stats.Scanned,
		QueryTime: time.Since(start).Microseconds(),
		Query:     query,
	}
	e.logger.Debug("search",
		zap.Int("top_k", r.TopK),
		zap.Float64("min_resonance", minRes),
		zap.Int("scanned", stats.Scanned),
		zap.Int("matched", stats.Matched),
		zap.Int("returned", len(results)),
	)
	return resp, nil
}

// SearchEmbedding converts the request's embedding (or text) into a query
// pattern and searches with it.
func (e *Engine) SearchEmbedding(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if req == nil {
		return nil, e.fail("search", fmt.Errorf("%w: request is nil", models.ErrInvalidArgument))
	}
	vec, err := e.vector(ctx, req.Embedding, req.Text)
	if err != nil {
		return nil, e.fail("search", err)
	}
	query, err := e.converter.Convert(vec, nil)
	if err != nil {
		return nil, e.fail("search", err)
	}
	return e.Search(query, req)
}

// Absorb blends the request's sources into its target. A zero strength uses the
// configured default.
func (e *Engine) Absorb(req *models.AbsorbRequest) (*models.AbsorbResponse, error) {
	if req == nil {
		return nil, e.fail("absorb", fmt.Errorf("%w: request is nil", models.ErrInvalidArgument))
	}
	if err := req.Validate(); err != nil {
		return nil, e.fail("absorb", err)
	}
	strength := req.Strength
	if strength == 0 {
		strength = e.defaultStrength
	}
	report, err := e.absorber.AbsorbWithReport(e.store, req.TargetID, req.SourceIDs, strength)
	if err != nil {
		return nil, e.fail("absorb", err, zap.String("target", req.TargetID), zap.Strings("sources", req.SourceIDs))
	}
	e.logger.Info("absorbed",
		zap.String("target", req.TargetID),
		zap.Strings("sources", req.SourceIDs),
		zap.Float64("strength", strength),
		zap.Float64("energy_before", report.EnergyBefore),
		zap.Float64("energy_after", report.Pattern.Energy),
		zap.Int("depth_after", report.Pattern.ExpansionDepth),
	)
	return &models.AbsorbResponse{
		Pattern:        report.Pattern,
		EnergyBefore:   report.EnergyBefore,
		DepthBefore:    report.DepthBefore,
		SourcesApplied: report.SourcesApplied,
	}, nil
}

// Save writes the snapshot file and, when an archive is configured, appends to it.
func (e *Engine) Save(ctx context.Context) error {
	if e.snapshotPath == "" && e.archive == nil {
		return e.fail("save", fmt.Errorf("%w: no snapshot path or archive configured", models.ErrInvalidArgument))
	}
	if e.snapshotPath != "" {
		if err := persistence.Save(e.store, e.snapshotPath); err != nil {
			return e.fail("save", err, zap.String("path", e.snapshotPath))
		}
	}
	if e.archive != nil {
		if _, err := e.archive.SaveSnapshot(ctx, e.store); err != nil {
			return e.fail("save", err)
		}
		if _, err := e.archive.Prune(ctx, e.archiveKeep); err != nil {
			return e.fail("save", err)
		}
	}
	e.logger.Info("knowledge saved", zap.String("path", e.snapshotPath), zap.Int("patterns", e.store.Len()))
	return nil
}

// Load replaces the contents with the snapshot file. On failure nothing changes.
func (e *Engine) Load() error {
	if e.snapshotPath == "" {
		return e.fail("load", fmt.Errorf("%w: no snapshot path configured", models.ErrInvalidArgument))
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := persistence.LoadInto(e.store, e.snapshotPath); err != nil {
		return e.fail("load", err, zap.String("path", e.snapshotPath))
	}
	if err := e.meta.Rebuild(e.store.List()); err != nil {
		e.logger.Warn("metadata index rebuild failed", zap.Error(err))
	}
	e.logger.Info("knowledge loaded", zap.String("path", e.snapshotPath), zap.Int("patterns", e.store.Len()))
	return nil
}

// Snapshotter returns a periodic saver for this engine's store and snapshot
// targets.
func (e *Engine) Snapshotter(interval time.Duration) *persistence.Snapshotter {
	opts := []persistence.SnapshotterOption{persistence.WithLogger(e.logger)}
	if e.archive != nil {
		opts = append(opts, persistence.WithArchive(e.archive, e.archiveKeep))
	}
	return persistence.NewSnapshotter(e.store, e.snapshotPath, interval, opts...)
}

// Close releases the metadata index, archive and embedder.
func (e *Engine) Close() error {
	var errs []error
	errs = append(errs, e.meta.Close())
	if e.archive != nil {
		errs = append(errs, e.archive.Close())
	}
	if e.embedder != nil {
		errs = append(errs, e.embedder.Close())
	}
	return errors.Join(errs...)
}

func (e *Engine) vector(ctx context.Context, vec []float64, text string) ([]float64, error) {
	if len(vec) > 0 {
		return vec, nil
	}
	if text == "" {
		return nil, fmt.Errorf("%w: embedding is empty", models.ErrInvalidEmbedding)
	}
	if e.embedder == nil {
		return nil, fmt.Errorf("%w: text requests need an embedder", models.ErrInvalidArgument)
	}
	f32, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(f32))
	for i, v := range f32 {
		out[i] = float64(v)
	}
	return out, nil
}

func (e *Engine) indexMetadata(id string, meta models.Metadata) {
	if err := e.meta.Index(id, meta); err != nil {
		e.logger.Warn("metadata index update failed", zap.String("id", id), zap.Error(err))
	}
}

func (e *Engine) fail(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.String("kind", models.ErrorKind(err)), zap.Error(err))
	e.logger.Warn("knowledge operation failed", fields...)
	return err
}

func idOf(p *models.WavePattern) string {
	if p == nil {
		return ""
	}
	return p.ID
}
