// Package ingest populates the anime embedding index from the
// relational store: it walks the anime table in chunks, builds a
// combined text per record, embeds it, and upserts the vectors.
package ingest

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ayaka-io/animatch/ai"
	"github.com/ayaka-io/animatch/store"
)

// Options tunes the ingestion run. Zero values fall back to defaults.
type Options struct {
	// ChunkSize is the number of records fetched per store query.
	ChunkSize int

	// BatchSize is the number of texts embedded per API call.
	BatchSize int

	// Concurrency bounds the number of in-flight embedding calls.
	Concurrency int

	// RequestsPerSecond limits embedding API calls.
	RequestsPerSecond float64
}

const (
	defaultChunkSize   = 1000
	defaultBatchSize   = 100
	defaultConcurrency = 4
	defaultRPS         = 5
)

// Ingester generates and stores embeddings for the anime corpus.
type Ingester struct {
	driver   store.Driver
	embedder ai.EmbeddingService
	model    string
	opts     Options
	limiter  *rate.Limiter
}

// New creates an Ingester. The model name is recorded alongside each
// stored vector so a model switch is detectable.
func New(driver store.Driver, embedder ai.EmbeddingService, model string, opts Options) *Ingester {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRPS
	}
	return &Ingester{
		driver:   driver,
		embedder: embedder,
		model:    model,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// Run walks the whole corpus and upserts one embedding per record.
// Returns the number of records embedded.
func (i *Ingester) Run(ctx context.Context) (int, error) {
	total, err := i.driver.CountAnimes(ctx)
	if err != nil {
		return 0, err
	}
	slog.Info("starting embedding ingestion", "total", total, "model", i.model)

	var processed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Concurrency)

	for offset := 0; offset < total; offset += i.opts.ChunkSize {
		animes, err := i.driver.ListAnimes(ctx, &store.ListAnime{
			Offset: offset,
			Limit:  i.opts.ChunkSize,
		})
		if err != nil {
			return int(processed.Load()), err
		}

		for start := 0; start < len(animes); start += i.opts.BatchSize {
			end := start + i.opts.BatchSize
			if end > len(animes) {
				end = len(animes)
			}
			batch := animes[start:end]
			g.Go(func() error {
				if err := i.embedBatch(gctx, batch); err != nil {
					return err
				}
				processed.Add(int64(len(batch)))
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return int(processed.Load()), err
	}
	slog.Info("embedding ingestion finished", "processed", processed.Load())
	return int(processed.Load()), nil
}

func (i *Ingester) embedBatch(ctx context.Context, batch []*store.Anime) error {
	if err := i.limiter.Wait(ctx); err != nil {
		return err
	}

	texts := make([]string, len(batch))
	for n, anime := range batch {
		texts[n] = CombinedText(anime)
	}

	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		slog.Warn("embedding count mismatch", "want", len(batch), "got", len(vectors))
	}

	for n, anime := range batch {
		if n >= len(vectors) {
			break
		}
		if err := i.driver.UpsertAnimeEmbedding(ctx, &store.UpsertAnimeEmbedding{
			AnimeID:   anime.ID,
			Embedding: vectors[n],
			Model:     i.model,
		}); err != nil {
			return err
		}
	}
	return nil
}

// CombinedText builds the text that gets embedded for one record:
// title, description and genres joined into a single string, the same
// composition the query side searches against.
func CombinedText(a *store.Anime) string {
	parts := []string{a.Title}
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if a.Genres != "" && a.Genres != "[]" {
		parts = append(parts, a.Genres)
	}
	return strings.Join(parts, " ")
}
