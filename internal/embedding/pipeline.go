// Package embedding turns documents into stored vectors: query documents as a
// single vector, candidate documents as one vector per chunk.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/ai"
	"github.com/spigell/cv-align/internal/logger"
	"github.com/spigell/cv-align/internal/utils"
	"github.com/spigell/cv-align/internal/vectorstore"
)

// ErrEmptyDocument is returned for text without any words.
var ErrEmptyDocument = errors.New("document has no text")

// Store is the part of the vector store the pipeline writes through.
type Store interface {
	Replace(key vectorstore.Key, entry vectorstore.Entry) (*vectorstore.Stats, error)
	Store(key vectorstore.Key, entries ...vectorstore.Entry) (*vectorstore.Stats, error)
}

// Document is one piece of text to ingest. CandidateID is optional and only
// used for candidate documents.
type Document struct {
	TenantID    string
	JobID       string
	CandidateID string
	Text        string
}

// Result reports what an ingestion wrote.
type Result struct {
	Key       vectorstore.Key    `json:"-"`
	Stats     *vectorstore.Stats `json:"stats"`
	RecordIDs []string           `json:"record_ids"`
}

// Pipeline embeds documents and persists them with their metadata.
type Pipeline struct {
	store    Store
	embedder ai.Embedder
	chunker  *Chunker
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New wires a pipeline. A nil chunker falls back to the default window.
func New(store Store, embedder ai.Embedder, chunker *Chunker, log *zap.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("vector store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if chunker == nil {
		var err error
		chunker, err = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
		if err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		logger:   log,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// IngestQuery replaces the query document of (tenant, job) with one vector
// of the whole text. The embedding is computed before anything is removed, so
// a failing embedder leaves the previous query in place.
func (p *Pipeline) IngestQuery(ctx context.Context, doc Document) (*Result, error) {
	key := vectorstore.QueryKey(doc.TenantID, doc.JobID)
	if err := key.Validate(); err != nil {
		return nil, err
	}

	text := utils.OneLine(doc.Text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	log := logger.WithDocument(p.logger, logger.Document{TenantID: key.TenantID, JobID: key.JobID, Kind: string(key.Kind)})

	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query document: %w", err)
	}

	rec := p.record(key, doc.CandidateID, text, nil)
	stats, err := p.store.Replace(key, vectorstore.Entry{Vector: vec, Record: rec})
	if err != nil {
		return nil, fmt.Errorf("store query document: %w", err)
	}

	log.Info("query document stored", zap.Int("dimension", len(vec)))

	return &Result{Key: key, Stats: stats, RecordIDs: []string{rec.RecordID}}, nil
}

// IngestCandidate chunks the text, embeds every chunk and appends all of them
// to the candidate document of (tenant, job) in one locked write.
func (p *Pipeline) IngestCandidate(ctx context.Context, doc Document) (*Result, error) {
	key := vectorstore.CandidateKey(doc.TenantID, doc.JobID)
	if err := key.Validate(); err != nil {
		return nil, err
	}

	chunks := p.chunker.Split(doc.Text)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	log := logger.WithDocument(p.logger, logger.Document{
		TenantID:    key.TenantID,
		JobID:       key.JobID,
		Kind:        string(key.Kind),
		CandidateID: doc.CandidateID,
	})
	log.Debug("embedding candidate document", zap.Int("chunks", len(chunks)))

	entries := make([]vectorstore.Entry, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := p.embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		chunkIndex := i
		rec := p.record(key, doc.CandidateID, chunk, &chunkIndex)
		entries = append(entries, vectorstore.Entry{Vector: vec, Record: rec})
		ids = append(ids, rec.RecordID)
	}

	stats, err := p.store.Store(key, entries...)
	if err != nil {
		return nil, fmt.Errorf("store candidate document: %w", err)
	}

	log.Info("candidate document stored",
		zap.Int("chunks", len(entries)),
		zap.Int("total_vectors", stats.TotalVectors),
	)

	return &Result{Key: key, Stats: stats, RecordIDs: ids}, nil
}

func (p *Pipeline) record(key vectorstore.Key, candidateID, text string, chunkIndex *int) vectorstore.Record {
	rec := vectorstore.Record{
		TenantID:   key.TenantID,
		JobID:      key.JobID,
		Kind:       key.Kind,
		ChunkIndex: chunkIndex,
		CreatedAt:  p.now().Unix(),
		RecordID:   p.newID(),
		Snippet:    utils.TruncateRunes(utils.OneLine(text), vectorstore.MaxSnippetRunes),
	}
	if key.Kind == vectorstore.KindCandidate {
		rec.CandidateID = candidateID
	}
	return rec
}
