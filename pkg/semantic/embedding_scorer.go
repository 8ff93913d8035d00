package semantic

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
	chromem "github.com/philippgille/chromem-go"

	"github.com/TryMightyAI/haven/pkg/risk"
)

// Config configures the embedding-based scorer.
type Config struct {
	// ModelPath is the local path to an ONNX embedding model directory
	// (e.g. a MiniLM/BGE export). Required.
	ModelPath string

	// OnnxLibraryPath points at libonnxruntime.so. When set, the ORT
	// backend is tried first; otherwise the pure Go backend is used.
	OnnxLibraryPath string
}

// EmbeddingScorer scores text by max cosine similarity against the
// per-category reference phrases, all held in an in-memory chromem-go
// collection. Initialized once at startup; Score is safe for concurrent
// use afterwards.
type EmbeddingScorer struct {
	session    *hugot.Session
	pipeline   *pipelines.FeatureExtractionPipeline
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
	ready      bool
}

// New initializes the scorer: creates the Hugot session, builds the
// feature-extraction pipeline, and seeds the reference collection.
func New(cfg Config) (*EmbeddingScorer, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("semantic: no model path configured")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("semantic: model path: %w", err)
	}
	session, err := newSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("semantic: create session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: cfg.ModelPath,
		Name:      "risk-embedder",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("semantic: create pipeline: %w", err)
	}

	s := &EmbeddingScorer{
		session:  session,
		pipeline: pipeline,
		db:       chromem.NewDB(),
	}

	if err := s.seedReferences(); err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("semantic: seed references: %w", err)
	}

	s.ready = true
	log.Printf("✓ semantic scorer initialized (model: %s)", cfg.ModelPath)
	return s, nil
}

// NewWithFallback returns nil instead of an error when the scorer cannot
// be initialized. A nil scorer means rules-only mode, which the rest of
// the pipeline treats as a normal state, not a failure.
func NewWithFallback(cfg Config) *EmbeddingScorer {
	s, err := New(cfg)
	if err != nil {
		log.Printf("○ semantic scorer disabled: %v", err)
		return nil
	}
	return s
}

func newSession(cfg Config) (*hugot.Session, error) {
	if cfg.OnnxLibraryPath != "" {
		session, err := hugot.NewORTSession(options.WithOnnxLibraryPath(cfg.OnnxLibraryPath))
		if err == nil {
			return session, nil
		}
		log.Printf("[WARN] semantic: ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}
	return hugot.NewGoSession()
}

// seedReferences embeds every reference phrase and stores it with its
// category so Score can filter per category at query time.
func (s *EmbeddingScorer) seedReferences() error {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return s.embed(text)
	}
	collection, err := s.db.CreateCollection("risk_references", nil, embed)
	if err != nil {
		return err
	}
	s.collection = collection

	ctx := context.Background()
	i := 0
	for _, cat := range risk.Categories {
		for _, phrase := range referencePhrases[cat] {
			doc := chromem.Document{
				ID:       "ref-" + strconv.Itoa(i),
				Content:  phrase,
				Metadata: map[string]string{"category": string(cat)},
			}
			if err := collection.AddDocument(ctx, doc); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func (s *EmbeddingScorer) embed(text string) ([]float32, error) {
	out, err := s.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, err
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding output")
	}
	return out.Embeddings[0], nil
}

// Ready reports whether the scorer is initialized.
func (s *EmbeddingScorer) Ready() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Score embeds the text once, then queries the reference collection per
// category. The returned scores are max cosine similarity clamped to
// [0, 1]; categories below zero similarity are omitted.
func (s *EmbeddingScorer) Score(ctx context.Context, text string) (map[risk.Category]float64, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("semantic: scorer not ready")
	}
	if text == "" {
		return map[risk.Category]float64{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding, err := s.embed(text)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed: %w", err)
	}

	scores := make(map[risk.Category]float64, len(risk.Categories))
	for _, cat := range risk.Categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results, err := s.collection.QueryEmbedding(ctx, embedding, 1,
			map[string]string{"category": string(cat)}, nil)
		if err != nil {
			return nil, fmt.Errorf("semantic: query %s: %w", cat, err)
		}
		if len(results) == 0 {
			continue
		}
		sim := float64(results[0].Similarity)
		if sim <= 0 {
			continue
		}
		if sim > 1 {
			sim = 1
		}
		scores[cat] = sim
	}
	return scores, nil
}

// Close releases the underlying ONNX session.
func (s *EmbeddingScorer) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	return s.session.Destroy()
}
