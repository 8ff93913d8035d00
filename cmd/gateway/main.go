package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/TryMightyAI/haven/pkg/config"
	"github.com/TryMightyAI/haven/pkg/detect"
	"github.com/TryMightyAI/haven/pkg/explain"
	"github.com/TryMightyAI/haven/pkg/limits"
	"github.com/TryMightyAI/haven/pkg/risk"
	"github.com/TryMightyAI/haven/pkg/rules"
	"github.com/TryMightyAI/haven/pkg/semantic"
)

const Version = "0.1.0"

// Service holds the analysis components. The rule engine is always
// available; the semantic classifier is optional and the service
// degrades to rules-only scoring without it.
type Service struct {
	analyzer *detect.Analyzer
	ruleset  *rules.Ruleset
	scorer   *semantic.EmbeddingScorer
	gate     *limits.InferenceGate
	config   *config.Config
	started  time.Time
}

// AnalyzeResponse is the wire shape of one analysis.
type AnalyzeResponse struct {
	RequestID   string             `json:"request_id"`
	Assessment  *detect.Assessment `json:"assessment"`
	Explanation explain.Result     `json:"explanation"`
	LatencyMs   float64            `json:"latency_ms"`
}

func NewService(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	ruleset, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading rule store: %w", err)
	}
	log.Printf("✓ Rule engine ready (%d patterns, %d composites, %d rejected)",
		len(ruleset.Rules), len(ruleset.Composites), len(ruleset.Rejected))

	svc := &Service{
		ruleset: ruleset,
		gate:    limits.NewInferenceGate(cfg.MaxConcurrentInference),
		config:  cfg,
		started: time.Now(),
	}

	var scorer semantic.Scorer
	switch cfg.ClassifierMode {
	case config.ClassifierDisabled:
		log.Println("○ Semantic classifier disabled (rules-only mode)")
	case config.ClassifierRequired:
		es, err := semantic.New(semantic.Config{
			ModelPath:       cfg.ModelPath,
			OnnxLibraryPath: cfg.OnnxLibraryPath,
		})
		if err != nil {
			return nil, fmt.Errorf("classifier mode is required: %w", err)
		}
		svc.scorer = es
		scorer = gatedScorer{inner: es, gate: svc.gate}
		log.Println("✓ Semantic classifier ready (hugot/ONNX + chromem-go)")
	default:
		es := semantic.NewWithFallback(semantic.Config{
			ModelPath:       cfg.ModelPath,
			OnnxLibraryPath: cfg.OnnxLibraryPath,
		})
		if es != nil {
			svc.scorer = es
			scorer = gatedScorer{inner: es, gate: svc.gate}
			log.Println("✓ Semantic classifier ready (hugot/ONNX + chromem-go)")
		}
	}

	svc.analyzer = detect.NewAnalyzer(ruleset, detect.Options{
		Scorer:            scorer,
		ClassifierTimeout: cfg.ClassifierTimeout(),
		MaxInput:          cfg.MaxInputBytes,
	})
	return svc, nil
}

func (s *Service) Close() {
	if s.scorer != nil {
		s.scorer.Close()
	}
}

// Analyze runs the full pipeline and renders the explanation.
func (s *Service) Analyze(ctx context.Context, text string) *AnalyzeResponse {
	start := time.Now()
	assessment := s.analyzer.Analyze(ctx, text)
	return &AnalyzeResponse{
		RequestID:   uuid.NewString(),
		Assessment:  assessment,
		Explanation: explain.Explain(assessment),
		LatencyMs:   float64(time.Since(start).Microseconds()) / 1000.0,
	}
}

// gatedScorer bounds concurrent classifier calls. Waiting counts
// against the caller's classifier timeout, so a saturated gate degrades
// to rules-only scoring instead of queueing without bound.
type gatedScorer struct {
	inner semantic.Scorer
	gate  *limits.InferenceGate
}

func (g gatedScorer) Ready() bool { return g.inner.Ready() }

func (g gatedScorer) Score(ctx context.Context, text string) (map[risk.Category]float64, error) {
	if !g.gate.TryEnter() {
		if err := g.gate.Enter(ctx); err != nil {
			return nil, err
		}
	}
	defer g.gate.Leave()
	return g.inner.Score(ctx, text)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfg := config.NewDefaultConfig()
		if len(os.Args) > 2 {
			cfg.ListenAddr = os.Args[2]
		}
		runHTTPServer(cfg)
	case "analyze":
		if len(os.Args) < 3 {
			fmt.Println("Usage: haven analyze <text>")
			os.Exit(1)
		}
		runCLIAnalyze(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Haven v%s\n", Version)
		fmt.Println("Conversational risk analyzer")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Haven v%s - Conversational risk analyzer\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  haven serve [addr]      Start HTTP server (default: :8090)")
	fmt.Println("  haven analyze <text>    Analyze text from the command line")
	fmt.Println("  haven version           Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  HAVEN_RULES_PATH           Path to the YAML rule store")
	fmt.Println("  HAVEN_MODEL_PATH           Path to ONNX embedding model directory")
	fmt.Println("  HAVEN_CLASSIFIER_MODE      auto | disabled | required (default: auto)")
	fmt.Println("  HAVEN_MAX_INPUT_BYTES      Analysis input bound (default: 20000)")
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIAnalyze(text string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	svc, err := NewService(cfg)
	if err != nil {
		log.Fatalf("[STARTUP] %v", err)
	}
	defer svc.Close()

	resp := svc.Analyze(context.Background(), text)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer(cfg *config.Config) {
	cfg.MustValidate()

	svc, err := NewService(cfg)
	if err != nil {
		log.Fatalf("[STARTUP] %v", err)
	}
	defer svc.Close()

	app := fiber.New(fiber.Config{
		AppName: "Haven",
	})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"version":    Version,
			"classifier": svc.scorer != nil && svc.scorer.Ready(),
			"uptime_s":   int64(time.Since(svc.started).Seconds()),
			"inference":  svc.gate.Stats(),
		})
	})

	// Analyze a conversation snippet. The text is processed in memory
	// and never persisted.
	app.Post("/v1/analyze", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		return c.JSON(svc.Analyze(c.Context(), req.Text))
	})

	if cfg.EnableRuleStats {
		app.Get("/v1/rules/stats", func(c fiber.Ctx) error {
			byCat := fiber.Map{}
			for _, cat := range risk.Categories {
				byCat[string(cat)] = len(svc.ruleset.ByCategory(cat))
			}
			return c.JSON(fiber.Map{
				"patterns":   len(svc.ruleset.Rules),
				"composites": len(svc.ruleset.Composites),
				"rejected":   len(svc.ruleset.Rejected),
				"categories": byCat,
			})
		})
	}

	log.Printf("Haven HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /healthz         - Health check")
	log.Printf("  POST /v1/analyze      - Analyze a conversation snippet")
	if cfg.EnableRuleStats {
		log.Printf("  GET  /v1/rules/stats  - Rule store statistics")
	}

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
