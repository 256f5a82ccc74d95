// Package main is the Shortlist CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/shortlist/internal/cli"
	"github.com/hyperjump/shortlist/internal/config"
	"github.com/hyperjump/shortlist/internal/embedding"
	"github.com/hyperjump/shortlist/internal/extract"
	"github.com/hyperjump/shortlist/internal/models"
	"github.com/hyperjump/shortlist/internal/pipeline"
	"github.com/hyperjump/shortlist/internal/retriever"
	"github.com/hyperjump/shortlist/internal/scorer"
	"github.com/hyperjump/shortlist/internal/server"
	"github.com/hyperjump/shortlist/internal/storage"
	"github.com/hyperjump/shortlist/internal/watcher"
	"github.com/hyperjump/shortlist/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shortlist/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "shortlist serve" from the project dir uses the
// project's config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "screen":
		runScreen()
	case "serve":
		runServe()
	case "watch":
		runWatch()
	case "runs":
		runRuns()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("shortlist version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func parseOutputFormat(name string) (cli.ReportOutputFormat, error) {
	switch name {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", name)
	}
}

func runScreen() {
	fs := flag.NewFlagSet("screen", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	jobPath := fs.String("job", "", "job description file (txt, md, pdf, docx)")
	resumeDir := fs.String("resumes", "", "directory of resume files")
	k := fs.Int("k", 0, "number of top candidates (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printScreenUsage(fs) }
	_ = fs.Parse(os.Args[2:])

	if *jobPath == "" {
		printScreenUsage(fs)
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	resumePaths := append([]string(nil), fs.Args()...)
	if *resumeDir != "" {
		found, err := extract.ListFiles(*resumeDir, cfg.Screen.Extensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list resumes: %v\n", err)
			os.Exit(1)
		}
		resumePaths = append(resumePaths, found...)
	}
	if len(resumePaths) == 0 {
		fmt.Fprintln(os.Stderr, "No resumes given: pass files as arguments or use --resumes <dir>")
		os.Exit(1)
	}

	jobText, err := extract.NewExtractor().Extract(*jobPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read job description: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	topK := *k
	if topK == 0 {
		topK = cfg.Screen.TopK
	}
	report, err := components.Pipeline.Run(ctx, jobText, resumePaths, topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Screening failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := components.Store.SaveReport(ctx, report); err != nil {
		logger.Warn("failed to record run", zap.Error(err))
	}
	if err := cli.WriteReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printScreenUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: shortlist screen --job <file> [flags] [resume files...]\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Resumes come from --resumes <dir> (filtered by configured extensions),
from positional file arguments, or both.

Examples:
  shortlist screen --job posting.md --resumes ./resumes
  shortlist screen --job posting.pdf alice.pdf bob.docx
  shortlist screen --job posting.md --resumes ./resumes -k 5 --output json
`)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Pipeline, components.Store, &cfg.Server, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	jobPath := fs.String("job", "", "job description file (overrides config)")
	resumeDir := fs.String("resumes", "", "resume directory (overrides config)")
	k := fs.Int("k", 0, "number of top candidates (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	dir := cfg.Watch.Directory
	if *resumeDir != "" {
		dir = *resumeDir
	}
	jobFile := cfg.Watch.JobFile
	if *jobPath != "" {
		jobFile = *jobPath
	}
	if dir == "" || jobFile == "" {
		fmt.Fprintln(os.Stderr, "Watch needs a resume directory and a job file (--resumes/--job or watch.directory/watch.job_file in config)")
		os.Exit(1)
	}

	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	topK := *k
	if topK == 0 {
		topK = cfg.Screen.TopK
	}
	rescreen := func() {
		jobText, err := extract.NewExtractor().Extract(jobFile)
		if err != nil {
			logger.Warn("job description unreadable, skipping rescreen",
				zap.String("path", jobFile), zap.Error(err))
			return
		}
		resumePaths, err := extract.ListFiles(dir, cfg.Screen.Extensions)
		if err != nil {
			logger.Warn("listing resumes failed, skipping rescreen",
				zap.String("dir", dir), zap.Error(err))
			return
		}
		if len(resumePaths) == 0 {
			logger.Info("no resumes in watched directory", zap.String("dir", dir))
			return
		}
		report, err := components.Pipeline.Run(context.Background(), jobText, resumePaths, topK)
		if err != nil {
			logger.Error("rescreen failed", zap.Error(err))
			return
		}
		if _, err := components.Store.SaveReport(context.Background(), report); err != nil {
			logger.Warn("failed to record run", zap.Error(err))
		}
		if err := cli.WriteReport(os.Stdout, report, format); err != nil {
			logger.Error("output failed", zap.Error(err))
		}
	}

	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(dir, jobFile, cfg.Screen.Extensions, rescreen, watchOpts...)
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if err := w.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()

	logger.Info("watching for changes",
		zap.String("resume_dir", dir), zap.String("job_file", jobFile))
	rescreen()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of runs to list")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if fs.NArg() > 0 {
		// Show one run in full.
		run, err := store.GetRun(ctx, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Run not found: %v\n", err)
			os.Exit(1)
		}
		if format == cli.OutputJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(run)
			return
		}
		fmt.Printf("Run %s (%s)\n", run.ID, run.CreatedAt.Format(time.RFC3339))
		report := &models.ScreeningReport{
			Results:   run.Results,
			Skipped:   run.Skipped,
			JobText:   run.JobText,
			QueryTime: run.QueryTime,
		}
		cli.PrintReport(report)
		return
	}

	runs, err := store.ListRuns(ctx, 0, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(runs)
		return
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %4dms  %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.QueryTime,
			cli.TruncateWords(run.JobText, 10))
	}
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Runs   int64                  `json:"runs"`
	Config map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
	case "text":
		fmt.Printf("runs:  %d   # recorded screening runs\n", status.Runs)
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"embedding_backend", "embedding_dimensions", "scorer_model", "top_k", "database_path"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-21s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store    storage.RunStore
	Embedder embedding.Embedder
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run history: %w", err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")

	embedder, err := embedding.NewEmbedder(ctx, cfg.Embedding.Backend, embedding.Options{
		ModelPath:  cfg.Embedding.ModelPath,
		Model:      cfg.Embedding.Model,
		APIKey:     apiKey,
		Dimensions: cfg.Embedding.Dimensions,
		MaxTokens:  cfg.Embedding.MaxTokens,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		backend := embedding.Backend(cfg.Embedding.Backend)
		if backend != embedding.BackendONNX && backend != "" {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		// Local model unavailable; deterministic hash vectors keep the CLI
		// usable for smoke tests.
		logger.Warn("ONNX embedder unavailable, falling back to mock embeddings",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}

	var explainer pipeline.Explainer
	scorerOpts := []scorer.Option{
		scorer.WithMaxChars(cfg.Scorer.MaxExplanationChars),
		scorer.WithTimeout(time.Duration(cfg.Scorer.TimeoutSeconds) * time.Second),
	}
	if debug {
		scorerOpts = append(scorerOpts, scorer.WithLogger(logger))
	}
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, explanations use keyword overlap only")
		explainer = scorer.NewKeywordScorer(scorerOpts...)
	} else {
		gen, err := scorer.NewGeminiGenerator(ctx, apiKey, cfg.Scorer.Model)
		if err != nil {
			_ = embedder.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize generator: %w", err)
		}
		explainer = scorer.NewScorer(gen, scorerOpts...)
	}

	retrOpts := []retriever.Option{}
	pipeOpts := []pipeline.Option{pipeline.WithScoringWorkers(cfg.Scorer.Workers)}
	if debug {
		retrOpts = append(retrOpts, retriever.WithLogger(logger))
		pipeOpts = append(pipeOpts, pipeline.WithLogger(logger))
	}
	pipe := pipeline.NewPipeline(
		extract.NewExtractor(),
		retriever.NewRetriever(embedder, retrOpts...),
		explainer,
		pipeOpts...,
	)

	return &Components{
		Store:    store,
		Embedder: embedder,
		Pipeline: pipe,
	}, nil
}

func printUsage() {
	fmt.Println(`shortlist - Resume screening against a job description

Usage:
  shortlist screen --job <file> [flags] [resume files...]   Screen resumes once
  shortlist serve [flags]                                   Start the HTTP server
  shortlist watch [flags]                                   Rescreen on resume/job changes
  shortlist runs [flags] [run-id]                           List past runs or show one
  shortlist status [flags]                                  Show server status
  shortlist version                                         Show version
  shortlist help                                            Show this help

Screen Flags:
  --config string    Config file path (default: /usr/local/etc/shortlist/config.yaml)
  --job string       Job description file (txt, md, pdf, docx)
  --resumes string   Directory of resume files
  -k int             Number of top candidates (default from config, 3)
  --output string    Output format: text or json (default: text)
  --debug            Enable debug logging

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Watch Flags:
  --config string    Config file path
  --job string       Job description file (overrides watch.job_file)
  --resumes string   Resume directory (overrides watch.directory)
  -k int             Number of top candidates
  --output string    Output format: text or json
  --debug            Enable debug logging

Runs Flags:
  --config string    Config file path
  --limit int        Number of runs to list (default: 20)
  --output string    Output format: text or json

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json

Environment:
  GEMINI_API_KEY     API key for explanation generation (and the gemini
                     embedding backend). Without it, explanations fall back
                     to keyword overlap.

Examples:
  shortlist screen --job posting.md --resumes ./resumes
  shortlist screen --job posting.pdf alice.pdf bob.docx -k 5
  shortlist serve
  shortlist watch --job posting.md --resumes ./resumes
  shortlist runs
  shortlist runs --output json 4f6b1c0e-...`)
}
