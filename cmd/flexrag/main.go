// Command flexrag answers questions over Azure AI Search indexes it has
// never seen before: it introspects the index schema, classifies the
// usable text fields, searches, and conditions an Azure OpenAI completion
// on the retrieved documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/config"
	"github.com/dsc-chiba-u/flexrag/internal/credential"
	"github.com/dsc-chiba-u/flexrag/internal/domain/schema"
	logpkg "github.com/dsc-chiba-u/flexrag/internal/logger"
	"github.com/dsc-chiba-u/flexrag/internal/metrics"
	"github.com/dsc-chiba-u/flexrag/internal/transport/azsearch"
	"github.com/dsc-chiba-u/flexrag/internal/transport/httpapi"
	openaigen "github.com/dsc-chiba-u/flexrag/internal/transport/openai"
	"github.com/dsc-chiba-u/flexrag/internal/usecase/rag"
	"github.com/dsc-chiba-u/flexrag/internal/version"
)

type options struct {
	configPath string
	envFile    string
	logLevel   string

	index       string
	query       string
	listIndexes bool
	showSchema  bool
	allSchemas  bool
	top         int
	verbose     bool
	searchOnly  bool
	serve       bool

	temperature      float64
	maxTokens        int
	maxContextLength int
	summaryLength    int
	vectorExclude    string
	vectorType       string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to a flexrag.yaml config file")
	flag.StringVar(&o.envFile, "env-file", "", "path to a dotenv file with connection settings")
	flag.StringVar(&o.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	flag.StringVar(&o.index, "index", "", "index name")
	flag.StringVar(&o.query, "query", "", "search query")
	flag.BoolVar(&o.listIndexes, "list-indexes", false, "list available indexes and exit")
	flag.BoolVar(&o.showSchema, "schema", false, "print the index schema instead of searching")
	flag.BoolVar(&o.allSchemas, "all-schemas", false, "print the schema of every index and exit")
	flag.IntVar(&o.top, "top", 0, "maximum number of search results")
	flag.BoolVar(&o.verbose, "verbose", false, "show full field values, no truncation")
	flag.BoolVar(&o.searchOnly, "search-only", false, "stop after search, skip answer generation")
	flag.BoolVar(&o.serve, "serve", false, "run the HTTP API instead of a one-shot query")

	flag.Float64Var(&o.temperature, "temperature", 0, "generation temperature (0.0-1.0)")
	flag.IntVar(&o.maxTokens, "max-tokens", 0, "maximum generated tokens")
	flag.IntVar(&o.maxContextLength, "max-context-length", 0, "maximum length of each context field")
	flag.IntVar(&o.summaryLength, "summary-length", 0, "display truncation length for field values")
	flag.StringVar(&o.vectorExclude, "vector-exclude", "", "name pattern identifying vector fields")
	flag.StringVar(&o.vectorType, "vector-type", "", "type prefix identifying vector fields")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flexrag:", err)
		os.Exit(1)
	}

	env := config.GetEnv()
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flexrag:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("flexrag starting",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	ctx := context.Background()

	cred, err := credential.Resolve(ctx, logger,
		credential.CLIProvider{},
		credential.KeyProvider{Key: cfg.Search.AdminKey},
	)
	if err != nil {
		logger.Fatal("credential resolution failed", zap.Error(err))
	}

	searchClient := azsearch.NewClient(&azsearch.Config{
		Endpoint:   cfg.Search.Endpoint,
		APIVersion: cfg.Search.APIVersion,
		Credential: cred,
		Logger:     logger,
	})
	generator := openaigen.NewGenerator(&openaigen.Config{
		Endpoint:   cfg.OpenAI.Endpoint,
		APIKey:     cfg.OpenAI.APIKey,
		Deployment: cfg.OpenAI.ChatDeployment,
		APIVersion: cfg.OpenAI.APIVersion,
		Logger:     logger,
	})
	pipeline := rag.New(searchClient, searchClient, generator, logger)

	metrics.Register()

	switch {
	case opts.serve:
		runServer(cfg, pipeline, searchClient, logger)
	case opts.listIndexes:
		runListIndexes(ctx, searchClient, logger)
	case opts.allSchemas:
		runAllSchemas(ctx, searchClient, logger)
	case opts.showSchema && opts.index != "":
		sch, err := searchClient.GetSchema(ctx, opts.index)
		if err != nil {
			logger.Fatal("schema fetch failed", zap.String("index", opts.index), zap.Error(err))
		}
		printSchema(sch)
	case opts.index != "" && opts.query != "":
		runQuery(ctx, cfg, opts, pipeline, logger)
	default:
		fmt.Fprintln(os.Stderr, "flexrag: need --index and --query (or --list-indexes, --schema, --all-schemas, --serve)")
		flag.Usage()
		os.Exit(2)
	}
}

func runQuery(ctx context.Context, cfg config.Config, opts options, pipeline *rag.Service, logger *zap.Logger) {
	req := rag.Request{
		Index:             opts.index,
		Query:             opts.query,
		Top:               pickInt(opts.top, cfg.Pipeline.Top),
		SearchOnly:        opts.searchOnly,
		MaxContextLength:  pickInt(opts.maxContextLength, cfg.Pipeline.MaxContextLength),
		Temperature:       pickFloat(float32(opts.temperature), cfg.Pipeline.Temperature),
		MaxTokens:         pickInt(opts.maxTokens, cfg.Pipeline.MaxTokens),
		VectorNamePattern: pickString(opts.vectorExclude, cfg.Pipeline.VectorNamePattern),
		VectorTypePattern: pickString(opts.vectorType, cfg.Pipeline.VectorTypePattern),
	}

	out, err := pipeline.Run(ctx, req)
	if err != nil {
		logger.Fatal("pipeline aborted", zap.String("index", opts.index), zap.Error(err))
	}

	fmt.Printf("\nQuery: %s\n", opts.query)
	fmt.Printf("Matches: %d\n", out.Result.Count())

	summary := pickInt(opts.summaryLength, cfg.Pipeline.SummaryLength)
	if opts.verbose {
		summary = 0
	}
	fmt.Print(rag.RenderDocuments(out.Result.Documents(), out.Schema.RetrievableFields(), summary))

	switch out.State {
	case rag.StateNoResults:
		fmt.Println("No matching documents found.")
	case rag.StateAnswered:
		fmt.Println("=== Generated answer ===")
		fmt.Println(out.Answer)
	case rag.StateSearchOnly:
		// Retrieval only; nothing more to print.
	}
}

func runListIndexes(ctx context.Context, client *azsearch.Client, logger *zap.Logger) {
	names, err := client.ListIndexes(ctx)
	if err != nil {
		logger.Fatal("list indexes failed", zap.Error(err))
	}
	fmt.Println("Available indexes:")
	for i, name := range names {
		fmt.Printf("%d. %s\n", i+1, name)
	}
}

// runAllSchemas prints every index's schema. A fetch failure for one index
// is reported and does not abort the others.
func runAllSchemas(ctx context.Context, client *azsearch.Client, logger *zap.Logger) {
	names, err := client.ListIndexes(ctx)
	if err != nil {
		logger.Fatal("list indexes failed", zap.Error(err))
	}
	if len(names) == 0 {
		fmt.Println("No indexes found.")
		return
	}
	for _, name := range names {
		sch, err := client.GetSchema(ctx, name)
		if err != nil {
			logger.Error("schema fetch failed, skipping index",
				zap.String("index", name), zap.Error(err))
			continue
		}
		printSchema(sch)
	}
}

func printSchema(s schema.Schema) {
	fmt.Printf("\n===== Index: %s =====\n", s.Name())
	fmt.Printf("Searchable fields: %s\n", strings.Join(s.SearchableFields(), ", "))
	fmt.Printf("Retrievable fields: %s\n", strings.Join(s.RetrievableFields(), ", "))
	fmt.Println("\nFields:")
	for _, f := range s.Fields() {
		line := fmt.Sprintf("- %s: %s, searchable=%t, retrievable=%t",
			f.Name(), f.FieldType(), f.Searchable(), f.Retrievable())
		if f.Key() {
			line += ", key"
		}
		if f.IsVector() {
			line += fmt.Sprintf(", dimensions=%d", f.Dimensions())
		}
		fmt.Println(line)
	}
}

func runServer(cfg config.Config, pipeline *rag.Service, client *azsearch.Client, logger *zap.Logger) {
	server := httpapi.NewServer(pipeline, client, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

func pickInt(flagVal, cfgVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}

func pickFloat(flagVal, cfgVal float32) float32 {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}

func pickString(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}
