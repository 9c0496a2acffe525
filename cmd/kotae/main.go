// Package main is the kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/keywords"
	"github.com/hyperjump/kotae/internal/matcher"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/suggest"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing default config yields the built-in defaults.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "import":
		runImport()
	case "keywords":
		runKeywords()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (chat turns, corpus reloads, file events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Corpus.Files) > 0 {
		onChange := watcher.ReimportFunc(ctx, components.Importer, components.Chat, logger)
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Corpus.Files,
			onChange,
			func(path string) {
				logger.Warn("corpus file removed; stored FAQs are kept", zap.String("path", path))
			},
			watchOpts...,
		)
		if cfg.Corpus.WatchOrDefault() {
			if err := watchSvc.Start(ctx); err != nil {
				logger.Fatal("Failed to start watcher", zap.Error(err))
			}
		}
		watchSvc.SyncExistingFiles()
	}
	if err := components.Chat.Reload(ctx); err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("corpus ready", zap.Int("active_faqs", components.Chat.CorpusSize()))

	srv := server.NewServer(
		components.Chat,
		components.Storage,
		cfg,
		logger,
		server.WithMetrics(components.Metrics),
		server.WithKeywordGenerator(components.Keywords),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// printAskUsage prints ask subcommand usage.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kotae ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces. Quotes are optional.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kotae ask Wann habt ihr offen?
  kotae ask --server http://localhost:8080 "Was kostet der Eintritt?"
  kotae ask --explain --limit 5 Kann ich Schlittschuhe leihen
  kotae ask --output json Gibt es Gutscheine
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the question
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL; empty uses direct storage")
	sessionID := fs.String("session", "", "session id to continue")
	outputFormat := fs.String("output", "text", "output format: text or json")
	explain := fs.Bool("explain", false, "print the full ranking instead of a reply (direct mode only)")
	limit := fs.Int("limit", 10, "rows shown by --explain (0 = all)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *explain && *serverURL != "" {
		fmt.Fprintln(os.Stderr, "--explain reads storage directly; drop --server")
		os.Exit(1)
	}

	req := &models.ChatRequest{Message: question, SessionID: *sessionID}
	if *serverURL != "" {
		resp, err := askViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteChatResponse(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if *explain {
		ranked, err := components.Chat.Explain(ctx, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Explain failed: %v\n", err)
			os.Exit(1)
		}
		minScore := components.Matcher.Config().MinScore
		if err := cli.WriteExplain(os.Stdout, ranked, minScore, *limit, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	resp, err := components.Chat.Ask(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteChatResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, req *models.ChatRequest) (*models.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = cfg.Corpus.Files
	}
	if len(paths) == 0 {
		fmt.Println("Usage: kotae import [flags] <file>...  (or set corpus.files in the config)")
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if _, err := importFiles(context.Background(), components.Importer, paths, os.Stdout); err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
}

// importFiles imports each path in order and reports per-file counts to w.
// It stops at the first failing file.
func importFiles(ctx context.Context, im watcher.Importer, paths []string, w io.Writer) (int, error) {
	total := 0
	for _, p := range paths {
		n, err := im.Import(ctx, p)
		if err != nil {
			return total, err
		}
		total += n
		fmt.Fprintf(w, "Imported %d FAQs from %s\n", n, p)
	}
	if len(paths) > 1 {
		fmt.Fprintf(w, "Imported %d FAQs from %d files\n", total, len(paths))
	}
	return total, nil
}

func runKeywords() {
	fs := flag.NewFlagSet("keywords", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for extra stopwords)")
	question := fs.String("question", "", "FAQ question")
	answer := fs.String("answer", "", "FAQ answer (HTML allowed)")
	_ = fs.Parse(os.Args[2:])

	if strings.TrimSpace(*question) == "" {
		fmt.Println("Usage: kotae keywords -question <text> [-answer <text>]")
		os.Exit(1)
	}
	var extra []string
	if cfg, _, err := loadConfig(*configPath); err == nil {
		extra = cfg.Matcher.Stopwords
	}
	fmt.Println(keywords.New(extra...).Generate(*question, *answer))
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Matcher  *matcher.Matcher
	Suggest  *suggest.Index
	Metrics  *metrics.Metrics
	Keywords *keywords.Generator
	Importer *corpus.Importer
	Chat     *chat.Service
}

func (c *Components) Close() {
	if c.Suggest != nil {
		_ = c.Suggest.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	idx, err := suggest.NewIndex(cfg.Matcher.Stopwords...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize suggest index: %w", err)
	}

	m := matcher.New(&cfg.Matcher)
	met := metrics.NewMetrics()
	gen := keywords.New(cfg.Matcher.Stopwords...)

	chatOpts := []chat.Option{chat.WithSuggestIndex(idx), chat.WithMetrics(met)}
	importOpts := []corpus.ImporterOption{corpus.WithGenerator(gen)}
	if debug && logger != nil {
		chatOpts = append(chatOpts, chat.WithLogger(logger))
		importOpts = append(importOpts, corpus.WithLogger(logger))
	}

	return &Components{
		Storage:  store,
		Matcher:  m,
		Suggest:  idx,
		Metrics:  met,
		Keywords: gen,
		Importer: corpus.NewImporter(store, importOpts...),
		Chat:     chat.NewService(store, m, &cfg.Chat, chatOpts...),
	}, nil
}

func printUsage() {
	fmt.Println(`kotae - FAQ chatbot question matching

Usage:
  kotae server [flags]             Start the HTTP server
  kotae ask [flags] <question>     Ask a question
  kotae import [flags] <file>...   Import corpus files (.yaml, .json, .csv, .xlsx)
  kotae keywords [flags]           Generate keywords for a question/answer pair
  kotae version                    Show version
  kotae help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging (chat turns, corpus reloads, file events)

Ask Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL, e.g. http://localhost:8080. Empty (default) uses direct storage.
  --session string   Session id to continue a conversation
  --output string    Output format: text or json (default: text)
  --explain          Print the full ranking with scores (direct mode only)
  --limit int        Rows shown by --explain, 0 = all (default: 10)

Import Flags:
  --config string    Config file path; without file arguments corpus.files is imported

Keywords Flags:
  --question string  FAQ question
  --answer string    FAQ answer

Examples:
  kotae server
  kotae import faqs.xlsx
  kotae ask Wann habt ihr offen?
  kotae ask --server http://localhost:8080 --output json "Was kostet der Eintritt?"
  kotae ask --explain Kann ich Schlittschuhe leihen
  kotae keywords --question "Kann ich Schlittschuhe ausleihen?" --answer "Ja, an der Kasse."`)
}
