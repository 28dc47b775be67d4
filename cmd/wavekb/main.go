// Package main is the wavekb CLI entry point.
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
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/cli"
	"github.com/hyperjump/wavekb/internal/config"
	"github.com/hyperjump/wavekb/internal/embedding"
	"github.com/hyperjump/wavekb/internal/knowledge"
	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/server"
	"github.com/hyperjump/wavekb/internal/watcher"
	"github.com/hyperjump/wavekb/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/wavekb/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and a missing default file yields the
// built-in defaults. Returns the config and the path actually loaded ("" for defaults).
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
			return config.Default(), "", nil
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
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "convert":
		runConvert(args)
	case "insert":
		runInsert(args)
	case "search":
		runSearch(args)
	case "absorb":
		runAbsorb(args)
	case "get":
		runGet(args)
	case "list":
		runList(args)
	case "delete":
		runDelete(args)
	case "snapshot":
		runSnapshot(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("wavekb version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (ingest events, per-request engine logs)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := knowledge.Bootstrap(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize knowledge engine", zap.Error(err))
	}
	defer engine.Close()
	logger.Info("knowledge engine ready", zap.Int("patterns", engine.Len()))

	snapshotDone := make(chan struct{})
	go func() {
		defer close(snapshotDone)
		if err := engine.Snapshotter(cfg.Storage.SnapshotInterval).Run(ctx); err != nil {
			logger.Error("final snapshot failed", zap.Error(err))
		}
	}()

	var srvOpts []server.Option
	if len(cfg.Ingest.Directories) > 0 {
		ingester := watcher.NewIngester(engine, logger)
		watchSvc := watcher.New(
			cfg.Ingest.Directories,
			cfg.Ingest.Extensions,
			cfg.Ingest.RecursiveOrDefault(),
			ingester,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start ingest watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		watchSvc.Sync()
		srvOpts = append(srvOpts, server.WithIngest(watchSvc))
	}

	srv := server.NewServer(engine, cfg, logger, srvOpts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	cancel()
	<-snapshotDone
}

// clientFlags are shared by the one-shot commands.
type clientFlags struct {
	configPath *string
	serverURL  *string
	output     *string
	debug      *bool
}

func addClientFlags(fs *flag.FlagSet) *clientFlags {
	return &clientFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path (direct mode)"),
		serverURL:  fs.String("server", "", "server URL, e.g. http://localhost:8080 (empty = load the snapshot directly)"),
		output:     fs.String("output", "text", "output format: text, compact, or json"),
		debug:      fs.Bool("debug", false, "enable debug logging on stderr"),
	}
}

func (c *clientFlags) format() cli.OutputFormat {
	f, err := cli.ParseOutputFormat(*c.output)
	if err != nil {
		fatalf("%v", err)
	}
	return f
}

func (c *clientFlags) remote() bool {
	return *c.serverURL != ""
}

// openEngine loads the configured snapshot for a direct-mode command.
func (c *clientFlags) openEngine(withArchive bool) (*knowledge.Engine, *config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(*c.configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *c.debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	engine, err := knowledge.Bootstrap(context.Background(), cfg, logger, withArchive)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return engine, cfg, logger
}

// apiRequest sends body as JSON and decodes a successful response into out.
func apiRequest(method, serverURL, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// saveOrExit persists a direct-mode mutation.
func saveOrExit(engine *knowledge.Engine) {
	if err := engine.Save(context.Background()); err != nil {
		_ = engine.Close()
		fatalf("Save failed: %v", err)
	}
}

// parseEmbeddingFlag returns the parsed --embedding value, or nil when unset.
func parseEmbeddingFlag(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return cli.ParseEmbedding(raw)
}

// parseMetadata decodes a --metadata JSON object.
func parseMetadata(raw string) (models.Metadata, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var meta models.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}
	return meta, nil
}

// splitIDs splits a comma-separated id list, dropping empty entries.
func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// buildSearchQuery joins all positional args with spaces so multi-word text
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "wavekb search cats -top-k 3" would
// otherwise leave -top-k unparsed.
func searchArgsReorder(args []string) []string {
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

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	cf := addClientFlags(fs)
	embFlag := fs.String("embedding", "", "comma-separated embedding values")
	text := fs.String("text", "", "text to embed with the built-in hash embedder")
	metaFlag := fs.String("metadata", "", "metadata JSON object")
	_ = fs.Parse(args)
	format := cf.format()

	emb, err := parseEmbeddingFlag(*embFlag)
	if err != nil {
		fatalf("%v", err)
	}
	meta, err := parseMetadata(*metaFlag)
	if err != nil {
		fatalf("%v", err)
	}
	cfg, _, err := loadConfig(*cf.configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	engine, err := knowledge.New(nil, knowledge.WithEmbedder(embedding.NewHashEmbedder(cfg.Embedding.Dimensions)))
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer engine.Close()

	p, err := engine.ConvertInput(context.Background(), emb, *text, meta)
	if err != nil {
		fatalf("Convert failed: %v", err)
	}
	if err := cli.WritePattern(os.Stdout, p, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runInsert(args []string) {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	cf := addClientFlags(fs)
	id := fs.String("id", "", "pattern id (default: a new uuid)")
	embFlag := fs.String("embedding", "", "comma-separated embedding values")
	text := fs.String("text", "", "text to embed with the built-in hash embedder")
	metaFlag := fs.String("metadata", "", "metadata JSON object")
	_ = fs.Parse(args)
	format := cf.format()

	emb, err := parseEmbeddingFlag(*embFlag)
	if err != nil {
		fatalf("%v", err)
	}
	meta, err := parseMetadata(*metaFlag)
	if err != nil {
		fatalf("%v", err)
	}
	req := &models.InsertRequest{ID: *id, Embedding: emb, Text: *text, Metadata: meta}
	if len(req.Embedding) == 0 && req.Text == "" {
		fatalf("Usage: wavekb insert [flags] (--embedding \"0.1,0.2,...\" | --text \"...\")")
	}

	var p models.WavePattern
	if cf.remote() {
		if err := apiRequest(http.MethodPost, *cf.serverURL, "/knowledge", req, &p); err != nil {
			fatalf("Insert failed: %v", err)
		}
	} else {
		engine, _, _ := cf.openEngine(false)
		defer engine.Close()
		stored, err := engine.Remember(req)
		if err != nil {
			fatalf("Insert failed: %v", err)
		}
		saveOrExit(engine)
		p = *stored
	}
	if err := cli.WritePattern(os.Stdout, &p, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: wavekb search [flags] [text query]\n\n")
	fmt.Fprintf(fs.Output(), "Searches by --embedding, or by the remaining arguments embedded as text.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  wavekb search --embedding "0.1,0.4,-0.2" --top-k 5
  wavekb search quaternion rotations --min-resonance 0.6
  wavekb search --metadata-query "kind:animal" --explain cats
`)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cf := addClientFlags(fs)
	embFlag := fs.String("embedding", "", "comma-separated query embedding")
	topK := fs.Int("top-k", 0, "maximum number of results (0 = configured default)")
	minRes := fs.Float64("min-resonance", 0, "minimum resonance in [0,1] (unset = configured default)")
	metaQuery := fs.String("metadata-query", "", "bleve query string restricting candidates by metadata")
	exclude := fs.String("exclude", "", "comma-separated ids to leave out")
	explain := fs.Bool("explain", false, "include the per-component resonance breakdown")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(args))
	format := cf.format()

	emb, err := parseEmbeddingFlag(*embFlag)
	if err != nil {
		fatalf("%v", err)
	}
	req := &models.SearchRequest{
		Embedding:     emb,
		Text:          buildSearchQuery(fs.Args()),
		TopK:          *topK,
		MetadataQuery: *metaQuery,
		ExcludeIDs:    splitIDs(*exclude),
		Explain:       *explain,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "min-resonance" {
			req.MinResonance = minRes
		}
	})
	if len(req.Embedding) == 0 && req.Text == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	var resp models.SearchResponse
	if cf.remote() {
		if err := apiRequest(http.MethodPost, *cf.serverURL, "/knowledge/search", req, &resp); err != nil {
			fatalf("Search failed: %v", err)
		}
	} else {
		engine, _, _ := cf.openEngine(false)
		defer engine.Close()
		r, err := engine.SearchEmbedding(context.Background(), req)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
		resp = *r
	}
	if err := cli.WriteSearchResults(os.Stdout, &resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runAbsorb(args []string) {
	fs := flag.NewFlagSet("absorb", flag.ExitOnError)
	cf := addClientFlags(fs)
	strength := fs.Float64("strength", 0, "absorption strength in (0,1] (0 = configured default)")
	// Not reordered: source order is significant.
	_ = fs.Parse(args)
	format := cf.format()

	if fs.NArg() < 2 {
		fatalf("Usage: wavekb absorb [flags] <target-id> <source-id>[,<source-id>...] [<source-id>...]")
	}
	var sources []string
	for _, a := range fs.Args()[1:] {
		sources = append(sources, splitIDs(a)...)
	}
	req := &models.AbsorbRequest{TargetID: fs.Arg(0), SourceIDs: sources, Strength: *strength}

	var resp models.AbsorbResponse
	if cf.remote() {
		if err := apiRequest(http.MethodPost, *cf.serverURL, "/knowledge/absorb", req, &resp); err != nil {
			fatalf("Absorb failed: %v", err)
		}
	} else {
		engine, _, _ := cf.openEngine(false)
		defer engine.Close()
		r, err := engine.Absorb(req)
		if err != nil {
			fatalf("Absorb failed: %v", err)
		}
		saveOrExit(engine)
		resp = *r
	}
	if err := cli.WriteAbsorb(os.Stdout, &resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	cf := addClientFlags(fs)
	_ = fs.Parse(searchArgsReorder(args))
	format := cf.format()
	if fs.NArg() < 1 {
		fatalf("Usage: wavekb get [flags] <id>")
	}
	id := fs.Arg(0)

	var p models.WavePattern
	if cf.remote() {
		if err := apiRequest(http.MethodGet, *cf.serverURL, "/knowledge/"+url.PathEscape(id), nil, &p); err != nil {
			fatalf("Get failed: %v", err)
		}
	} else {
		engine, _, _ := cf.openEngine(false)
		defer engine.Close()
		stored, err := engine.Get(id)
		if err != nil {
			fatalf("Get failed: %v", err)
		}
		p = *stored
	}
	if err := cli.WritePattern(os.Stdout, &p, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cf := addClientFlags(fs)
	offset := fs.Int("offset", 0, "number of patterns to skip")
	limit := fs.Int("limit", 20, "maximum number of patterns (0 = all)")
	_ = fs.Parse(args)
	format := cf.format()

	var page struct {
		Patterns []*models.WavePattern `json:"patterns"`
		Total    int                   `json:"total"`
	}
	if cf.remote() {
		q := url.Values{}
		q.Set("offset", strconv.Itoa(*offset))
		q.Set("limit", strconv.Itoa(*limit))
		if err := apiRequest(http.MethodGet, *cf.serverURL, "/knowledge?"+q.Encode(), nil, &page); err != nil {
			fatalf("List failed: %v", err)
		}
	} else {
		engine, _, _ := cf.openEngine(false)
		defer engine.Close()
		page.Patterns, page.Total = engine.List(*offset, *limit)
	}
	if err := cli.WritePatterns(os.Stdout, page.Patterns, page.Total, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	cf := addClientFlags(fs)
	_ = fs.Parse(searchArgsReorder(args))
	if fs.NArg() < 1 {
		fatalf("Usage: wavekb delete [flags] <id>")
	}
	id := fs.Arg(0)

	if cf.remote() {
		if err := apiRequest(http.MethodDelete, *cf.serverURL, "/knowledge/"+url.PathEscape(id), nil, nil); err != nil {
			fatalf("Deletion failed: %v", err)
		}
	} else {
		engine, _, _ := cf.openEngine(false)
		defer engine.Close()
		if err := engine.Delete(id); err != nil {
			fatalf("Deletion failed: %v", err)
		}
		saveOrExit(engine)
	}
	fmt.Printf("Pattern deleted: %s\n", id)
}

func runSnapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	cf := addClientFlags(fs)
	_ = fs.Parse(args)

	if cf.remote() {
		if err := apiRequest(http.MethodPost, *cf.serverURL, "/knowledge/snapshot", nil, nil); err != nil {
			fatalf("Snapshot failed: %v", err)
		}
		fmt.Println("Snapshot saved by server")
		return
	}
	engine, cfg, _ := cf.openEngine(true)
	defer engine.Close()
	saveOrExit(engine)
	fmt.Printf("Snapshot saved: %s (%d patterns)\n", cfg.Storage.SnapshotPath, engine.Len())
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := addClientFlags(fs)
	_ = fs.Parse(args)
	format := cf.format()

	var status server.StatusResponse
	if cf.remote() {
		if err := apiRequest(http.MethodGet, *cf.serverURL, "/status", nil, &status); err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		engine, cfg, _ := cf.openEngine(false)
		defer engine.Close()
		stats, err := engine.Stats(context.Background(), cfg.Storage.ArchivePath)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = *server.NewStatus(stats, cfg, cfg.Ingest.Directories)
	}

	if format == cli.OutputJSON {
		if err := cli.WriteJSON(os.Stdout, status); err != nil {
			fatalf("Output failed: %v", err)
		}
		return
	}
	writeStatusText(os.Stdout, &status)
}

func writeStatusText(w io.Writer, status *server.StatusResponse) {
	if s := status.Stats; s != nil {
		fmt.Fprintf(w, "patterns:            %d   # stored wave patterns\n", s.Patterns)
		fmt.Fprintf(w, "total_energy:        %.4f\n", s.TotalEnergy)
		fmt.Fprintf(w, "max_depth:           %d   # deepest absorption chain\n", s.MaxDepth)
		fmt.Fprintf(w, "absorbed_edges:      %d\n", s.AbsorbedEdges)
		fmt.Fprintf(w, "metadata_indexed:    %d\n", s.MetadataIndexed)
		fmt.Fprintf(w, "archived_snapshots:  %d\n", s.ArchivedCount)
		if s.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:    %d   # snapshot + archive on disk\n", *s.DiskUsageBytes)
		}
	}
	for _, d := range status.IngestDirectories {
		fmt.Fprintf(w, "ingest_directory:    %s\n", d)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		if c.SnapshotPath != "" {
			fmt.Fprintf(w, "snapshot_path:       %s\n", c.SnapshotPath)
		}
		if c.ArchivePath != "" {
			fmt.Fprintf(w, "archive_path:        %s\n", c.ArchivePath)
		}
		fmt.Fprintf(w, "default_top_k:       %d\n", c.DefaultTopK)
		fmt.Fprintf(w, "max_top_k:           %d\n", c.MaxTopK)
		fmt.Fprintf(w, "min_resonance:       %.2f\n", c.DefaultMinResonance)
		fmt.Fprintf(w, "absorb_strength:     %.2f\n", c.DefaultStrength)
		fmt.Fprintf(w, "embedding_dims:      %d\n", c.EmbeddingDimensions)
	}
}

func printUsage() {
	fmt.Println(`wavekb - Quaternion wave-pattern knowledge store

Usage:
  wavekb server [flags]                        Start the HTTP server
  wavekb convert [flags]                       Convert an embedding or text to a pattern (not stored)
  wavekb insert [flags]                        Store a new pattern
  wavekb search [flags] [text]                 Rank stored patterns by resonance
  wavekb absorb [flags] <target> <sources...>  Blend sources into target
  wavekb get [flags] <id>                      Show one pattern
  wavekb list [flags]                          List patterns in insertion order
  wavekb delete [flags] <id>                   Delete a pattern
  wavekb snapshot [flags]                      Save the knowledge snapshot now
  wavekb status [flags]                        Show store and configuration status
  wavekb version                               Show version
  wavekb help                                  Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/wavekb/config.yaml)
  --debug            Enable debug logging

Common Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL, e.g. http://localhost:8080. Empty (default) loads the snapshot directly.
  --output string    Output format: text, compact, or json (default: text)
  --debug            Log debug output to stderr

Input Flags (convert, insert, search):
  --embedding string   Comma-separated embedding values
  --text string        Text embedded with the built-in hash embedder
  --metadata string    Metadata JSON object (convert, insert)

Examples:
  wavekb server
  wavekb insert --id cat --embedding "0.9,0.1,0.4,-0.2" --metadata '{"kind":"animal"}'
  wavekb insert --text "quaternions compose rotations"
  wavekb search --embedding "0.8,0.2,0.35,-0.1" --top-k 3 --explain
  wavekb search --server http://localhost:8080 --output json rotations
  wavekb absorb --strength 0.3 cat dog
  wavekb status --output json`)
}
