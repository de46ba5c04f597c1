// Package main is the clausekit CLI entry point.
package main

import (
	"bufio"
	"context"
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

	"github.com/hyperjump/clausekit/internal/auth"
	"github.com/hyperjump/clausekit/internal/cli"
	"github.com/hyperjump/clausekit/internal/config"
	"github.com/hyperjump/clausekit/internal/export"
	"github.com/hyperjump/clausekit/internal/extract"
	"github.com/hyperjump/clausekit/internal/importer"
	"github.com/hyperjump/clausekit/internal/models"
	"github.com/hyperjump/clausekit/internal/render"
	"github.com/hyperjump/clausekit/internal/search"
	"github.com/hyperjump/clausekit/internal/server"
	"github.com/hyperjump/clausekit/internal/storage"
	"github.com/hyperjump/clausekit/internal/upstream"
	"github.com/hyperjump/clausekit/internal/watcher"
	"github.com/hyperjump/clausekit/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/clausekit/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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
	case "server":
		runServer()
	case "extract":
		runExtract()
	case "render":
		runRender()
	case "templates":
		runTemplates()
	case "hash-password":
		runHashPassword()
	case "version", "--version", "-v":
		fmt.Printf("clausekit version %s\n", version)
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

// Components are the long-lived collaborators shared by the server and CLI commands.
type Components struct {
	Store    storage.TemplateStore
	Searcher *search.Searcher
	Exporter *export.Coordinator
}

// Close releases the store and search index.
func (c *Components) Close() {
	if c.Searcher != nil {
		_ = c.Searcher.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}
	logger.Info("template store opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("catalog_path", cfg.Storage.CatalogPath),
		zap.String("database_path", cfg.Storage.DatabasePath),
	)
	return &Components{
		Store:    store,
		Searcher: search.NewSearcher(cfg.Search, logger),
		Exporter: export.NewCoordinator(store, render.NewRenderer(render.WithUTF8Font(cfg.Export.PDFFont)), logger),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(cfg.Logging, debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	authn, err := auth.New(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("Failed to initialize auth", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Watch.Directories) > 0 {
		watchSvc := watcher.New(cfg.Watch, importer.New(components.Store, logger), logger)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		watchSvc.Sync(ctx)
	}

	srv := server.NewServer(server.Deps{
		Store:     components.Store,
		Extractor: extract.NewExtractor(),
		Exporter:  components.Exporter,
		Searcher:  components.Searcher,
		Upstream:  upstream.NewClient(cfg.Upstream, logger),
		Auth:      authn,
	}, &cfg.Server, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		fatalf("Usage: clausekit extract <file>")
	}
	text, err := extract.NewExtractor().Extract(fs.Arg(0))
	if err != nil {
		fatalf("Failed to extract %s: %v", fs.Arg(0), err)
	}
	fmt.Println(text)
}

func runRender() {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used with -template)")
	format := fs.String("format", "pdf", "output format: pdf, word, or excel")
	out := fs.String("o", "", "output file (default: result.<ext> or <template id>.<ext>)")
	templateID := fs.String("template", "", "render a catalog template instead of text")
	font := fs.String("font", "", "UTF-8 TrueType font for PDF output (text mode)")
	_ = fs.Parse(cli.ReorderArgs(os.Args[2:]))

	logger := zap.NewNop()
	var res *export.Result
	if *templateID != "" {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fatalf("Failed to load config: %v", err)
		}
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fatalf("%v", err)
		}
		defer components.Close()
		res, err = components.Exporter.DownloadTemplate(context.Background(), *templateID, *format)
		if err != nil {
			fatalf("Failed to render template %s: %v", *templateID, err)
		}
	} else {
		content, err := readContent(fs.Args(), os.Stdin)
		if err != nil {
			fatalf("Failed to read content: %v", err)
		}
		exporter := export.NewCoordinator(storage.NewMemoryStore(), render.NewRenderer(render.WithUTF8Font(*font)), logger)
		res, err = exporter.Export(models.ExportRequest{Format: *format, Content: content})
		if err != nil {
			fatalf("Failed to render: %v", err)
		}
	}

	path := *out
	if path == "" {
		path = res.Filename
	}
	if err := writeResult(path, res); err != nil {
		fatalf("Failed to write %s: %v", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// readContent returns the positional args joined, or all of stdin when there are none.
func readContent(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return cli.JoinArgs(args), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func writeResult(path string, res *export.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.Write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func runTemplates() {
	if len(os.Args) < 3 {
		fatalf("Usage: clausekit templates <list|add|delete> [flags]")
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("templates "+sub, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format for list: text or json")
	file := fs.String("file", "", "add: read the template from a YAML or JSON file")
	id := fs.String("id", "", "add: template id")
	title := fs.String("title", "", "add: template title")
	description := fs.String("description", "", "add: template description")
	category := fs.String("category", "", "add: template category")
	content := fs.String("content", "", "add: template content")
	_ = fs.Parse(cli.ReorderArgs(os.Args[3:]))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		fatalf("%v", err)
	}
	defer components.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		format, err := cli.ParseOutputFormat(*output)
		if err != nil {
			fatalf("%v", err)
		}
		catalog, err := components.Store.List(ctx)
		if err != nil {
			fatalf("Failed to load templates: %v", err)
		}
		_ = cli.WriteTemplates(os.Stdout, catalog, format)
	case "add":
		var t models.Template
		if *file != "" {
			t, err = importer.ParseFile(*file)
			if err != nil {
				fatalf("Failed to read %s: %v", *file, err)
			}
		} else {
			t = models.Template{ID: *id, Title: *title, Description: *description, Category: *category, Content: *content}
		}
		if _, err := components.Store.Add(ctx, t); err != nil {
			fatalf("Failed to add template: %v", err)
		}
		fmt.Printf("Added template %s\n", t.ID)
	case "delete":
		if fs.NArg() != 1 {
			fatalf("Usage: clausekit templates delete <id>")
		}
		if _, err := components.Store.Delete(ctx, fs.Arg(0)); err != nil {
			fatalf("Failed to delete template: %v", err)
		}
		fmt.Printf("Deleted template %s\n", fs.Arg(0))
	default:
		fatalf("Unknown templates command: %s", sub)
	}
}

func runHashPassword() {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])
	password, err := readPassword(fs.Args(), os.Stdin)
	if err != nil {
		fatalf("%v", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}

// readPassword takes the password from the first argument, or the first line of stdin.
func readPassword(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is empty")
	}
	return line, nil
}

func printUsage() {
	fmt.Println(`clausekit - Contract drafting backend

Usage:
  clausekit server [flags]                 Start the HTTP server
  clausekit extract <file>                 Print the text extracted from a document
  clausekit render [flags] [text]          Render text (or stdin) as pdf, word, or excel
  clausekit templates list [flags]         List catalog templates
  clausekit templates add [flags]          Add a template
  clausekit templates delete <id>          Delete a template
  clausekit hash-password [password]       Print a bcrypt hash for auth.users[].password_hash
  clausekit version                        Show version
  clausekit help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/clausekit/config.yaml)
  --debug            Enable debug logging

Render Flags:
  --format string    pdf, word, or excel (default: pdf)
  --o string         Output file (default: result.<ext>)
  --template string  Render the catalog template with this id
  --config string    Config file path (with --template)
  --font string      UTF-8 TrueType font for PDF output (without --template)

Templates Flags:
  --config string    Config file path
  --output string    list: text or json (default: text)
  --file string      add: YAML or JSON template file
  --id, --title, --description, --category, --content
                     add: template fields when --file is not given

Examples:
  clausekit server
  clausekit extract contract.docx
  clausekit render --format word -o nda.docx "This Agreement is made..."
  clausekit render --template nda --format excel
  clausekit templates add --file templates/imports/lease.yaml
  echo -n 'secret' | clausekit hash-password`)
}
