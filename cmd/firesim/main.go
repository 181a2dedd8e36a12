package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yja/firesim/internal/auth"
	"github.com/yja/firesim/internal/firebase"
	"github.com/yja/firesim/internal/handler"
	appI18n "github.com/yja/firesim/internal/i18n"
	"github.com/yja/firesim/internal/llm"
	"github.com/yja/firesim/internal/llm/prompts"
	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/report"
	"github.com/yja/firesim/internal/session"
	"github.com/yja/firesim/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "firesim",
		Short: "Fire incident response training simulation",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), hashPasswordCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP training server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "firesim.db", "SQLite database path")
	f.String("registry", "sqlite", "Where training sessions are kept (sqlite, firebase)")
	f.String("firebase-credentials", "", "Service account JSON for the firebase registry")
	f.String("firebase-url", "", "Realtime Database URL for the firebase registry")
	f.String("llm-provider", "none", "Report summariser (openai, gemini, anthropic, none)")
	f.String("llm-url", "", "Override the provider's API base URL")
	f.String("llm-key", "", "API key for the report summariser")
	f.String("llm-model", "", "Model name (provider default when empty)")
	f.Duration("llm-timeout", 30*time.Second, "Maximum time to wait for a report summary")
	f.StringP("lang", "l", "ko", "Default UI language (ko, en)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /fire)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("admin-password", "", "Instructor password (or set FIRESIM_ADMIN_PASSWORD)")
	f.String("admin-password-hash", "", "Bcrypt hash of the instructor password (see hash-password)")
	f.Int("min-facts", 1, "Facts a team must select before leaving the situation stage")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a training session and its reports as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "firesim.db", "SQLite database path")
	f.String("registry", "sqlite", "Where training sessions are kept (sqlite, firebase)")
	f.String("firebase-credentials", "", "Service account JSON for the firebase registry")
	f.String("firebase-url", "", "Realtime Database URL for the firebase registry")
	f.String("session", "", "Session ID to export (defaults to the active session)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for --admin-password-hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("FIRESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("firesim")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/firesim")
	v.AddConfigPath("/etc/firesim")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openRegistry picks where session configs live. Participants always stay in db.
func openRegistry(ctx context.Context, v *viper.Viper, db *store.Store) (session.Registry, error) {
	switch kind := strings.ToLower(v.GetString("registry")); kind {
	case "", "sqlite":
		return db, nil
	case "firebase":
		url := v.GetString("firebase-url")
		if url == "" {
			return nil, errors.New("firebase registry requires --firebase-url")
		}
		return firebase.New(ctx, v.GetString("firebase-credentials"), url)
	default:
		return nil, fmt.Errorf("unknown registry %q", kind)
	}
}

func newAssembler(ctx context.Context, v *viper.Viper, lang string) (*report.Assembler, error) {
	provider, err := llm.NewProvider(ctx, llm.Config{
		Provider: strings.ToLower(v.GetString("llm-provider")),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   v.GetString("llm-key"),
		Model:    v.GetString("llm-model"),
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		slog.Info("no LLM provider configured, reports use the built-in analysis")
		return report.NewAssembler(nil, 0), nil
	}

	set, err := prompts.Default()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	slog.Info("LLM provider ready", "provider", provider.Name())
	return report.NewAssembler(llm.New(provider, set, lang), v.GetDuration("llm-timeout")), nil
}

func normalizeBasePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.CleanupExpired(ctx); err != nil {
		slog.Warn("failed to clean up expired logins", "error", err)
	}

	registry, err := openRegistry(ctx, v, db)
	if err != nil {
		return fmt.Errorf("open session registry: %w", err)
	}
	sessions := session.NewBroadcaster(registry)
	if demo, err := session.EnsureDefault(ctx, sessions, time.Now()); err != nil {
		return fmt.Errorf("seed demo session: %w", err)
	} else if demo != nil {
		slog.Info("created demo session", "id", demo.ID, "group", demo.GroupName)
	}

	verifier, usedDefault, err := auth.FromConfig(v.GetString("admin-password"), v.GetString("admin-password-hash"))
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	if usedDefault {
		slog.Warn("no admin password configured, using the built-in default")
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	assembler, err := newAssembler(ctx, v, lang)
	if err != nil {
		return err
	}

	basePath := normalizeBasePath(v.GetString("base-path"))
	appCfg := model.AppConfig{
		MinFacts:      v.GetInt("min-facts"),
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	}

	h, err := handler.New(sessions, db, assembler, verifier, appCfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"registry", v.GetString("registry"),
		"llm_provider", v.GetString("llm-provider"),
		"lang", lang,
		"min_facts", appCfg.MinFacts,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	registry, err := openRegistry(ctx, v, db)
	if err != nil {
		return fmt.Errorf("open session registry: %w", err)
	}

	id := v.GetString("session")
	if id == "" {
		active, err := db.ActiveSession(ctx, registry)
		if err != nil {
			return fmt.Errorf("resolve active session: %w", err)
		}
		if active == nil {
			return errors.New("no session to export: pass --session")
		}
		id = active.ID
	}

	export, err := db.ExportSession(ctx, registry, id)
	if err != nil {
		return fmt.Errorf("export session %s: %w", id, err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	slog.Info("exported session", "id", id, "participants", len(export.Participants))
	return nil
}
