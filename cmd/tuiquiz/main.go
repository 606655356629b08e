// Package main provides the CLI entrypoint for tuiquiz.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuiquiz/internal/bank"
	"github.com/verte-zerg/tuiquiz/internal/config"
	"github.com/verte-zerg/tuiquiz/internal/generator"
	"github.com/verte-zerg/tuiquiz/internal/legacy"
	"github.com/verte-zerg/tuiquiz/internal/logger"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/session"
	"github.com/verte-zerg/tuiquiz/internal/stats"
	"github.com/verte-zerg/tuiquiz/internal/statsrepo"
	"github.com/verte-zerg/tuiquiz/internal/statsui"
	"github.com/verte-zerg/tuiquiz/internal/storage"
	"github.com/verte-zerg/tuiquiz/internal/tui"
)

const (
	defaultRandomMinutes = 90
	defaultCustomSize    = 30
	defaultCustomMinimum = 30
	defaultWeakTop       = 10
	defaultLogLevel      = "info"
	sweepDelay           = 2 * time.Second
)

var (
	quizBank          string
	quizCategory      string
	quizRandom        bool
	quizCustom        []string
	quizRandomMinutes int
	quizCustomSize    int
	quizCustomMinimum int
	quizShuffle       bool
	logLevel          string

	statsCategory string
	statsLast     int
	statsWeakTop  int
	statsPlain    bool

	migrateManual bool

	resetAll bool
	resetYes bool
)

var errNoMode = errors.New("choose a test: --category <name>, --random, or --custom <a,b,...>")

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiquiz",
		Short:         "TUI quiz trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runQuizCmd,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&quizBank, "bank", config.DefaultBankPath(), "question bank file (.json or .yaml)")
	rootCmd.Flags().StringVar(&quizCategory, "category", "", "take a test over one category")
	rootCmd.Flags().BoolVar(&quizRandom, "random", false, "take a timed test over every question")
	rootCmd.Flags().StringSliceVar(&quizCustom, "custom", nil, "take a timed test drawn from these categories")
	rootCmd.Flags().IntVar(&quizRandomMinutes, "minutes", defaultRandomMinutes, "time limit of random and custom tests")
	rootCmd.Flags().IntVar(&quizCustomSize, "custom-size", defaultCustomSize, "questions drawn for a custom test")
	rootCmd.Flags().IntVar(&quizCustomMinimum, "custom-minimum", defaultCustomMinimum, "questions the custom categories must hold")
	rootCmd.Flags().BoolVar(&quizShuffle, "shuffle-options", true, "shuffle answer options")

	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// app holds the opened persistence stack shared by the commands.
type app struct {
	cfg    config.FileConfig
	log    *zap.Logger
	store  *storage.Adapter
	engine *legacy.Engine
	repo   *statsrepo.Repository
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	logPath := config.DefaultLogPath()
	applyPathConfig(&logPath, fileCfg.Log.File)
	log, err := logger.New(logPath, logLevel)
	if err != nil {
		logErrf("logging disabled: %v\n", err)
		log = logger.Nop()
	}

	compress := true
	if fileCfg.Storage.Compress != nil {
		compress = *fileCfg.Storage.Compress
	}
	codec, err := storage.NewCodec(compress)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	dbPath := config.DefaultDBPath()
	applyPathConfig(&dbPath, fileCfg.Storage.DB)
	fallbackDir := config.DefaultFallbackDir()
	applyPathConfig(&fallbackDir, fileCfg.Storage.FallbackDir)

	var primary, fallback storage.Backend
	if db, err := storage.OpenSQLite(dbPath); err != nil {
		log.Warn("sqlite backend unavailable", zap.String("path", dbPath), zap.Error(err))
	} else {
		primary = db
	}
	if fb, err := storage.OpenFile(fallbackDir); err != nil {
		log.Warn("file backend unavailable", zap.String("dir", fallbackDir), zap.Error(err))
	} else {
		fallback = fb
	}
	if primary == nil && fallback == nil {
		logErrln("warning: no storage available; statistics will not be saved")
	}

	store := storage.NewAdapter(primary, fallback, codec, log)
	engine := legacy.NewEngine(store, codec, log)
	repo := statsrepo.New(store, engine, log)
	out, err := repo.Open(ctx)
	if err != nil {
		log.Error("failed to persist statistics at startup", zap.Error(err))
	}
	log.Info("statistics ready",
		zap.Stringer("state", out.State),
		zap.Bool("migrated", out.Migrated),
		zap.Int("cleaned", out.Cleaned))

	return &app{cfg: fileCfg, log: log, store: store, engine: engine, repo: repo}, nil
}

// Close releases the backends and the codec. Scheduled sweeps must be
// stopped first.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logErrf("failed to close storage: %v\n", err)
	}
	// Best-effort flush; syncing a file-less logger may fail harmlessly.
	_ = a.log.Sync()
}

// sweep runs the broad legacy pass and logs what it did.
func (a *app) sweep(ctx context.Context) {
	out, err := a.repo.Sweep(ctx)
	if err != nil {
		a.log.Error("legacy sweep failed to persist", zap.Error(err))
		return
	}
	a.log.Info("legacy sweep done",
		zap.Stringer("state", out.State),
		zap.Bool("migrated", out.Migrated),
		zap.String("legacy_key", out.LegacyKey),
		zap.Int("cleaned", out.Cleaned))
}

// scheduleSweep runs the broad legacy pass after delay. The returned function
// cancels a pending pass and waits for one that already started.
func (a *app) scheduleSweep(ctx context.Context, delay time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer wg.Done()
		a.sweep(ctx)
	})
	return func() {
		cancel()
		if timer.Stop() {
			wg.Done()
		}
		wg.Wait()
	}
}

func runQuizCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	quiz := a.cfg.Quiz
	applyPathConfigUnlessFlag(cmd, "bank", &quizBank, quiz.Bank)
	applyIntConfig(cmd, "minutes", &quizRandomMinutes, quiz.RandomMinutes)
	applyIntConfig(cmd, "custom-size", &quizCustomSize, quiz.CustomSize)
	applyIntConfig(cmd, "custom-minimum", &quizCustomMinimum, quiz.CustomMinimum)
	applyBoolConfig(cmd, "shuffle-options", &quizShuffle, quiz.ShuffleOptions)

	cfg := model.QuizConfig{
		BankPath:       quizBank,
		Category:       strings.TrimSpace(quizCategory),
		Random:         quizRandom,
		Custom:         trimAll(quizCustom),
		RandomDuration: time.Duration(quizRandomMinutes) * time.Minute,
		CustomSize:     quizCustomSize,
		CustomMinimum:  quizCustomMinimum,
		ShuffleOptions: quizShuffle,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	b, err := bank.Load(cfg.BankPath)
	if err != nil {
		return bankLoadError(cfg.BankPath, err)
	}
	questions, sessCfg, err := buildTest(b, generator.New(), cfg)
	if err != nil {
		if errors.Is(err, errNoMode) {
			if werr := writeCategories(cmd.ErrOrStderr(), b); werr != nil {
				return werr
			}
		}
		return err
	}

	stopSweep := a.scheduleSweep(ctx, sweepDelay)
	defer stopSweep()

	m := tui.NewModel(questions, sessCfg, a.repo, a.log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if res, ok := m.Session().Result(); ok {
		logErrf("%s: %d%% (%d/%d correct)\n", res.CategoryName, res.Percentage, res.CorrectAnswers, res.TotalQuestions)
	}
	return nil
}

// buildTest assembles the questions and session settings for the selected mode.
func buildTest(b *bank.Bank, gen *generator.Generator, cfg model.QuizConfig) ([]model.Question, session.Config, error) {
	modes := 0
	if cfg.Category != "" {
		modes++
	}
	if cfg.Random {
		modes++
	}
	if len(cfg.Custom) > 0 {
		modes++
	}
	switch {
	case modes == 0:
		return nil, session.Config{}, errNoMode
	case modes > 1:
		return nil, session.Config{}, fmt.Errorf("--category, --random and --custom are mutually exclusive")
	}

	switch {
	case cfg.Random:
		qs := gen.Random(b.All(), cfg.ShuffleOptions)
		return qs, session.Config{Label: model.RandomTestLabel, Kind: model.KindRandom, Duration: cfg.RandomDuration}, nil
	case len(cfg.Custom) > 0:
		pool, missing := b.Pool(cfg.Custom)
		if len(missing) > 0 {
			return nil, session.Config{}, fmt.Errorf("unknown categories: %s", strings.Join(missing, ", "))
		}
		qs, err := gen.Custom(pool, cfg.CustomSize, cfg.CustomMinimum, cfg.ShuffleOptions)
		if err != nil {
			return nil, session.Config{}, err
		}
		return qs, session.Config{Label: model.CustomTestLabel, Kind: model.KindCustom, Duration: cfg.RandomDuration}, nil
	default:
		c, ok := b.Category(cfg.Category)
		if !ok {
			return nil, session.Config{}, fmt.Errorf("unknown category %q (run: tuiquiz categories)", cfg.Category)
		}
		return gen.Category(c.Questions, cfg.ShuffleOptions), session.Config{Label: c.Name, Kind: model.KindCategory}, nil
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories of the question bank",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyPathConfigUnlessFlag(cmd, "bank", &quizBank, fileCfg.Quiz.Bank)
	b, err := bank.Load(quizBank)
	if err != nil {
		return bankLoadError(quizBank, err)
	}
	return writeCategories(cmd.OutOrStdout(), b)
}

func writeCategories(w io.Writer, b *bank.Bank) error {
	topic := ""
	for _, c := range b.Categories {
		if c.Topic != topic {
			topic = c.Topic
			if _, err := fmt.Fprintln(w, topic); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if _, err := fmt.Fprintf(w, "  %s (%d)\n", c.Name, len(c.Questions)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category filter")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit history to last N tests")
	cmd.Flags().IntVar(&statsWeakTop, "weak-top", defaultWeakTop, "number of weak questions to show (0 for all)")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsLast < 0 || statsWeakTop < 0 {
		return fmt.Errorf("--last and --weak-top must be >= 0")
	}
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	a.sweep(ctx)

	cfg := model.StatsConfig{
		Category: strings.TrimSpace(statsCategory),
		Last:     statsLast,
		WeakTop:  statsWeakTop,
	}
	out := cmd.OutOrStdout()
	if statsPlain || !stats.IsTerminal(out) {
		return stats.Render(out, stats.BuildReport(a.repo.Snapshot(), cfg), stats.TerminalWidth())
	}

	m := statsui.NewModel(a.repo, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect stored statistics and migrate legacy data",
		Args:  cobra.NoArgs,
		RunE:  runMigrateCmd,
	}
	cmd.Flags().BoolVar(&migrateManual, "manual", false, "adopt the first legacy key that migrates")
	return cmd
}

func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !migrateManual {
		if err := a.engine.Diagnose(ctx).Write(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	key, ok, err := a.repo.ManualMigrate(ctx)
	if err != nil {
		return fmt.Errorf("migrated %s but failed to save: %w", key, err)
	}
	if !ok {
		logErrln("No legacy statistics found.")
		return nil
	}
	rec := a.repo.Snapshot()
	if _, err := fmt.Fprintf(out, "Migrated %s: %d tests, %d history entries\n", key, rec.TotalTests, len(rec.TestHistory)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all statistics",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetAll, "all", false, "also delete legacy and other statistics keys")
	cmd.Flags().BoolVar(&resetYes, "yes", false, "do not ask for confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Delete all statistics? Type 'yes' to confirm: ")
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Aborted.")
			return nil
		}
	}
	ctx := context.Background()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if resetAll {
		removed, err := a.repo.Purge(ctx)
		if err != nil {
			return fmt.Errorf("failed to save cleared statistics: %w", err)
		}
		logErrf("Removed %d keys.\n", removed)
		return nil
	}
	if err := a.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to save cleared statistics: %w", err)
	}
	logErrln("Statistics cleared.")
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyPathConfigUnlessFlag(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = config.ExpandHome(*value)
}

func applyPathConfig(target, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	*target = config.ExpandHome(*value)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateConfig(cfg model.QuizConfig) error {
	if cfg.BankPath == "" {
		return fmt.Errorf("--bank must not be empty")
	}
	if cfg.RandomDuration <= 0 {
		return fmt.Errorf("--minutes must be > 0")
	}
	if cfg.CustomSize <= 0 {
		return fmt.Errorf("--custom-size must be > 0")
	}
	if cfg.CustomMinimum < 0 {
		return fmt.Errorf("--custom-minimum must be >= 0")
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func bankLoadError(path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load question bank: %v", err),
		fmt.Sprintf("expected question bank at: %s", path),
		"Set it with: tuiquiz --bank <file> or `bank` in tuiquiz config",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
