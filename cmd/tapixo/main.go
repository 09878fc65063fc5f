// Package main provides the CLI entrypoint for tapixo.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tapixo/internal/anticheat"
	"github.com/verte-zerg/tapixo/internal/api"
	"github.com/verte-zerg/tapixo/internal/config"
	"github.com/verte-zerg/tapixo/internal/engine"
	"github.com/verte-zerg/tapixo/internal/generator"
	"github.com/verte-zerg/tapixo/internal/logging"
	"github.com/verte-zerg/tapixo/internal/model"
	"github.com/verte-zerg/tapixo/internal/recorder"
	"github.com/verte-zerg/tapixo/internal/stats"
	"github.com/verte-zerg/tapixo/internal/statsui"
	"github.com/verte-zerg/tapixo/internal/store"
	"github.com/verte-zerg/tapixo/internal/tui"
	"github.com/verte-zerg/tapixo/internal/wordlist"
)

const (
	defaultDifficulty = "hard"
	defaultMode       = "passage"
	defaultCategory   = "words"
	defaultLanguage   = "javascript"
	defaultPunctSet   = ".,;:!?"
	defaultAddr       = "127.0.0.1:8080"
	defaultUser       = "player"
	shutdownTimeout   = 5 * time.Second
)

var (
	practiceDifficulty   string
	practiceMode         string
	practiceCategory     string
	practiceLanguage     string
	practiceDuration     int
	practiceCaps         float64
	practicePunct        float64
	practicePunctSet     string
	practiceWordList     string
	practiceWordListLang string
	practiceCustomFile   string

	userName  string
	dbPath    string
	threshold float64
	logLevel  string

	listLimit int
	serveAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tapixo",
		Short:         "Typing speed trainer with personal bests and a ranked leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&userName, "user", "", "player name (default: $USER)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")
	rootCmd.PersistentFlags().Float64Var(&threshold, "threshold", recorder.DefaultThreshold, "cheat score above which a result is rejected (0-1]")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "easy, medium, hard, ranked or custom")
	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "passage or timed")
	rootCmd.Flags().StringVar(&practiceCategory, "category", defaultCategory, "words, quotes, lyrics or code")
	rootCmd.Flags().StringVar(&practiceLanguage, "language", defaultLanguage, "code passage language")
	rootCmd.Flags().IntVar(&practiceDuration, "duration", engine.DefaultDuration, "timed mode seconds")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", 0, "probability of a capitalized word (0-1)")
	rootCmd.Flags().Float64Var(&practicePunct, "punct", 0, "probability of trailing punctuation per word (0-1)")
	rootCmd.Flags().StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	rootCmd.Flags().StringVar(&practiceWordList, "wordlist", "", "word list file replacing the built-in words")
	rootCmd.Flags().StringVar(&practiceWordListLang, "wordlist-lang", "", `word list filter; "en" keeps lowercase ASCII words`)
	rootCmd.Flags().StringVar(&practiceCustomFile, "custom-file", "", "practice the contents of this file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCommonConfig(cmd, fileCfg)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyStringConfig(cmd, "category", &practiceCategory, fileCfg.Practice.Category)
	applyStringConfig(cmd, "language", &practiceLanguage, fileCfg.Practice.Language)
	applyIntConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Practice.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, fileCfg.Practice.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, fileCfg.Practice.PunctSet)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Practice.WordList)
	applyStringConfig(cmd, "wordlist-lang", &practiceWordListLang, fileCfg.Practice.WordListLang)
	applyStringConfig(cmd, "custom-file", &practiceCustomFile, fileCfg.Practice.CustomFile)

	cfg, err := practiceConfig()
	if err != nil {
		return err
	}
	opts, err := generatorOptions()
	if err != nil {
		return err
	}
	if err := validateThreshold(threshold); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(fileCfg, "practice", true)
	if err != nil {
		return err
	}
	defer closeQuietly(closeLog)

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", "err", cerr)
		}
	}()

	ctx := context.Background()
	user, err := st.EnsureUser(ctx, resolveUserName(userName))
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	bests, err := st.LoadBests(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load bests: %w", err)
	}

	gen := generator.New(opts)
	eng := engine.New(cfg, gen, bests)
	if practiceCustomFile != "" {
		text, err := readCustomText(practiceCustomFile)
		if err != nil {
			return err
		}
		eng.SetCustomText(text)
	}

	logger.Info("practice started", "user", user.Username, "difficulty", string(cfg.Difficulty), "mode", string(cfg.Mode))
	m := tui.NewModel(eng, tui.Options{
		User:      user,
		Submitter: recorder.New(st, threshold, logger),
		Logger:    logger,
		Tip:       gen.Tip(),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func practiceConfig() (model.Config, error) {
	difficulty, err := model.ParseDifficulty(practiceDifficulty)
	if err != nil {
		return model.Config{}, fmt.Errorf("--difficulty: %w", err)
	}
	mode, err := model.ParseMode(practiceMode)
	if err != nil {
		return model.Config{}, fmt.Errorf("--mode: %w", err)
	}
	category, err := model.ParseCategory(practiceCategory)
	if err != nil {
		return model.Config{}, fmt.Errorf("--category: %w", err)
	}
	language, err := model.ParseLanguage(practiceLanguage)
	if err != nil {
		return model.Config{}, fmt.Errorf("--language: %w", err)
	}
	if practiceDuration <= 0 {
		return model.Config{}, fmt.Errorf("--duration must be > 0")
	}
	return model.Config{
		Difficulty: difficulty,
		Mode:       mode,
		Category:   category,
		Language:   language,
		Duration:   practiceDuration,
	}, nil
}

func generatorOptions() (generator.Options, error) {
	if practiceCaps < 0 || practiceCaps > 1 {
		return generator.Options{}, fmt.Errorf("--caps must be between 0 and 1")
	}
	if practicePunct < 0 || practicePunct > 1 {
		return generator.Options{}, fmt.Errorf("--punct must be between 0 and 1")
	}
	if practicePunct > 0 && practicePunctSet == "" {
		return generator.Options{}, fmt.Errorf("--punct-set must not be empty")
	}
	opts := generator.Options{
		CapsPct:  practiceCaps,
		PunctPct: practicePunct,
		PunctSet: []rune(practicePunctSet),
	}
	if practiceWordList != "" {
		words, err := wordlist.LoadWords(practiceWordList, wordlist.FilterForLang(practiceWordListLang))
		if err != nil {
			return generator.Options{}, fmt.Errorf("failed to load word list: %w", err)
		}
		opts.Words = words
	}
	return opts, nil
}

func validateThreshold(v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("--threshold must be in (0, 1]")
	}
	return nil
}

func readCustomText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read custom text: %w", err)
	}
	text := strings.Join(strings.Fields(string(data)), " ")
	if text == "" {
		return "", fmt.Errorf("custom text file %s is empty", path)
	}
	return text, nil
}

func resolveUserName(flag string) string {
	if name := strings.TrimSpace(flag); name != "" {
		return name
	}
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name
	}
	return defaultUser
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
		Short: "Browse your stats, history and the ranked leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&listLimit, "limit", store.DefaultLimit, "rows in history and leaderboard tabs")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCommonConfig(cmd, fileCfg)
	logger, closeLog, err := openLogger(fileCfg, "stats", true)
	if err != nil {
		return err
	}
	defer closeQuietly(closeLog)

	st, user, err := openForUser(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", "err", cerr)
		}
	}()

	m := statsui.NewModel(st, user, model.StatsConfig{Username: user.Username, Limit: listLimit})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

// openForUser opens the store and looks up the player without creating one.
// A missing player yields an empty User so read-only views still work.
func openForUser(ctx context.Context) (*store.Store, model.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, model.User{}, fmt.Errorf("failed to open db: %w", err)
	}
	name := resolveUserName(userName)
	user, err := st.GetUserByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return st, model.User{Username: name}, nil
	}
	if err != nil {
		_ = st.Close()
		return nil, model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return st, user, nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print your latest results",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&listLimit, "limit", store.DefaultLimit, "number of results")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCommonConfig(cmd, fileCfg)
	st, user, err := openForUser(cmd.Context())
	if err != nil {
		return err
	}
	defer closeQuietly(st)

	var results []model.Result
	if user.ID != "" {
		if results, err = st.ListHistory(cmd.Context(), user.ID, listLimit); err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
	}
	if err := stats.RenderHistory(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the ranked leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().IntVar(&listLimit, "limit", store.DefaultLimit, "number of entries")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCommonConfig(cmd, fileCfg)
	st, user, err := openForUser(cmd.Context())
	if err != nil {
		return err
	}
	defer closeQuietly(st)

	entries, err := st.Leaderboard(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderLeaderboard(out, entries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if user.ID == "" {
		return nil
	}
	rank, err := st.RankOf(cmd.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to load rank: %w", err)
	}
	if rank > 0 {
		_, err = fmt.Fprintf(out, "\n%s is ranked #%d\n", user.Username, rank)
	} else {
		_, err = fmt.Fprintf(out, "\n%s has no ranked score yet\n", user.Username)
	}
	return err
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score FILE",
		Short: "Score a JSON keystroke log for automated input (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScoreCmd,
	}
}

func runScoreCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCommonConfig(cmd, fileCfg)
	if err := validateThreshold(threshold); err != nil {
		return err
	}

	var data []byte
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read keystrokes: %w", err)
	}
	keystrokes, err := parseKeystrokes(data)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), anticheat.Analyze(keystrokes), threshold)
}

// parseKeystrokes accepts either a bare array or an object with a keystrokes field.
func parseKeystrokes(data []byte) ([]anticheat.Keystroke, error) {
	data = bytes.TrimSpace(data)
	var keystrokes []anticheat.Keystroke
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &keystrokes); err != nil {
			return nil, fmt.Errorf("failed to decode keystrokes: %w", err)
		}
		return keystrokes, nil
	}
	var wrapped struct {
		Keystrokes []anticheat.Keystroke `json:"keystrokes"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode keystrokes: %w", err)
	}
	return wrapped.Keystrokes, nil
}

func writeReport(w io.Writer, r anticheat.Report, limit float64) error {
	verdict := "accepted"
	if r.Score > limit {
		verdict = "rejected"
	}
	lines := []string{
		fmt.Sprintf("Score           %.2f (%s at threshold %.2f)", r.Score, verdict, limit),
		fmt.Sprintf("Keystrokes      %d", r.Keystrokes),
		fmt.Sprintf("Flow intervals  %d", r.FlowIntervals),
	}
	if r.FlowIntervals > 0 && r.Keystrokes >= anticheat.MinKeystrokes {
		lines = append(lines,
			fmt.Sprintf("Mean interval   %.1f ms", r.MeanFlowMs),
			fmt.Sprintf("Std deviation   %.1f ms (+%.1f)", r.StdDevMs, r.DispersionHit),
			fmt.Sprintf("Estimated WPM   %.0f", r.EstimatedWPM),
		)
	}
	if r.DigraphChecked {
		lines = append(lines, fmt.Sprintf("Digraph ratio   %.2f over %d fast / %d slow pairs (+%.1f)",
			r.DigraphRatio, r.FastPairs, r.SlowPairs, r.DigraphHit))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the leaderboard and profile cards over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCommonConfig(cmd, fileCfg)
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	if err := validateThreshold(threshold); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(fileCfg, "api", false)
	if err != nil {
		return err
	}
	defer closeQuietly(closeLog)

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", "err", cerr)
		}
	}()

	srv := api.New(st, api.Config{AllowOrigins: fileCfg.Server.AllowOrigins, Threshold: threshold}, logger)
	httpSrv := &http.Server{
		Addr:              serveAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", serveAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openLogger writes to the configured file, or to the default state file when
// a TUI owns the terminal, and to stderr otherwise.
func openLogger(fileCfg config.FileConfig, component string, interactive bool) (*slog.Logger, io.Closer, error) {
	lvl, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("--log-level: %w", err)
	}
	var format string
	if fileCfg.Log.Format != nil {
		format = *fileCfg.Log.Format
	}
	fmtKind, err := logging.ParseFormat(format)
	if err != nil {
		return nil, nil, fmt.Errorf("log.format: %w", err)
	}
	path := ""
	if fileCfg.Log.File != nil {
		path = *fileCfg.Log.File
	}
	if path == "" && interactive {
		path = config.DefaultLogPath()
	}
	logger, closer, err := logging.New(logging.Config{
		Level:     lvl,
		Format:    fmtKind,
		FilePath:  path,
		Component: component,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, closer, nil
}

func applyCommonConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "user", &userName, fileCfg.User.Name)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyFloatConfig(cmd, "threshold", &threshold, fileCfg.AntiCheat.Threshold)
}

func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logErrf("failed to close: %v\n", err)
	}
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

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
