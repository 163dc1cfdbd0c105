package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fwbuilder-report/internal/config"
	"fwbuilder-report/internal/model"
	"fwbuilder-report/internal/parser"
	"fwbuilder-report/internal/report"
	"fwbuilder-report/internal/store"
)

var (
	configFile string
	title      string
	services   bool
	reportDB   string
	outFile    string
	logLevel   string
	logFile    string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fwreport <config.fwb> <firewall-name>",
		Short: "Render a fwbuilder firewall policy as an HTML report",
		Long: `fwreport reads a fwbuilder object database and writes a human readable
HTML description of one firewall's policy, with a glossary of every object
the rules refer to.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "Optional YAML settings file")
	rootCmd.Flags().StringVar(&title, "title", report.DefaultTitle, "Report title")
	rootCmd.Flags().BoolVar(&services, "services", false, "Also list service objects in the definitions")
	rootCmd.Flags().StringVar(&reportDB, "db", "", "MariaDB DSN to archive the rendered report (optional)")
	rootCmd.Flags().StringVar(&outFile, "out", "", "Output HTML file (default: stdout)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		slog.Error("Failed to load settings", "path", configFile, "error", err)
		return err
	}

	logger := setupLogger(opts.LogLevel, opts.LogFile)
	slog.SetDefault(logger)

	fwbFile, firewall := args[0], args[1]
	slog.Info("Starting fwreport", "file", fwbFile, "firewall", firewall)
	startTime := time.Now()

	doc, err := parser.ParseFile(fwbFile)
	if err != nil {
		slog.Error("Failed to load object database", "path", fwbFile, "error", err)
		return err
	}

	rep, err := report.Build(doc, report.Options{Firewall: firewall, Title: opts.Title, Services: opts.Services})
	if err != nil {
		slog.Error("Failed to build report", "firewall", firewall, "error", err)
		return err
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, rep); err != nil {
		slog.Error("Failed to render report", "error", err)
		return err
	}

	if opts.DB != "" {
		if err := archive(opts.DB, rep); err != nil {
			slog.Error("Failed to archive report", "error", err)
			return err
		}
	}

	if err := writeReport(cmd.OutOrStdout(), opts.Out, buf.Bytes()); err != nil {
		slog.Error("Failed to write report", "path", opts.Out, "error", err)
		return err
	}

	slog.Info("Report complete", "bytes", buf.Len(), "duration", time.Since(startTime))
	return nil
}

// resolveOptions layers explicitly set flags over the settings file, which
// itself sits over the defaults.
func resolveOptions(cmd *cobra.Command) (config.Options, error) {
	opts := config.Default()
	if configFile != "" {
		var err error
		if opts, err = config.LoadFile(configFile); err != nil {
			return opts, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		opts.Title = title
	}
	if flags.Changed("services") {
		opts.Services = services
	}
	if flags.Changed("db") {
		opts.DB = reportDB
	}
	if flags.Changed("out") {
		opts.Out = outFile
	}
	if flags.Changed("log-level") {
		opts.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		opts.LogFile = logFile
	}
	return opts, nil
}

func archive(dsn string, rep *model.Report) error {
	a, err := store.NewMariaDBArchive(dsn)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.EnsureSchema(); err != nil {
		return err
	}
	if err := a.Save(rep); err != nil {
		return err
	}
	slog.Info("Report archived", "firewall", rep.Firewall, "rules", len(rep.Policy.Rules))
	return nil
}

// writeReport sends the document to stdout, or to path when one is set.
func writeReport(stdout io.Writer, path string, document []byte) error {
	if path == "" {
		_, err := stdout.Write(document)
		return err
	}
	return os.WriteFile(path, document, 0644)
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// Falls back to stderr, the logger isn't set up yet to report it.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}
