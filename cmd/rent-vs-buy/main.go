package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/engine"
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/internal/server"
	"github.com/iwvelando/rent-vs-buy/internal/share"
	"github.com/iwvelando/rent-vs-buy/internal/tracing"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/output"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

// loadConfiguration reads the scenario file, falling back to defaults (plus
// environment overrides) when it does not exist.
func loadConfiguration(path string) (*config.Configuration, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		conf, err := config.LoadDefaults()
		return conf, false, err
	}
	conf, err := config.LoadConfiguration(path)
	return conf, true, err
}

// resolveScenario applies the -preset and -token overrides to base. A
// missing token is silent; a malformed one is logged and the base scenario
// is kept.
func resolveScenario(logger *zap.Logger, base scenario.Scenario, preset, token string) (scenario.Scenario, error) {
	s := base
	if preset != "" {
		var err error
		if s, err = s.WithPreset(preset); err != nil {
			return s, err
		}
	}

	restored, err := share.FromURL(token)
	switch {
	case errors.Is(err, share.ErrNoToken):
		return s, nil
	case err != nil:
		logger.Warn("ignoring malformed share token; using configured scenario",
			zap.String("op", "main.resolveScenario"),
			zap.Error(err),
		)
		return s, nil
	}
	logger.Info("restored scenario from share token",
		zap.String("op", "main.resolveScenario"),
		zap.String("equipment", restored.EquipmentKey),
	)
	return restored, nil
}

// writeReport renders rows in the requested format.
func writeReport(w io.Writer, outputFormat, outputFile, title, currencyCode string, rows []output.Row, res interface{}, warnings []string) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(w, title, currencyCode, rows, warnings)
		return nil
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, currencyCode, rows)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, res)
	case constants.OutputFormatXLSX:
		if outputFile == "" {
			outputFile = constants.DefaultXLSXFile
		}
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outputFile, err)
		}
		if err := output.XLSXFormat(file, currencyCode, rows); err != nil {
			_ = file.Close()
			return err
		}
		return file.Close()
	}
	return validation.ValidateOutputFormat(outputFormat)
}

func serve(logger *zap.Logger, serverCfg *server.Config) error {
	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, logger, serverCfg.Tracing.ServiceName, version, serverCfg.Tracing.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	srv := &http.Server{
		Addr:              serverCfg.Address,
		Handler:           server.NewHandler(logger, serverCfg.BodySizeBytes(), version, serverCfg.ShareBase),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "main.serve"),
			zap.String("address", serverCfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(ctx, serverCfg.ShutdownGraceDuration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	// Environment overrides may live in a .env file next to the binary.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("{\"op\": \"main\", \"level\": \"warn\", \"msg\": \"failed to load .env\", \"error\": \"%v\"}\n", err)
	}

	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to scenario file; defaults are used when it does not exist")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, xlsx")
	outputFile := flag.String("output-file", "", "xlsx output path")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	preset := flag.String("preset", "", "equipment preset to apply (PDT, HHT, PRN, TAB)")
	token := flag.String("token", "", "share token or share URL to restore a scenario from")
	shareBase := flag.String("share-base", "", "page URL to build a share link on")
	compareTerms := flag.Bool("compare-terms", false, "evaluate the scenario at every supported term")
	exportScenario := flag.String("export-scenario", "", "write the resolved scenario as YAML to this path")
	serveMode := flag.Bool("serve", false, "run the HTTP API instead of a single evaluation")
	serverConfig := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	if *serveMode {
		serverCfg, err := server.LoadConfig(*serverConfig)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfig, err)
			os.Exit(1)
		}
		if *shareBase != "" {
			if err := serverCfg.SetShareBase(*shareBase); err != nil {
				fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid -share-base\", \"error\": \"%v\"}\n", err)
				os.Exit(1)
			}
		}
		logger, err := initializeLogger(serverCfg.Logging, *logLevel)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = logger.Sync()
		}()
		if err := serve(logger, serverCfg); err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Load the config file to get logging configuration
	conf, fromFile, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if !fromFile {
		logger.Info("no scenario file found; using defaults",
			zap.String("op", "main"),
			zap.String("config", *configLocation),
		)
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	s, err := resolveScenario(logger, conf.Scenario, *preset, *token)
	if err != nil {
		logger.Fatal("failed to resolve scenario",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if err := s.Validate(); err != nil {
		logger.Fatal("invalid scenario",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	conf.Scenario = s

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *exportScenario != "" {
		if err := exportScenarioYAML(*exportScenario, s); err != nil {
			logger.Fatal("failed to export scenario",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	var (
		rows   []output.Row
		result interface{}
		title  string
	)
	if *compareTerms {
		terms := engine.CompareTerms(s)
		rows, result = output.TermRows(terms), terms
		title = fmt.Sprintf("Term comparison for %s", s.EquipmentKey)
	} else {
		res := engine.EvaluateWithLogger(logger, s)
		rows, result = output.Rows(res), res
		title = fmt.Sprintf("Results for %s, %d x %d months", s.EquipmentKey, s.Quantity, s.TermMonths)
	}

	xlsxFile := conf.Output.File
	if *outputFile != "" {
		xlsxFile = *outputFile
	}
	if err := writeReport(os.Stdout, outputFormat, xlsxFile, title, s.Currency, rows, result, warnings); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	base := conf.Output.ShareBase
	if *shareBase != "" {
		base = *shareBase
	}
	if base != "" {
		link, err := share.URL(base, s)
		if err != nil {
			logger.Error("failed to build share link",
				zap.String("op", "main"),
				zap.Error(err),
			)
			return
		}
		if outputFormat == constants.OutputFormatPretty {
			fmt.Printf("\nShare: %s\n", link)
		} else {
			logger.Info("share link", zap.String("op", "main"), zap.String("url", link))
		}
	}
}

func exportScenarioYAML(path string, s scenario.Scenario) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := output.ScenarioYAML(file, s); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
