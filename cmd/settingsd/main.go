package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/settingsd/internal/application"
	"github.com/eugenenazirov/settingsd/internal/config"
	"github.com/eugenenazirov/settingsd/internal/document"
	"github.com/eugenenazirov/settingsd/internal/loader"
	"github.com/eugenenazirov/settingsd/internal/logging"
	"github.com/eugenenazirov/settingsd/internal/schema"
)

var signalNotify = signal.Notify

// globalFlags are shared by every command.
type globalFlags struct {
	configFile     *string
	port           *string
	settingsFile   *string
	watch          *bool
	watchSet       bool
	partialApply   *bool
	partialSet     bool
	rateLimitRPS   *float64
	rateLimitBurst *int
	logLevel       *string
}

func registerGlobalFlags(app *kingpin.Application) *globalFlags {
	f := &globalFlags{}
	f.configFile = app.Flag("config", "Path to YAML configuration file").String()
	f.port = app.Flag("port", "HTTP port exposed by the service").String()
	f.settingsFile = app.Flag("settings", "Path to the settings document (yaml, toml or json)").Short('f').String()
	f.watch = app.Flag("watch", "Reload the settings document when it changes").IsSetByUser(&f.watchSet).Bool()
	f.partialApply = app.Flag("partial-apply", "Apply the valid part of a settings document that has errors").IsSetByUser(&f.partialSet).Bool()
	f.rateLimitRPS = app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	f.rateLimitBurst = app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	f.logLevel = app.Flag("log-level", "Minimum log level (debug, info, warn, error)").String()
	return f
}

func (f *globalFlags) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *f.configFile,
	}

	if *f.port != "" {
		overrides.Port = f.port
	}

	if *f.settingsFile != "" {
		overrides.SettingsFile = f.settingsFile
	}

	if f.watchSet {
		overrides.Watch = f.watch
	}

	if f.partialSet {
		overrides.PartialApply = f.partialApply
	}

	if *f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = f.rateLimitRPS
	}

	if *f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = f.rateLimitBurst
	}

	if *f.logLevel != "" {
		overrides.LogLevel = f.logLevel
	}

	return overrides
}

func main() {
	kingpinApp := kingpin.New("settingsd", "Settings daemon - loads, validates and serves browser settings and key bindings")
	flags := registerGlobalFlags(kingpinApp)

	serveCmd := kingpinApp.Command("serve", "Run the settings HTTP service").Default()

	checkCmd := kingpinApp.Command("check", "Validate a settings document and report every problem")
	checkFile := checkCmd.Arg("file", "Settings document (defaults to the configured settings file)").String()
	checkShow := checkCmd.Flag("show", "Also print the loaded settings and bindings").Bool()
	checkColor := checkCmd.Flag("color", "Colorize the report").Bool()

	dumpCmd := kingpinApp.Command("dump", "Load a settings document and write the validated result")
	dumpFile := dumpCmd.Arg("file", "Settings document (defaults to the configured settings file)").String()
	dumpFormat := dumpCmd.Flag("format", "Output format").Default("yaml").Enum("yaml", "toml", "json")
	dumpAll := dumpCmd.Flag("all", "Include default values of options that are not set").Bool()

	schemaCmd := kingpinApp.Command("schema", "List the options the host understands")
	schemaSection := schemaCmd.Flag("section", "Only list options of this top-level section").String()

	initCmd := kingpinApp.Command("init", "Write a commented sample settings document")
	initFile := initCmd.Arg("file", "Destination (defaults to the configured settings file)").String()
	initForce := initCmd.Flag("force", "Overwrite an existing file").Bool()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	cfg, err := config.Load(flags.overrides())
	if err != nil {
		kingpinApp.Fatalf("failed to load configuration: %v", err)
	}

	if command == serveCmd.FullCommand() {
		serve(cfg)
		return
	}

	logger, err := logging.New(logging.WithConsole(), logging.WithLevel(cfg.LogLevel))
	if err != nil {
		kingpinApp.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	l := loader.New(schema.Browser(), logger)

	switch command {
	case checkCmd.FullCommand():
		ok, err := checkSettings(os.Stdout, l, orDefault(*checkFile, cfg.SettingsFile), *checkShow, *checkColor)
		kingpinApp.FatalIfError(err, "check")
		if !ok {
			os.Exit(1)
		}
	case dumpCmd.FullCommand():
		err := dumpSettings(os.Stdout, l, orDefault(*dumpFile, cfg.SettingsFile), document.Format(*dumpFormat), *dumpAll)
		kingpinApp.FatalIfError(err, "dump")
	case schemaCmd.FullCommand():
		kingpinApp.FatalIfError(listSchema(os.Stdout, l.Schema(), *schemaSection), "schema")
	case initCmd.FullCommand():
		path := orDefault(*initFile, cfg.SettingsFile)
		kingpinApp.FatalIfError(initSettings(l, path, *initForce), "init")
		logger.Info("sample settings written", zap.String("path", path))
	}
}

func serve(cfg config.Config) {
	logger, err := logging.New(logging.WithLevel(cfg.LogLevel))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	app.Stop()
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
