package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/component-runtime/bridge"
	"github.com/wippyai/component-runtime/compiler"
	"github.com/wippyai/component-runtime/config"
	"github.com/wippyai/component-runtime/engine"
	"github.com/wippyai/component-runtime/parser"
	"github.com/wippyai/component-runtime/runtime"
	"github.com/wippyai/component-runtime/storage"
)

var (
	configFlag string

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	loader := config.NewLoader()

	root := &cobra.Command{
		Use:           "run",
		Short:         "Compile and render sandboxed UI components",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loader.Load(configFlag)
			if err != nil {
				return err
			}
			cfg = loaded
			logger, err = newLogger(cfg.Log)
			if err != nil {
				return err
			}
			installLogger(logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Path to config file (env: COMPONENT_RUNTIME_CONFIG)")
	pf.String("sources", "", "Component source directory (env: COMPONENT_RUNTIME_SOURCES_DIR)")
	pf.String("packages", "", "Shared package directory (env: COMPONENT_RUNTIME_SOURCES_PACKAGES)")
	pf.String("storage", "", "SQLite file backing the storage host methods (env: COMPONENT_RUNTIME_STORAGE_PATH)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (env: COMPONENT_RUNTIME_LOG_LEVEL)")
	for key, name := range map[string]string{
		"sources.dir":      "sources",
		"sources.packages": "packages",
		"storage.path":     "storage",
		"log.level":        "log-level",
	} {
		if err := loader.BindFlag(key, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newCompileCmd())
	root.AddCommand(newRenderCmd(loader))
	return root
}

// newLogger builds the process logger. Logs go to stderr so command output
// stays parseable.
func newLogger(c config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func installLogger(l *zap.Logger) {
	parser.SetLogger(l.Named("parser"))
	compiler.SetLogger(l.Named("compiler"))
	runtime.SetLogger(l.Named("runtime"))
	engine.SetLogger(l.Named("engine"))
	bridge.SetLogger(l.Named("bridge"))
	storage.SetLogger(l.Named("storage"))
}
