// Package config loads runtime settings from defaults, an optional config
// file and COMPONENT_RUNTIME_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wippyai/component-runtime/errors"
)

// Environment variable prefix; COMPONENT_RUNTIME_STORAGE_PATH sets storage.path.
const envPrefix = "COMPONENT_RUNTIME"

// Config holds every runtime setting.
type Config struct {
	Sources  SourcesConfig  `mapstructure:"sources"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	Compiler CompilerConfig `mapstructure:"compiler"`
	Mount    MountConfig    `mapstructure:"mount"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
}

// SourcesConfig locates component sources on disk.
type SourcesConfig struct {
	Dir        string   `mapstructure:"dir"`
	Extensions []string `mapstructure:"extensions"`
	// Packages is a directory of shared JS packages, one <name>.js each.
	Packages string `mapstructure:"packages"`
}

// StorageConfig locates the sqlite database behind the storage host
// methods. An empty path disables them.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	// Level is a zap level name.
	Level string `mapstructure:"level"`
	// Format is "console" or "json".
	Format string `mapstructure:"format"`
}

type CompilerConfig struct {
	RendererVersion string `mapstructure:"renderer_version"`
}

// MountConfig selects the remote surface. An empty SocketURL keeps the
// output in memory.
type MountConfig struct {
	SocketURL string `mapstructure:"socket_url"`
	Namespace string `mapstructure:"namespace"`
}

// WalletConfig holds the development signing key for wallet.sign. Without
// one, signing is unsupported.
type WalletConfig struct {
	Key string `mapstructure:"key"`
}

type RuntimeConfig struct {
	// InboxWarn logs a warning when a boundary inbox holds more messages.
	InboxWarn int `mapstructure:"inbox_warn"`
	// ScriptTimeout bounds one render or callback inside an engine.
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
}

// Loader resolves configuration. Flags bound with BindFlag win over the
// environment, which wins over the file and the defaults.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.dir", "components")
	v.SetDefault("sources.extensions", []string{".jsx", ".tsx", ".js"})
	v.SetDefault("sources.packages", "")
	v.SetDefault("storage.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("compiler.renderer_version", "")
	v.SetDefault("mount.socket_url", "")
	v.SetDefault("mount.namespace", "/")
	v.SetDefault("runtime.inbox_warn", 256)
	v.SetDefault("runtime.script_timeout", "5s")
	v.SetDefault("wallet.key", "")
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.InvalidInput(errors.PhaseParse, "no flag for "+key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads configFile, or $COMPONENT_RUNTIME_CONFIG when it is empty. A
// missing file is not an error; with neither set only defaults and the
// environment apply.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = os.Getenv(envPrefix + "_CONFIG")
	}
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		if ext := strings.TrimPrefix(filepath.Ext(configFile), "."); ext == "" {
			l.v.SetConfigType("yaml")
		}
		if err := l.v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "read config "+configFile)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is NewLoader().Load(configFile).
func Load(configFile string) (*Config, error) {
	return NewLoader().Load(configFile)
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Path("log", "format").
			Value(c.Log.Format).
			Detail("must be console or json, got %q", c.Log.Format).
			Build()
	}
	if c.Runtime.InboxWarn < 0 {
		return errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Path("runtime", "inbox_warn").
			Value(c.Runtime.InboxWarn).
			Detail("cannot be negative").
			Build()
	}
	for i, ext := range c.Sources.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Sources.Extensions[i] = "." + ext
		}
	}
	return nil
}
