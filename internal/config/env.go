package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. JUKEBOX_CONFIG.
const EnvPrefix = "JUKEBOX"

// Process-level setting keys shared by flags and environment.
const (
	KeyConfig      = "config"
	KeyLogLevel    = "log-level"
	KeyMemoryLimit = "memory-limit"
	KeyMemoryRatio = "memory-ratio"
)

// Options are the settings that decide how the config file itself is found
// and how verbose startup is. They come from flags or the environment,
// never from the file.
type Options struct {
	ConfigPath string
	LogLevel   string

	// MemoryLimit is the container memory limit in bytes, zero if unknown.
	MemoryLimit int64
	MemoryRatio float64
}

// NewViper returns a viper instance that resolves process-level settings
// from JUKEBOX_* environment variables, with flags bound on top by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyConfig, DefaultPath)
	v.SetDefault(KeyLogLevel, "")
	return v
}

// OptionsFrom reads the resolved process-level settings.
func OptionsFrom(v *viper.Viper) Options {
	return Options{
		ConfigPath:  v.GetString(KeyConfig),
		LogLevel:    v.GetString(KeyLogLevel),
		MemoryLimit: v.GetInt64(KeyMemoryLimit),
		MemoryRatio: v.GetFloat64(KeyMemoryRatio),
	}
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" if none)
// into the process environment. Missing files are not an error; variables
// that are already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
