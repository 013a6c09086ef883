package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/roach88/apparelgrid/internal/query"
)

const (
	configFileName = "apparelgrid"
	configFileType = "yaml"
	envPrefix      = "APPARELGRID"

	cfgKeyDB       = "db"
	cfgKeyPageSize = "page_size"
	cfgKeyLocale   = "locale"
	cfgKeyCurrency = "currency"
	cfgKeyLogLevel = "log_level"

	defaultDB       = "apparelgrid.db"
	defaultLocale   = "en-US"
	defaultCurrency = "USD"
	defaultLogLevel = "warn"
)

// Settings is the resolved configuration of a command run.
type Settings struct {
	DB       string
	PageSize int
	Locale   language.Tag
	Currency string
	LogLevel logrus.Level
}

// LoadSettings resolves configuration from, in increasing precedence:
// built-in defaults, apparelgrid.yaml (or the file named by configFile),
// APPARELGRID_* environment variables and the explicit overrides.
//
// A missing apparelgrid.yaml in the working directory is not an error; a
// missing file named explicitly is.
func LoadSettings(configFile string, overrides map[string]any) (Settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDB, defaultDB)
	v.SetDefault(cfgKeyPageSize, query.DefaultSize)
	v.SetDefault(cfgKeyLocale, defaultLocale)
	v.SetDefault(cfgKeyCurrency, defaultCurrency)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	s := Settings{
		DB:       v.GetString(cfgKeyDB),
		PageSize: v.GetInt(cfgKeyPageSize),
		Currency: strings.ToUpper(v.GetString(cfgKeyCurrency)),
	}
	if s.PageSize <= 0 || s.PageSize > query.MaxSize {
		return Settings{}, fmt.Errorf("page_size must be between 1 and %d, got %d", query.MaxSize, s.PageSize)
	}

	tag, err := language.Parse(v.GetString(cfgKeyLocale))
	if err != nil {
		return Settings{}, fmt.Errorf("locale: %w", err)
	}
	s.Locale = tag

	level, err := logrus.ParseLevel(v.GetString(cfgKeyLogLevel))
	if err != nil {
		return Settings{}, fmt.Errorf("log_level: %w", err)
	}
	s.LogLevel = level

	return s, nil
}
