package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TFMV/streamwalk/internal/pathenc"
	streamwalk "github.com/TFMV/streamwalk/internal/walk"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// walkConfig is the resolved configuration of the root command.
type walkConfig struct {
	Concurrency   int
	HighWaterMark int
	Depth         int
	WithDirent    bool
	AbortOnError  bool

	Format   string
	Encoding pathenc.Encoding
	NFC      bool
	Silent   bool
	Progress bool
	Limit    int
	Timeout  time.Duration

	LogLevel streamwalk.LogLevel

	// Source overrides the host filesystem; only set by tests.
	Source streamwalk.Source
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading env file %s: %v\n", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".streamwalk" (without extension).
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".streamwalk")
	}

	// STREAMWALK_HIGH_WATER_MARK overrides --high-water-mark and so on.
	viper.SetEnvPrefix("streamwalk")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadWalkConfig resolves the root command settings from viper.
func loadWalkConfig() (walkConfig, error) {
	cfg := walkConfig{
		Concurrency:   viper.GetInt("concurrency"),
		HighWaterMark: viper.GetInt("high-water-mark"),
		Depth:         viper.GetInt("depth"),
		WithDirent:    viper.GetBool("with-dirent"),
		AbortOnError:  viper.GetBool("abort-on-error"),
		Format:        viper.GetString("format"),
		NFC:           viper.GetBool("nfc"),
		Silent:        viper.GetBool("silent"),
		Progress:      viper.GetBool("progress"),
		Limit:         viper.GetInt("limit"),
		Timeout:       viper.GetDuration("timeout"),
	}

	switch {
	case viper.GetBool("verbose"):
		cfg.LogLevel = streamwalk.LogLevelDebug
	case cfg.Silent:
		cfg.LogLevel = streamwalk.LogLevelError
	default:
		cfg.LogLevel = streamwalk.ParseLogLevel(viper.GetString("log-level"))
	}

	enc, err := pathenc.ParseEncoding(viper.GetString("encoding"))
	if err != nil {
		return walkConfig{}, err
	}
	cfg.Encoding = enc

	if err := cfg.validate(); err != nil {
		return walkConfig{}, err
	}
	return cfg, nil
}

func (c walkConfig) validate() error {
	switch {
	case c.Concurrency < 0:
		return fmt.Errorf("invalid concurrency value: %d", c.Concurrency)
	case c.HighWaterMark < 0:
		return fmt.Errorf("invalid high-water-mark value: %d", c.HighWaterMark)
	case c.Depth < 0:
		return fmt.Errorf("invalid depth value: %d", c.Depth)
	case c.Limit < 0:
		return fmt.Errorf("invalid limit value: %d", c.Limit)
	}

	switch c.Format {
	case "text":
	case "json":
		// JSON strings must stay valid UTF-8.
		switch c.Encoding {
		case pathenc.UTF16LE, pathenc.Latin1, pathenc.Binary:
			return fmt.Errorf("encoding %s cannot be used with json output", c.Encoding)
		}
	default:
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	return nil
}
