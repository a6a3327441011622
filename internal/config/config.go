package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type GrabberConfig struct {
	OutputDir   string
	HeadersFile string
	Parallel    int
	Timeout     time.Duration
	Rewrite     Rewrite
}

type Rewrite struct {
	Route     string
	CacheSize int64
	CacheTTL  time.Duration
}

func ProjectRoot() (string, error) {
	ex, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(ex), nil
}

func Read(name string, cfg interface{}) error {
	v := viper.New()
	v.SetConfigName(name)

	pp, err := ProjectRoot()
	if err != nil {
		return err
	}
	v.AddConfigPath(pp)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}

	return nil
}

func ReadGrabberConfig() (*GrabberConfig, error) {
	cfg := &GrabberConfig{}
	return cfg, Read("hlsgrab", cfg)
}

// IsNotFound tells a missing config file apart from a broken one.
// Running without a config file is fine, defaults apply.
func IsNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}
