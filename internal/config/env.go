package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvAppID     = "LARK_APP_ID"
	EnvAppSecret = "LARK_APP_SECRET"
	EnvSpaceID   = "SPACE_ID"
	EnvCoverPath = "COVER_PDF_PATH"
	EnvOutputDir = "OUTPUT_DIR"
	EnvBaseURL   = "LARK_BASE_URL"
	EnvProxy     = "LARK_PROXY"
	EnvMaxDepth  = "MAX_DEPTH"
)

// DefaultEnvFiles are loaded by LoadEnvFiles, highest priority first.
var DefaultEnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads KEY=VALUE files into the process environment.
// Variables that are already set are never overwritten, so the real
// environment wins over .env.local, which wins over .env.
// Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = DefaultEnvFiles
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv copies the non-empty environment variables into c.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	setString(&c.AppID, get(EnvAppID))
	setString(&c.AppSecret, get(EnvAppSecret))
	setString(&c.SpaceID, get(EnvSpaceID))
	setString(&c.CoverPath, get(EnvCoverPath))
	setString(&c.OutputDir, get(EnvOutputDir))
	setString(&c.BaseURL, get(EnvBaseURL))
	setString(&c.ProxyURL, get(EnvProxy))

	if v := get(EnvMaxDepth); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return errors.Join(ErrInvalidMaxDepth, err)
		}
		c.MaxDepth = depth
	}
	return nil
}
