package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Settings holds process-level options read from the environment
type Settings struct {
	CacheDir      string
	OutputDir     string
	CataloguePath string
	LogLevel      string
}

// LoadSettings loads an optional .env file and reads ESTRUCTURAL_* variables
func LoadSettings(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, err
		}
	}

	return Settings{
		CacheDir:      getEnv("ESTRUCTURAL_CACHE_DIR", "cache"),
		OutputDir:     getEnv("ESTRUCTURAL_OUTPUT_DIR", "salida"),
		CataloguePath: getEnv("ESTRUCTURAL_CABLES", "cables.json"),
		LogLevel:      getEnv("ESTRUCTURAL_LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
