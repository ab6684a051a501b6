package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/doxyhook/internal/hostenv"
	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

// envFileNames are tried in order; earlier files win on duplicate keys.
var envFileNames = []string{".env", ".env.local"}

// readEnvFiles reads KEY=VALUE files from dir without touching the process
// environment.
func readEnvFiles(dir string) map[string]string {
	vars := map[string]string{}
	for _, name := range envFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		read, err := godotenv.Read(p)
		if err != nil {
			slog.Warn("Failed to load env file", logfields.Path(p), logfields.Error(err))
			continue
		}
		for k, v := range read {
			if _, seen := vars[k]; !seen {
				vars[k] = v
			}
		}
		slog.Debug("Loaded environment variables", logfields.Path(p))
	}
	return vars
}

// withEnvFiles layers file values under lookup. Variables lookup already
// knows always win, so a CI service's own HOSTED_BUILD beats a checked-in
// .env.
func withEnvFiles(lookup hostenv.LookupFunc, files map[string]string) hostenv.LookupFunc {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if len(files) == 0 {
		return lookup
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := files[key]
		return v, ok
	}
}
