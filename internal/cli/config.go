package cli

import (
	"github.com/gokhd/gokhd/internal/config"
)

// loadDaemonConfig loads the daemon-level TOML config from the --config
// flag, or its default path if unset. A missing file is not an error
// (config.Load returns defaults), matching the teacher's config.Load.
func loadDaemonConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// resolveMappingPath picks the mapping file to load: the --mapping flag
// takes precedence, then the config file's config_file setting.
func resolveMappingPath(cfg *config.Config) string {
	if mappingPath != "" {
		return mappingPath
	}
	return cfg.ConfigFile
}
