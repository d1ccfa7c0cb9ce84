package config

import "runtime"

const (
	defaultConfigPath    = "~/.config/photoorganizer/config.toml"
	defaultDatabasePath  = "~/.local/share/photoorganizer/photoorganizer.db"
	defaultDecodeTimeout = 30
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Database: defaultDatabasePath,
		},
		Organize: Organize{
			Workers:              runtime.NumCPU(),
			DecodeTimeoutSeconds: defaultDecodeTimeout,
			DigestCache:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
