// Package config loads the server configuration.
//
// The main document is a TOML file (config.toml by default) decoded with
// go-toml. Each frontend and provider has an optional table; leaving a table
// out disables that subsystem. The library and backend are selected by tag:
//
//	backend = "gstreamer"   # or "rodio"; defaults to gstreamer
//
//	[library]
//	store = "sqlite"        # or "memory"; defaults to memory
//	path = "/var/lib/jukebox/library.db"
//
//	[mpd]
//	port = 6600
//
//	[http]
//	port = 8080
//
//	[local]
//	path = "/srv/music"
//
// Process-level settings (which file to read, the log level) are resolved
// through viper from flags and JUKEBOX_* environment variables, after an
// optional .env file has been loaded with godotenv.
package config
