package startup

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"jukebox/internal/config"
	"jukebox/internal/logging"
	"jukebox/internal/provider"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const rule = "------------------------------------------------------------"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

func section(title string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title, args...)
	logging.Info(rule)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogStart prints the banner, system information and a summary of cfg.
func LogStart(path string, cfg *config.Config) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")
	logging.Info("  Config file:     %s", path)
	logging.Info("  Log level:       %s", logging.GetLevel())
	logging.Info("  Backend:         %s", cfg.Backend)
	if cfg.Library != nil {
		logging.Info("  Library store:   %s", cfg.Library.Store)
		if cfg.Library.Path != "" {
			logging.Info("  Library path:    %s", cfg.Library.Path)
		}
	} else {
		logging.Info("  Library store:   %s (default)", config.StoreMemory)
	}

	providers := cfg.EnabledProviders()
	if len(providers) == 0 {
		logging.Info("  Providers:       none")
	} else {
		logging.Info("  Providers:       %s", strings.Join(providers, ", "))
	}
	logging.Info("  MPD frontend:    %s", enabledString(cfg.MPD != nil))
	logging.Info("  HTTP frontend:   %s", enabledString(cfg.HTTP != nil))
	logging.Info("  Sync interval:   %v (max retries %d)", cfg.Sync.Interval.Duration, cfg.Sync.MaxRetries)
	logging.Info("  Cover cache:     %s every %v", cfg.Cache.Path, cfg.Cache.Interval.Duration)
}

// LogProviderSetup reports the outcome of the provider setup protocol.
func LogProviderSetup(report provider.SetupReport, duration time.Duration) {
	section("PROVIDER SETUP")
	if report.Attempted == 0 {
		logging.Info("  No providers configured")
		return
	}

	failed := make(map[string]error, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Title] = f.Err
	}
	for _, title := range report.Titles {
		if err, ok := failed[title]; ok {
			logging.Warn("  [FAILED] %s: %v", title, err)
		} else {
			logging.Info("  [OK] %s", title)
		}
	}
	logging.Info("  %d of %d providers ready in %v", report.Ready(), report.Attempted, duration)
}

// LogLibraryInit logs library store construction.
func LogLibraryInit(kind string, duration time.Duration) {
	section("LIBRARY INITIALIZATION")
	logging.Info("  [OK] %s store opened in %v", kind, duration)
}

// LogBackendInit logs playback backend construction.
func LogBackendInit(name string) {
	section("BACKEND INITIALIZATION")
	logging.Info("  [OK] %s backend ready", name)
}

// LogSubsystemsLaunching opens the subsystem section.
func LogSubsystemsLaunching(startup time.Duration) {
	section("SUBSYSTEMS")
	logging.Info("  Startup time:    %v", startup)
}

// LogSubsystemLaunched logs one launched subsystem.
func LogSubsystemLaunched(name string) {
	logging.Info("  [OK] %s launched", name)
}

// LogListening logs a frontend's listen address.
func LogListening(frontend, addr string) {
	logging.Info("  %s frontend listening on %s", frontend, addr)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: tpl})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the registered routes grouped by prefix at debug level.
func LogHTTPRoutes(router *mux.Router) {
	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := routeGroup(r.Path)
		groups[g] = append(groups[g], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, g := range keys {
		logging.Debug("  [%s]", g)
		for _, r := range groups[g] {
			logging.Debug("    %-6s %s", r.Method, r.Path)
		}
	}
}

// routeGroup returns "api/<resource>" for API routes, else the first segment.
func routeGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	if first == "" {
		return "root"
	}
	return first
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	section("SHUTDOWN INITIATED (%s)", reason)
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete(failed int) {
	if failed > 0 {
		logging.Warn("  Shutdown complete, %d subsystem(s) reported errors", failed)
		return
	}
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
` + rule + `
       _       _        _
      (_)_   _| | _____| |__   _____  __
      | | | | | |/ / _ \ '_ \ / _ \ \/ /
      | | |_| |   <  __/ |_) | (_) >  <
     _/ |\__,_|_|\_\___|_.__/ \___/_/\_\
    |__/
` + rule
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}
