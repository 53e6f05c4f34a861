package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jukebox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_http_websocket_clients",
			Help: "Number of connected player event websocket clients",
		},
	)
)

// Library metrics
var (
	LibraryQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_library_queries_total",
			Help: "Total number of library store operations",
		},
		[]string{"store", "operation", "status"},
	)

	LibraryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jukebox_library_query_duration_seconds",
			Help:    "Library store operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"store", "operation"},
	)

	LibraryTracks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jukebox_library_tracks",
			Help: "Number of tracks in the library by provider",
		},
		[]string{"provider"},
	)

	LibraryPlaylists = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_library_playlists",
			Help: "Number of playlists in the library",
		},
	)
)

// Provider metrics
var (
	ProviderSetupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_provider_setup_total",
			Help: "Provider setup attempts by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	ProvidersReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_providers_ready",
			Help: "Number of providers whose setup succeeded",
		},
	)
)

// Subsystem lifecycle metrics
var (
	SubsystemsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_subsystems_running",
			Help: "Number of launched subsystems that have not yet returned",
		},
	)

	SubsystemExitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_subsystem_exits_total",
			Help: "Subsystem terminations by subsystem and outcome (ok, error, panic)",
		},
		[]string{"subsystem", "status"},
	)

	ShutdownSignalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_shutdown_signals_total",
			Help: "Interrupt signals received, including repeats",
		},
	)
)

// Sync engine metrics
var (
	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_sync_runs_total",
			Help: "Total number of library sync runs",
		},
	)

	SyncTracksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_sync_tracks_total",
			Help: "Tracks imported by the sync engine by provider",
		},
		[]string{"provider"},
	)

	SyncErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_sync_errors_total",
			Help: "Failed provider syncs after retries by provider",
		},
		[]string{"provider"},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_sync_last_run_timestamp",
			Help: "Timestamp of the last sync run",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_sync_last_run_duration_seconds",
			Help: "Duration of the last sync run in seconds",
		},
	)
)

// Cover art cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_cache_hits_total",
			Help: "Cover art already present in the cache",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_cache_misses_total",
			Help: "Cover art downloaded into the cache",
		},
	)

	CacheErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_cache_errors_total",
			Help: "Cover art cache failures by phase (download, decode, encode)",
		},
		[]string{"phase"},
	)

	CacheRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jukebox_cache_run_duration_seconds",
			Help:    "Duration of a full cover art cache pass",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_filesystem_stale_errors_total",
			Help: "Stale file handle errors from the music directory by operation",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after retrying",
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_memory_paused",
			Help: "1 while cover processing is paused for memory pressure",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_memory_pauses_total",
			Help: "Times cover processing was paused for memory pressure",
		},
	)
)

// Player metrics
var (
	PlayerStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_player_state_transitions_total",
			Help: "Player state changes by target state",
		},
		[]string{"state"},
	)

	PlayerTracksPlayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebox_player_tracks_played_total",
			Help: "Tracks handed to the playback backend",
		},
	)

	PlayerQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_player_queue_length",
			Help: "Number of tracks waiting in the play queue",
		},
	)
)

// MPD frontend metrics
var (
	MPDConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebox_mpd_connections",
			Help: "Open MPD client connections",
		},
	)

	MPDCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebox_mpd_commands_total",
			Help: "MPD commands handled by command and status",
		},
		[]string{"command", "status"},
	)
)
