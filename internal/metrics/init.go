package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup with the configured provider titles and the
// subsystem names that will be launched.
func InitializeMetrics(providers, subsystems []string) {
	for _, p := range providers {
		ProviderSetupTotal.WithLabelValues(p, "success")
		ProviderSetupTotal.WithLabelValues(p, "error")
		SyncTracksTotal.WithLabelValues(p)
		SyncErrorsTotal.WithLabelValues(p)
		LibraryTracks.WithLabelValues(p)
	}

	for _, s := range subsystems {
		for _, status := range []string{"ok", "error", "panic"} {
			SubsystemExitsTotal.WithLabelValues(s, status)
		}
	}

	for _, phase := range []string{"download", "decode", "encode"} {
		CacheErrorsTotal.WithLabelValues(phase)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}

	for _, state := range []string{"stopped", "playing", "paused"} {
		PlayerStateTransitions.WithLabelValues(state)
	}

	for _, store := range []string{"memory", "sqlite"} {
		for _, op := range []string{"add_tracks", "get_track", "get_tracks", "search_tracks",
			"remove_tracks", "add_playlist", "get_playlist", "get_playlists", "stats"} {
			LibraryQueryTotal.WithLabelValues(store, op, "success")
			LibraryQueryTotal.WithLabelValues(store, op, "error")
			LibraryQueryDuration.WithLabelValues(store, op)
		}
	}
}
