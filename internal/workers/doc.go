/*
Package workers sizes and runs bounded worker pools.

GOMAXPROCS follows container CPU limits, while runtime.NumCPU reports the host,
so worker counts are derived from GOMAXPROCS:

	n := workers.ForIO(8)   // 2 per CPU, at most 8

Setting JUKEBOX_WORKERS pins the count (still capped by the limit).

[Each] fans a slice of work out over an errgroup limited to n goroutines:

	err := workers.Each(ctx, workers.ForIO(8), tracks, func(ctx context.Context, t library.Track) error {
		return fetch(ctx, t)
	})
*/
package workers
