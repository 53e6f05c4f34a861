// Package filesystem wraps the few os calls the local provider makes on the
// music directory with retries for stale NFS file handles.
//
// Music libraries commonly live on network mounts. After the server
// re-exports a directory, cached handles fail with ESTALE until the client
// looks the path up again, which a short retry takes care of. Every other
// error is returned on the first attempt.
//
//	info, err := filesystem.Stat(ctx, root, filesystem.DefaultRetryConfig())
//
// Stale handle errors and exhausted retries are counted in
// jukebox_filesystem_stale_errors_total and
// jukebox_filesystem_retry_failures_total, labelled by operation.
package filesystem
