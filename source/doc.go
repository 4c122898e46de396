// Package source resolves component paths to source text.
//
// Fetcher is the seam to the component store: it takes a batch of paths
// and returns a per-path result, so one missing component does not fail
// the others. MapFetcher serves an in-memory table, DirFetcher a directory
// laid out as <author>/<name>.jsx. Cache and Cached memoize successful
// fetches for a compiler instance; caches are owned by their user, never
// global.
package source
