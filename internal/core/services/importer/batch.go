package importer

import "fmt"

// DefaultBatchSize is the number of accepted rows committed per
// transaction when the configuration does not say otherwise.
const DefaultBatchSize = 100

// BatchResult is the tagged outcome of one batch commit: either it went
// through whole, or every row in it failed with one cause.
type BatchResult struct {
	Index int
	Size  int
	Err   error
}

// Failed reports whether the batch's transaction was rolled back
func (b BatchResult) Failed() bool {
	return b.Err != nil
}

// batchBounds returns the [start, end) ranges that split n rows into
// size-row batches, preserving row order.
func batchBounds(n, size int) [][2]int {
	if size <= 0 {
		size = DefaultBatchSize
	}
	bounds := make([][2]int, 0, n/size+1)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}

// FoldResults reduces the batch outcomes into final counts plus one
// human-readable message per failed batch. Aggregation is independent
// of the batching/transaction logic on purpose.
func FoldResults(results []BatchResult) (succeeded, failed int, errs []string) {
	for _, r := range results {
		if r.Failed() {
			failed += r.Size
			errs = append(errs, fmt.Sprintf("batch %d (%d rows): %v", r.Index+1, r.Size, r.Err))
			continue
		}
		succeeded += r.Size
	}
	return succeeded, failed, errs
}
