package util

// Batch splits elements into consecutive chunks of at most batchSize elements, preserving order. A batchSize of
// zero or less yields a single chunk holding every element.
func Batch[T any](elements []T, batchSize int) [][]T {
	if len(elements) == 0 {
		return [][]T{}
	}
	if batchSize <= 0 || batchSize >= len(elements) {
		return [][]T{elements}
	}
	batches := make([][]T, 0, (len(elements)+batchSize-1)/batchSize)
	for start := 0; start < len(elements); start += batchSize {
		end := min(start+batchSize, len(elements))
		batches = append(batches, elements[start:end])
	}
	return batches
}
