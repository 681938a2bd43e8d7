package transfer

// byteRange is an inclusive byte span of the target resource.
type byteRange struct {
	start uint64
	end   uint64
}

// planRanges partitions [0, totalSize) into at most requestedWorkers
// contiguous, non-overlapping ranges in ascending order. Never plans more
// workers than there are bytes.
func planRanges(totalSize uint64, requestedWorkers int) []byteRange {
	if totalSize == 0 {
		return nil
	}
	workers := uint64(max(requestedWorkers, 1))
	if workers > totalSize {
		workers = totalSize
	}
	chunkSize := (totalSize + workers - 1) / workers

	ranges := make([]byteRange, 0, workers)
	for i := uint64(0); i < workers; i++ {
		start := i * chunkSize
		if start >= totalSize {
			break
		}
		end := min((i+1)*chunkSize, totalSize) - 1
		ranges = append(ranges, byteRange{start: start, end: end})
	}
	return ranges
}
