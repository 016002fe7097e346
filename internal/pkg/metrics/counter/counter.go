package counter

import "sync/atomic"

// In-process counters for the asset pipeline. Cheap enough to bump on
// every request; read by the stats endpoint.
var (
	uploadsIngested atomic.Int64
	uploadsRejected atomic.Int64
	uploadsFailed   atomic.Int64
)

// AddUploadIngested counts a successfully ingested file.
func AddUploadIngested() {
	uploadsIngested.Add(1)
}

// AddUploadRejected counts an upload rejected before transcoding
// (wrong type, too large, missing file).
func AddUploadRejected() {
	uploadsRejected.Add(1)
}

// AddUploadFailed counts a per-file processing failure.
func AddUploadFailed() {
	uploadsFailed.Add(1)
}

// Snapshot returns the current counter values.
func Snapshot() map[string]int64 {
	return map[string]int64{
		"uploads_ingested": uploadsIngested.Load(),
		"uploads_rejected": uploadsRejected.Load(),
		"uploads_failed":   uploadsFailed.Load(),
	}
}
