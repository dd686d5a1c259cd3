package tasks

import "fmt"

// ProgressUpdate represents a progress event during a step.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchReleases Phase = iota
	FetchTracks
	WriteSnapshot
	FlattenAlbums
	FlattenTracks
	WriteBatch
	RegisterBatch
	PublishPointers
)

func (p Phase) String() string {
	switch p {
	case FetchReleases:
		return "fetch_releases"
	case FetchTracks:
		return "fetch_tracks"
	case WriteSnapshot:
		return "write_snapshot"
	case FlattenAlbums:
		return "flatten_albums"
	case FlattenTracks:
		return "flatten_tracks"
	case WriteBatch:
		return "write_batch"
	case RegisterBatch:
		return "register_batch"
	case PublishPointers:
		return "publish_pointers"
	default:
		return ""
	}
}

func fetchReleasesUpdate(limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching up to %d new releases...", limit),
	}
}

func fetchTracksUpdate(step, total int, albumName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks: %s", step, total, albumName),
	}
}

func writeSnapshotUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing snapshot: %s", path),
	}
}

func flattenUpdate(phase Phase, total int) ProgressUpdate {
	noun := "albums"
	if phase == FlattenTracks {
		noun = "tracks"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Flattening %s from %d release entries...", noun, total),
	}
}

func writeBatchUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Writing batch file: %s", path),
	}
}

func registerBatchUpdate(batchID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RegisterBatch,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Registering batch %s...", batchID),
	}
}

func publishPointerUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishPointers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Updating latest pointer: %s", path),
	}
}
