package remote

import (
	"sort"

	"github.com/oneconcern/yap/pkg/model"
)

// Upload is a snapshot selected for push, with its remote key
type Upload struct {
	Epoch int64
	Key   string
}

// Select the snapshots of a file to upload under some push strategy.
//
// epochs lists the recorded snapshots of (pth, branch). diffs and pushed are the diff results and
// remote pointers recorded for the same file, used by the smart strategy.
//
// The latest snapshot is always uploaded under the verbatim path of the file. With the "all" and
// "smart" strategies, every selected snapshot is also uploaded under its historical key.
func Select(strategy model.PushStrategy, kind model.StorageKind, pth, branch string, epochs []int64, diffs []model.DiffResult, pushed []model.RemotePointer) []Upload {
	if len(epochs) == 0 {
		return nil
	}
	sorted := append([]int64{}, epochs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	latest := sorted[len(sorted)-1]

	var selected []int64
	switch strategy {
	case model.PushLast:
		return []Upload{{Epoch: latest, Key: model.GetRemoteKey(pth)}}

	case model.PushAll:
		selected = sorted

	default:
		selected = selectChanged(kind, branch, sorted, diffs, pushed)
	}

	uploads := make([]Upload, 0, len(selected)+1)
	for _, epoch := range selected {
		uploads = append(uploads, Upload{Epoch: epoch, Key: model.GetRemoteHistoryKey(pth, branch, epoch)})
	}
	return append(uploads, Upload{Epoch: latest, Key: model.GetRemoteKey(pth)})
}

// selectChanged retains the snapshots not pushed yet whose diff result denotes a change.
// The first snapshot of a file has no diff: it is selected as long as nothing was ever pushed.
func selectChanged(kind model.StorageKind, branch string, epochs []int64, diffs []model.DiffResult, pushed []model.RemotePointer) []int64 {
	var lastPushed int64
	pushedEpochs := make(map[int64]bool, len(pushed))
	for _, p := range pushed {
		if p.Direction != model.DirectionPush || p.Storage != kind || p.Snapshot.Branch != branch {
			continue
		}
		pushedEpochs[p.Snapshot.Epoch] = true
		if p.Snapshot.Epoch > lastPushed {
			lastPushed = p.Snapshot.Epoch
		}
	}

	changed := make(map[int64]bool, len(diffs))
	for _, d := range diffs {
		if d.To.Branch == branch && d.Changed {
			changed[d.To.Epoch] = true
		}
	}

	latest := epochs[len(epochs)-1]
	var selected []int64
	for i, epoch := range epochs {
		if pushedEpochs[epoch] && epoch != latest {
			continue
		}
		switch {
		case epoch == latest:
			selected = append(selected, epoch)
		case epoch <= lastPushed:
		case i == 0 && lastPushed == 0:
			selected = append(selected, epoch)
		case changed[epoch]:
			selected = append(selected, epoch)
		}
	}
	return selected
}
