package match

import (
	"sort"

	"photoorganizer/internal/models"
)

// Index is implemented by the duplicate indexes; Resolve turns the
// accumulated buckets into keeper/member groups.
type Index interface {
	Resolve() []*models.DuplicateGroup
}

var (
	_ Index = (*ExactIndex)(nil)
	_ Index = (*PerceptualIndex)(nil)
)

// sortByCapture orders records by capture time, earliest first, falling
// back to scan enumeration order.
func sortByCapture(records []*models.ImageRecord) []*models.ImageRecord {
	sorted := make([]*models.ImageRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CaptureTime.Equal(b.CaptureTime) {
			return a.CaptureTime.Before(b.CaptureTime)
		}
		return a.Seq < b.Seq
	})

	return sorted
}

// selectKeeper picks the earliest captured record as keeper.
func selectKeeper(records []*models.ImageRecord) (*models.ImageRecord, []*models.ImageRecord) {
	if len(records) == 0 {
		return nil, nil
	}
	sorted := sortByCapture(records)
	return sorted[0], sorted[1:]
}

// sortGroups orders groups by their keeper's enumeration index so callers
// process them deterministically.
func sortGroups(groups []*models.DuplicateGroup) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Keeper.Seq < groups[j].Keeper.Seq
	})
}
