package local

import "github.com/Nevi32/wofuo1/internal/pkg/store/models"

// MergeSnapshots appends every record of incoming whose identity is not
// already present in base, collection by collection. Base order is kept and
// new records land at the end. The version stamp stays the base's: it
// describes the stored blob, not the data.
func MergeSnapshots(base, incoming *models.Snapshot) *models.Snapshot {
	merged := models.NewSnapshot()
	if base != nil {
		merged = base.Clone()
	}
	if incoming == nil {
		return merged
	}
	in := incoming.Clone()
	for _, c := range AllCollections {
		c.mergeFrom(merged, in)
	}
	return merged
}
