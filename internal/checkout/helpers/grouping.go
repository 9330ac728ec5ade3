package helpers

import (
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/google/uuid"
)

// VendorLines is one vendor's share of a cart.
type VendorLines struct {
	VendorID uuid.UUID
	Lines    []models.CartLine
}

// GroupCartLinesByVendor partitions lines by vendor in order of first
// appearance. Lines without a vendor are dropped.
func GroupCartLinesByVendor(lines []models.CartLine) []VendorLines {
	index := make(map[uuid.UUID]int, len(lines))
	groups := make([]VendorLines, 0, len(lines))
	for _, line := range lines {
		if line.VendorID == uuid.Nil {
			continue
		}
		pos, ok := index[line.VendorID]
		if !ok {
			pos = len(groups)
			index[line.VendorID] = pos
			groups = append(groups, VendorLines{VendorID: line.VendorID})
		}
		groups[pos].Lines = append(groups[pos].Lines, line)
	}
	return groups
}

// VendorIDs returns the distinct vendors present in the groups.
func VendorIDs(groups []VendorLines) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.VendorID)
	}
	return ids
}
