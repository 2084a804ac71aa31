package models

// NewImage is an image URL to attach to a product.
type NewImage struct {
	URL       string
	Alt       *string
	IsPrimary bool
}

// PrimaryIndex picks the first image flagged primary, else the first image.
// It returns -1 for an empty list.
func PrimaryIndex(images []NewImage) int {
	if len(images) == 0 {
		return -1
	}
	for i, img := range images {
		if img.IsPrimary {
			return i
		}
	}
	return 0
}

// LowestSortOrder returns the image that should become primary when the
// current one goes away. Ties break on the lower ID.
func LowestSortOrder(images []ProductImage) *ProductImage {
	var best *ProductImage
	for i := range images {
		img := &images[i]
		if best == nil || img.SortOrder < best.SortOrder ||
			(img.SortOrder == best.SortOrder && img.ID < best.ID) {
			best = img
		}
	}
	return best
}
