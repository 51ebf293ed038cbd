package assembly

import (
	"google.golang.org/api/slides/v1"
)

// PlanStructure builds the batch that leaves exactly the active positions
// (1-based, in the given order) in a deck whose slides are slideIDs.
// Deletions come first, then one move per active slide to index i.
func PlanStructure(slideIDs []string, active []int) []*slides.Request {
	keep := make(map[int]bool, len(active))
	for _, pos := range active {
		keep[pos] = true
	}

	var reqs []*slides.Request
	for i, id := range slideIDs {
		if keep[i+1] {
			continue
		}
		reqs = append(reqs, &slides.Request{
			DeleteObject: &slides.DeleteObjectRequest{ObjectId: id},
		})
	}

	for i, pos := range active {
		if pos < 1 || pos > len(slideIDs) {
			continue
		}
		reqs = append(reqs, &slides.Request{
			UpdateSlidesPosition: &slides.UpdateSlidesPositionRequest{
				SlideObjectIds:  []string{slideIDs[pos-1]},
				InsertionIndex:  int64(i),
				ForceSendFields: []string{"InsertionIndex"},
			},
		})
	}
	return reqs
}

// checkSelection rejects positions outside 1..n and repeated positions.
func checkSelection(active []int, n int) error {
	seen := make(map[int]bool, len(active))
	for _, pos := range active {
		if pos < 1 || pos > n {
			return invalid("invalid_slide_selection", "slide position %d is outside 1..%d", pos, n)
		}
		if seen[pos] {
			return invalid("invalid_slide_selection", "slide position %d selected twice", pos)
		}
		seen[pos] = true
	}
	return nil
}

func slideIDs(pages []*slides.Page) []string {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.ObjectId
	}
	return ids
}
