// Package layout computes seat positions around the virtual table. It is
// pure geometry; the caller feeds it the vote list order and renders the
// offsets it returns.
package layout

// Offset is a seat position relative to the container center.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Seats places count participants alternately on the left and right edges of
// the container (participant 0 left, 1 right, 2 left, ...). The usable area
// is the container expanded by seatSize/2+padding on each edge; each side
// spreads its seats evenly over the expanded height, and a side with a single
// occupant centers it. Output order matches input order, and identical inputs
// always yield identical offsets.
func Seats(count int, containerWidth, containerHeight, seatSize, padding float64) []Offset {
	if count <= 0 {
		return []Offset{}
	}

	margin := seatSize/2 + padding
	totalWidth := containerWidth + 2*margin
	totalHeight := containerHeight + 2*margin
	halfWidth := totalWidth / 2
	halfHeight := totalHeight / 2

	leftCount := (count + 1) / 2
	rightCount := count / 2

	out := make([]Offset, count)
	for i := 0; i < count; i++ {
		side := leftCount
		x := -halfWidth
		if i%2 == 1 {
			side = rightCount
			x = halfWidth
		}

		var y float64
		if side > 1 {
			step := totalHeight / float64(side+1)
			y = -halfHeight + step*float64(i/2+1)
		}

		out[i] = Offset{X: x, Y: y}
	}
	return out
}
