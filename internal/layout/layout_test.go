package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeats_CountMatches(t *testing.T) {
	for n := 0; n <= 16; n++ {
		got := Seats(n, 640, 360, 48, 12)
		assert.Len(t, got, n, "count %d", n)
	}
}

func TestSeats_LoneSideOccupantCentered(t *testing.T) {
	// One participant: alone on the left, vertically centered.
	one := Seats(1, 640, 360, 48, 12)
	require.Len(t, one, 1)
	assert.Zero(t, one[0].Y)
	assert.Negative(t, one[0].X)

	// Two participants: one per side, both centered.
	two := Seats(2, 640, 360, 48, 12)
	require.Len(t, two, 2)
	assert.Zero(t, two[0].Y)
	assert.Zero(t, two[1].Y)
	assert.Negative(t, two[0].X)
	assert.Positive(t, two[1].X)

	// Three participants: right side still has a single centered occupant.
	three := Seats(3, 640, 360, 48, 12)
	require.Len(t, three, 3)
	assert.Zero(t, three[1].Y)
}

func TestSeats_AlternatingSides(t *testing.T) {
	got := Seats(6, 640, 360, 48, 12)
	for i, off := range got {
		if i%2 == 0 {
			assert.Negative(t, off.X, "seat %d should sit left", i)
		} else {
			assert.Positive(t, off.X, "seat %d should sit right", i)
		}
	}
}

func TestSeats_EvenVerticalSpread(t *testing.T) {
	// Five participants: three left seats at step*(1..3) over the expanded
	// height, two right seats likewise.
	const (
		w, h, seat, pad = 600.0, 300.0, 50.0, 10.0
	)
	margin := seat/2 + pad
	totalH := h + 2*margin
	halfH := totalH / 2

	got := Seats(5, w, h, seat, pad)
	require.Len(t, got, 5)

	leftStep := totalH / 4
	assert.InDelta(t, -halfH+leftStep, got[0].Y, 1e-9)
	assert.InDelta(t, -halfH+leftStep*2, got[2].Y, 1e-9)
	assert.InDelta(t, -halfH+leftStep*3, got[4].Y, 1e-9)

	rightStep := totalH / 3
	assert.InDelta(t, -halfH+rightStep, got[1].Y, 1e-9)
	assert.InDelta(t, -halfH+rightStep*2, got[3].Y, 1e-9)

	// Middle seat of an odd-sized side lands dead center.
	assert.InDelta(t, 0, got[2].Y, 1e-9)
}

func TestSeats_Deterministic(t *testing.T) {
	a := Seats(9, 800, 450, 56, 8)
	b := Seats(9, 800, 450, 56, 8)
	assert.Equal(t, a, b)
}

func TestSeats_ZeroAndNegativeCounts(t *testing.T) {
	assert.Empty(t, Seats(0, 640, 360, 48, 12))
	assert.Empty(t, Seats(-3, 640, 360, 48, 12))
}
