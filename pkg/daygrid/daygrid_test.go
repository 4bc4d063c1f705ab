package daygrid

import "testing"

func TestWrapSegments(t *testing.T) {
	tests := []struct {
		name  string
		left  int
		width int
		want  []Segment
	}{
		{"fits without wrapping", 600, 480, []Segment{{600, 480}}},
		{"starts at day origin", 0, 1440, []Segment{{0, 1440}}},
		{"ends exactly at boundary", 1000, 440, []Segment{{1000, 440}}},
		{"crosses the boundary", 1380, 120, []Segment{{1380, 60}, {0, 60}}},
		{"negative left shifts into range", -60, 120, []Segment{{1380, 60}, {0, 60}}},
		{"left past one full day", 1500, 60, []Segment{{60, 60}}},
		{"left many days negative", -2940, 30, []Segment{{1380, 30}}},
		{"zero width", 100, 0, nil},
		{"negative width", 100, -5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapSegments(tt.left, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("WrapSegments(%d, %d) = %v, want %v", tt.left, tt.width, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("WrapSegments(%d, %d)[%d] = %v, want %v", tt.left, tt.width, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Width conservation and bounds hold for every (left, width) shape.
func TestWrapSegmentsProperties(t *testing.T) {
	for left := -3000; left <= 3000; left += 97 {
		for _, width := range []int{1, 30, 719, 720, 1440} {
			segs := WrapSegments(left, width)
			sum := 0
			for _, s := range segs {
				sum += s.Width
				if s.Left < 0 || s.Left >= MinutesPerDay {
					t.Fatalf("WrapSegments(%d, %d): left %d out of range", left, width, s.Left)
				}
				if s.Left+s.Width > MinutesPerDay {
					t.Fatalf("WrapSegments(%d, %d): segment %v overruns the day", left, width, s)
				}
			}
			if sum != width {
				t.Fatalf("WrapSegments(%d, %d): widths sum to %d", left, width, sum)
			}
			canonical := ((left % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
			wantPieces := 1
			if canonical+width > MinutesPerDay {
				wantPieces = 2
			}
			if len(segs) != wantPieces {
				t.Fatalf("WrapSegments(%d, %d): %d pieces, want %d", left, width, len(segs), wantPieces)
			}
		}
	}
}

func TestHourWidthPx(t *testing.T) {
	tests := []struct {
		name      string
		available int
		label     int
		want      int
	}{
		{"even distribution", 24*40 + 100, 100, 40},
		{"clamped to minimum", 200, 100, MinHourWidthPx},
		{"clamped to maximum", 10000, 0, MaxHourWidthPx},
		{"negative space clamps low", 50, 100, MinHourWidthPx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HourWidthPx(tt.available, tt.label); got != tt.want {
				t.Errorf("HourWidthPx(%d, %d) = %d, want %d", tt.available, tt.label, got, tt.want)
			}
		})
	}
}

func TestSlotPixelConversions(t *testing.T) {
	if got := SlotsPerDay(60); got != 24 {
		t.Errorf("SlotsPerDay(60) = %d, want 24", got)
	}
	if got := SlotsPerDay(15); got != 96 {
		t.Errorf("SlotsPerDay(15) = %d, want 96", got)
	}

	// hourWidth 40, granularity 30 => 2 slots per hour, 20px per slot.
	if got := SlotToPx(9, 40, 2); got != 180 {
		t.Errorf("SlotToPx(9, 40, 2) = %d, want 180", got)
	}
	if got := PxToSlot(180, 40, 2); got != 9 {
		t.Errorf("PxToSlot(180, 40, 2) = %d, want 9", got)
	}
	// Rounds to the nearest slot edge on pointer input.
	if got := PxToSlot(189, 40, 2); got != 9 {
		t.Errorf("PxToSlot(189, 40, 2) = %d, want 9", got)
	}
	if got := PxToSlot(191, 40, 2); got != 10 {
		t.Errorf("PxToSlot(191, 40, 2) = %d, want 10", got)
	}
	if got := PxToSlot(100, 0, 2); got != 0 {
		t.Errorf("PxToSlot with zero hour width = %d, want 0", got)
	}
}
