package schedule

// DragMode says which edge (or neither) an active drag is editing.
type DragMode int

const (
	// DragNew replaces the selection with a fresh range grown from the
	// slot the drag started on.
	DragNew DragMode = iota
	// DragAdjustStart pins the selection's last slot and moves its start.
	DragAdjustStart
	// DragAdjustEnd pins the selection's start and moves its end.
	DragAdjustEnd
)

// Drag is the pointer-drag state machine for one candidate's overlay: Idle
// until Begin, then a pure fold of pointer slots until End. Transitions are
// value semantics; nothing outside the Drag changes until the caller applies
// the result.
type Drag struct {
	CandidateID string
	Mode        DragMode
	Range       SlotRange

	fixedSlot  int
	totalSlots int
	active     bool
}

// BeginDrag starts a drag at slot. For the adjust modes, existing is the
// selection being edited; an absent selection degrades to a new-range drag.
func BeginDrag(candidateID string, mode DragMode, slot, totalSlots int, existing *SlotRange) Drag {
	if existing == nil && mode != DragNew {
		mode = DragNew
	}
	d := Drag{
		CandidateID: candidateID,
		Mode:        mode,
		totalSlots:  totalSlots,
		active:      true,
	}
	switch mode {
	case DragNew:
		d.fixedSlot = clampSlot(slot, totalSlots)
	case DragAdjustStart:
		d.fixedSlot = existing.End - 1 // pin the last selected slot
	case DragAdjustEnd:
		d.fixedSlot = existing.Start
	}
	return d.MoveTo(slot)
}

// MoveTo folds a pointer position into the drag, renormalizing so start
// stays below end even when the pointer crosses the pinned edge.
func (d Drag) MoveTo(slot int) Drag {
	if !d.active {
		return d
	}
	slot = clampSlot(slot, d.totalSlots)
	lo, hi := d.fixedSlot, slot
	if lo > hi {
		lo, hi = hi, lo
	}
	d.Range = SlotRange{Start: lo, End: hi + 1}
	return d
}

// End finishes the drag, yielding the final normalized range. A finished or
// never-started drag yields nothing.
func (d Drag) End() (SlotRange, bool) {
	if !d.active {
		return SlotRange{}, false
	}
	return d.Range, true
}

// Active reports whether the drag is live (between Begin and End).
func (d Drag) Active() bool {
	return d.active
}

// ApplyDrag projects an active drag onto the state as the in-memory
// selection of its candidate. The caller persists only after the drag ends.
func (s *State) ApplyDrag(d Drag) error {
	if !d.active {
		return nil
	}
	return s.SetSelection(d.CandidateID, d.Range)
}

func clampSlot(slot, totalSlots int) int {
	if slot < 0 {
		return 0
	}
	if slot >= totalSlots {
		return totalSlots - 1
	}
	return slot
}
