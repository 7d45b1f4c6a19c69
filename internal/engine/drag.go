package engine

// DragPhase is the state of a drag-and-drop reorder gesture.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragDragging
)

// DragState tracks one in-flight reorder drag. It is UI state only and is
// never part of the committed document. A drag is bound to the sequence it
// started in (area plus optional parent block).
type DragState struct {
	phase         DragPhase
	areaID        string
	parentBlockID string
	source        string
	over          string
}

// DragMove is the outcome of a completed drop.
type DragMove struct {
	AreaID        string
	ParentBlockID string
	SourceID      string
	TargetID      string
}

func (d *DragState) Phase() DragPhase { return d.phase }

func (d *DragState) Active() bool { return d.phase == DragDragging }

// Source returns the id being dragged, or "" when idle.
func (d *DragState) Source() string { return d.source }

// OverTarget returns the id last dragged over, or "".
func (d *DragState) OverTarget() string { return d.over }

// Start begins a drag. It is refused while another drag is active.
func (d *DragState) Start(areaID, parentBlockID, sourceID string) bool {
	if d.phase != DragIdle || sourceID == "" {
		return false
	}
	*d = DragState{phase: DragDragging, areaID: areaID, parentBlockID: parentBlockID, source: sourceID}
	return true
}

// Over records the element currently under the pointer.
func (d *DragState) Over(targetID string) bool {
	if d.phase != DragDragging {
		return false
	}
	d.over = targetID
	return true
}

// Drop ends the drag on targetID. An empty targetID falls back to the last
// Over target. ok is false when no drag was active or there is no target.
func (d *DragState) Drop(targetID string) (DragMove, bool) {
	if d.phase != DragDragging {
		return DragMove{}, false
	}
	if targetID == "" {
		targetID = d.over
	}
	move := DragMove{AreaID: d.areaID, ParentBlockID: d.parentBlockID, SourceID: d.source, TargetID: targetID}
	d.End()
	return move, targetID != ""
}

// End abandons the drag without a drop.
func (d *DragState) End() {
	*d = DragState{}
}
