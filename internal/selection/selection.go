// Package selection models chains of dependent pickers such as
// course -> study class -> student. Choosing an ancestor always resets every
// descendant, so a picker can never stay scoped to a parent that is no longer
// selected. At most one picker menu is open at a time.
//
// State is a value: every transition returns a new State and never modifies
// the receiver. Transitions never fail; unknown slots are ignored.
package selection

// Slot names a picker in a chain.
type Slot string

const (
	SlotCourse     Slot = "course"
	SlotStudyClass Slot = "studyClass"
	SlotStudent    Slot = "student"
	SlotProfessor  Slot = "professor"
)

// Predefined chains used by the console pages.
var (
	SubscriptionChain = []Slot{SlotCourse, SlotStudyClass, SlotStudent}
	EnrollmentChain   = []Slot{SlotCourse, SlotStudyClass, SlotProfessor}
)

// State is one page's selection chain.
type State struct {
	slots     []Slot
	selected  []*int64
	open      Slot
	page      int
	paginated bool
}

// New returns the initial state for chain: nothing selected, nothing open,
// page 1. Paginated chains reset their page whenever a selection changes.
func New(chain []Slot, paginated bool) State {
	return State{
		slots:     append([]Slot(nil), chain...),
		selected:  make([]*int64, len(chain)),
		page:      1,
		paginated: paginated,
	}
}

// Select sets slot to id, clears every later slot and closes the open menu.
// A nil id clears slot itself.
func (s State) Select(slot Slot, id *int64) State {
	idx := s.index(slot)
	if idx < 0 {
		return s
	}
	next := s.clone()
	if id != nil {
		v := *id
		next.selected[idx] = &v
	} else {
		next.selected[idx] = nil
	}
	for i := idx + 1; i < len(next.selected); i++ {
		next.selected[i] = nil
	}
	next.open = ""
	if next.paginated {
		next.page = 1
	}
	return next
}

// SelectID is Select with a concrete id.
func (s State) SelectID(slot Slot, id int64) State {
	return s.Select(slot, &id)
}

// Deselect clears slot and all of its descendants.
func (s State) Deselect(slot Slot) State {
	return s.Select(slot, nil)
}

// ToggleOpen closes slot's menu when it is open, otherwise opens it and
// implicitly closes any other.
func (s State) ToggleOpen(slot Slot) State {
	if s.index(slot) < 0 {
		return s
	}
	next := s.clone()
	if next.open == slot {
		next.open = ""
	} else {
		next.open = slot
	}
	return next
}

// SetPage moves a paginated chain to page n (clamped to 1).
func (s State) SetPage(n int) State {
	if !s.paginated {
		return s
	}
	if n < 1 {
		n = 1
	}
	next := s.clone()
	next.page = n
	return next
}

// Selected returns the id chosen for slot.
func (s State) Selected(slot Slot) (int64, bool) {
	idx := s.index(slot)
	if idx < 0 || s.selected[idx] == nil {
		return 0, false
	}
	return *s.selected[idx], true
}

// Disabled reports whether any ancestor of slot is unselected.
func (s State) Disabled(slot Slot) bool {
	idx := s.index(slot)
	if idx < 0 {
		return true
	}
	for i := 0; i < idx; i++ {
		if s.selected[i] == nil {
			return true
		}
	}
	return false
}

// Open returns the slot whose menu is open.
func (s State) Open() (Slot, bool) {
	return s.open, s.open != ""
}

// Page returns the current 1-based page.
func (s State) Page() int {
	return s.page
}

// Chain returns a copy of the slot order.
func (s State) Chain() []Slot {
	return append([]Slot(nil), s.slots...)
}

func (s State) index(slot Slot) int {
	for i, candidate := range s.slots {
		if candidate == slot {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	next := s
	next.slots = s.slots
	next.selected = make([]*int64, len(s.selected))
	copy(next.selected, s.selected)
	return next
}
