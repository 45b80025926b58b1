package selection

// EventType names a transition.
type EventType string

const (
	EventSelect     EventType = "select"
	EventDeselect   EventType = "deselect"
	EventToggleOpen EventType = "toggleOpen"
	EventSetPage    EventType = "setPage"
)

// Event is a transition expressed as data, as posted by the console views.
type Event struct {
	Type EventType `json:"type"`
	Slot Slot      `json:"slot"`
	ID   *int64    `json:"id,omitempty"`
	Page int       `json:"page,omitempty"`
}

// Apply runs the transition described by ev. Unknown event types leave the
// state unchanged.
func (s State) Apply(ev Event) State {
	switch ev.Type {
	case EventSelect:
		return s.Select(ev.Slot, ev.ID)
	case EventDeselect:
		return s.Deselect(ev.Slot)
	case EventToggleOpen:
		return s.ToggleOpen(ev.Slot)
	case EventSetPage:
		return s.SetPage(ev.Page)
	default:
		return s
	}
}

// Snapshot is the serialisable view of a State.
type Snapshot struct {
	Chain       []Slot          `json:"chain"`
	Selected    map[Slot]*int64 `json:"selected"`
	Disabled    map[Slot]bool   `json:"disabled"`
	OpenSlot    *Slot           `json:"openSlot"`
	CurrentPage int             `json:"currentPage"`
}

// Snapshot renders s for transport.
func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		Chain:       s.Chain(),
		Selected:    make(map[Slot]*int64, len(s.slots)),
		Disabled:    make(map[Slot]bool, len(s.slots)),
		CurrentPage: s.page,
	}
	for i, slot := range s.slots {
		if s.selected[i] != nil {
			v := *s.selected[i]
			snap.Selected[slot] = &v
		} else {
			snap.Selected[slot] = nil
		}
		snap.Disabled[slot] = s.Disabled(slot)
	}
	if open, ok := s.Open(); ok {
		snap.OpenSlot = &open
	}
	return snap
}
