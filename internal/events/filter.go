package events

// MessageFilter narrows a message subscription. Nil fields match anything.
type MessageFilter struct {
	MutationType *MutationType
	ID           *int
}

// Match reports whether ev satisfies every set field of f.
func (f MessageFilter) Match(ev MessageMutated) bool {
	return matches(f.MutationType, f.ID, ev.MutationType, ev.ID)
}

// UserFilter narrows a user subscription. Nil fields match anything.
type UserFilter struct {
	MutationType *MutationType
	ID           *int
}

// Match reports whether ev satisfies every set field of f.
func (f UserFilter) Match(ev UserMutated) bool {
	return matches(f.MutationType, f.ID, ev.MutationType, ev.ID)
}

func matches(wantType *MutationType, wantID *int, gotType MutationType, gotID int) bool {
	if wantType != nil && *wantType != gotType {
		return false
	}
	if wantID != nil && *wantID != gotID {
		return false
	}
	return true
}
