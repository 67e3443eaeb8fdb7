package munitions

// RingEvent asks the overlay system to draw or remove the range rings of one
// weapon around a target.
type RingEvent struct {
	// Name is the weapon key, "<name>[<id>]".
	Name        string
	Category    string
	Target      string
	FromLine    string
	InnerRange  int
	OuterRange  int
	Description string
	Remove      bool
}

// UID is the overlay uid of the event's rings.
func (e RingEvent) UID() string {
	return RingUID(e.Target, e.Name, e.FromLine)
}

// RingUID is "<target>.<key>", suffixed with ".<fromLine>" when set.
func RingUID(target, key, fromLine string) string {
	uid := target + "." + key
	if fromLine != "" {
		uid += "." + fromLine
	}
	return uid
}

// RingSink receives ring events emitted by weapon toggles.
type RingSink interface {
	ToggleRing(ev RingEvent) error
}

// RingPurger removes one weapon's rings from every target. A RingSink may
// implement it; the navigator uses it when a custom weapon is deleted.
type RingPurger interface {
	PurgeRings(weapon, category string) error
}

// OverlayQuery answers whether an overlay with the given uid exists.
type OverlayQuery interface {
	HasOverlay(uid string) bool
}

// RingSinkFunc adapts a function to RingSink.
type RingSinkFunc func(RingEvent) error

// ToggleRing calls f(ev).
func (f RingSinkFunc) ToggleRing(ev RingEvent) error { return f(ev) }
