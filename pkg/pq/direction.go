package pq

// DirectionIndicator records the orientation of a Q-node relative to the
// moment it was attached. Each ReverseChildren on the carrying node toggles
// Reversed, so a driver can read back whether the children were flipped.
type DirectionIndicator struct {
	Number   int
	Reversed bool
}

// NewDirectionIndicator returns an indicator for number, not yet reversed.
func NewDirectionIndicator(number int) *DirectionIndicator {
	return &DirectionIndicator{Number: number}
}

// Reverse toggles the orientation.
func (d *DirectionIndicator) Reverse() { d.Reversed = !d.Reversed }
