package display

// PowerEvent reports whether the screen is on.
type PowerEvent struct {
	On bool
}

func (e PowerEvent) String() string {
	if e.On {
		return "on"
	}
	return "off"
}
