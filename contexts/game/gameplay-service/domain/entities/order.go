package entities

// Seat is one alive player as the gameplay flows see it.
type Seat struct {
	UserID string
	Name   string
}

// SpeakingOrder arranges seats into a speech sequence: the sequence starts
// at start and walks the circle forward or backward, wrapping around.
func SpeakingOrder(seats []Seat, start int, forward bool) []Seat {
	if len(seats) == 0 {
		return nil
	}
	order := make([]Seat, 0, len(seats))
	for i := 0; i < len(seats); i++ {
		var idx int
		if forward {
			idx = (start + i) % len(seats)
		} else {
			idx = ((start-i)%len(seats) + len(seats)) % len(seats)
		}
		order = append(order, seats[idx])
	}
	return order
}
