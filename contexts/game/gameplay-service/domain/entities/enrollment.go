package entities

import "time"

// Enrollment is one open sheriff sign-up window. Members toggle themselves
// in and out until the deadline; insertion order is preserved.
type Enrollment struct {
	ID        string
	SessionID string
	ChannelID string
	RenderRef string
	Deadline  time.Time
	Members   []Seat
}

func NewEnrollment(id, sessionID, channelID string, deadline time.Time) *Enrollment {
	return &Enrollment{
		ID:        id,
		SessionID: sessionID,
		ChannelID: channelID,
		Deadline:  deadline,
	}
}

// Toggle flips the membership of the seat's user and reports whether the
// user is enrolled afterwards.
func (e *Enrollment) Toggle(seat Seat) bool {
	for i, member := range e.Members {
		if member.UserID == seat.UserID {
			e.Members = append(e.Members[:i:i], e.Members[i+1:]...)
			return false
		}
	}
	e.Members = append(e.Members, seat)
	return true
}

// EnrollmentView is a read-only snapshot of a window.
type EnrollmentView struct {
	ID        string
	SessionID string
	ChannelID string
	RenderRef string
	Deadline  time.Time
	Members   []Seat
	Closed    bool
}

func (e *Enrollment) View(closed bool) EnrollmentView {
	return EnrollmentView{
		ID:        e.ID,
		SessionID: e.SessionID,
		ChannelID: e.ChannelID,
		RenderRef: e.RenderRef,
		Deadline:  e.Deadline,
		Members:   append([]Seat(nil), e.Members...),
		Closed:    closed,
	}
}
