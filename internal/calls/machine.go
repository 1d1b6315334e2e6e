package calls

// Status lifecycle:
//
//	initiated -> ringing -> answered -> completed
//	            ringing -> busy | no_answer | failed
//	            answered -> failed            (dropped mid-call)
//
// Transitions are strictly forward; terminal states absorb every later event.
// Providers deliver webhooks concurrently and out of order, so regressive
// events must be rejected rather than applied last-wins.

var statusRank = map[CallStatus]int{
	CallStatusInitiated: 0,
	CallStatusRinging:   1,
	CallStatusAnswered:  2,
	CallStatusCompleted: 3,
	CallStatusBusy:      3,
	CallStatusNoAnswer:  3,
	CallStatusFailed:    3,
}

// IsTerminal reports whether no further transition is accepted from s.
func IsTerminal(s CallStatus) bool {
	return statusRank[s] == 3
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s CallStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether from -> to is a legal forward transition.
// Providers may skip intermediate states (initiated straight to answered),
// but once answered only completed or failed may follow.
func CanTransition(from, to CallStatus) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	if statusRank[to] <= statusRank[from] {
		return false
	}
	if from == CallStatusAnswered && to != CallStatusCompleted && to != CallStatusFailed {
		return false
	}
	return true
}
