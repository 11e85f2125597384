package domain

// MessageStatus is the delivery lifecycle of a message. The order is total
// and transitions are strictly forward: sent < delivered < read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// Valid reports whether s is one of the three known statuses.
func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s is strictly earlier than other in the lifecycle.
func (s MessageStatus) Before(other MessageStatus) bool {
	return statusRank[s] < statusRank[other]
}

// StatusesBefore returns every status strictly earlier than target. The
// store uses this as the guard predicate of its conditional update, so a
// backward or repeated transition matches zero rows.
func StatusesBefore(target MessageStatus) []MessageStatus {
	var out []MessageStatus
	for _, s := range []MessageStatus{StatusSent, StatusDelivered, StatusRead} {
		if s.Before(target) {
			out = append(out, s)
		}
	}
	return out
}

// AdvanceStatus applies target to m only when it is strictly ahead of the
// current status. Backward and repeated transitions are benign races, not
// faults: the message is returned unchanged and changed is false.
func AdvanceStatus(m Message, target MessageStatus) (Message, bool) {
	if !target.Valid() || !m.Status.Before(target) {
		return m, false
	}
	m.Status = target
	return m, true
}
