package order

// Status order lifecycle state. Wire values are case-sensitive.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDelivered Status = "DELIVERED"
)

// transitions lists the allowed moves. Every move is currently legal; tighten here.
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusPending: true, StatusConfirmed: true, StatusDelivered: true},
	StatusConfirmed: {StatusPending: true, StatusConfirmed: true, StatusDelivered: true},
	StatusDelivered: {StatusPending: true, StatusConfirmed: true, StatusDelivered: true},
}

// ParseStatus accepts only the exact wire values.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := transitions[st]
	return st, ok
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// StatusNames lists the wire values in lifecycle order.
func StatusNames() []string {
	return []string{string(StatusPending), string(StatusConfirmed), string(StatusDelivered)}
}
