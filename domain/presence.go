package domain

// Status is the presence state of an identity, derived from its live
// session count.
type Status string

const (
	StatusOnline  Status = "ONLINE"
	StatusOffline Status = "OFFLINE"
)
