package models

import "time"

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Location    string    `json:"location"`
	Chronic     string    `json:"chronic"`
	MasterID    string    `json:"master"`
	CreatedAt   time.Time `json:"createdAt"`
	Players     []User    `json:"players"`
}

// RequestStatus is the state of a GroupRequest.
type RequestStatus string

const (
	RequestPending RequestStatus = "PENDING"
	// APPROVED and REJECTED exist in storage but nothing transitions to them yet.
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// GroupRequest is a user's request to join a group.
type GroupRequest struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	GroupID   string        `json:"groupId"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
