package domain

import "time"

type MemberType string

const (
	MemberTypeCitizen     MemberType = "citizen"
	MemberTypeEducational MemberType = "educational"
)

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

type Member struct {
	ID        int32        `json:"id"`
	Name      string       `json:"name"`
	Type      MemberType   `json:"user_type"`
	Status    MemberStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	DeletedAt *time.Time   `json:"deleted_at,omitempty"`
}

type Staff struct {
	ID        int32      `json:"id"`
	Name      string     `json:"name"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
