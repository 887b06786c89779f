package domain

import "time"

type BookStatus string

const (
	BookStatusActive   BookStatus = "active"
	BookStatusInactive BookStatus = "inactive"
)

// ReaderGroup restricts which member type may reserve a book.
// Values other than the two below are not gated.
type ReaderGroup string

const (
	ReaderGroupChildren  ReaderGroup = "children"
	ReaderGroupEducation ReaderGroup = "education"
)

type CopyStatus string

const (
	CopyStatusAvailable CopyStatus = "available"
	CopyStatusReserved  CopyStatus = "reserved"
	CopyStatusBorrowed  CopyStatus = "borrowed"
)

type Book struct {
	ID          int32       `json:"id"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	ReaderGroup ReaderGroup `json:"reader_group"`
	BookLimit   int32       `json:"book_limit"`
	Status      BookStatus  `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
}

// AllowsMemberType reports whether members of type t pass the reader-group gate.
func (b *Book) AllowsMemberType(t MemberType) bool {
	switch b.ReaderGroup {
	case ReaderGroupChildren:
		return t == MemberTypeCitizen
	case ReaderGroupEducation:
		return t == MemberTypeEducational
	default:
		return true
	}
}

// BookCopy is one loanable unit of a Book.
type BookCopy struct {
	ID            int32      `json:"id"`
	BookID        int32      `json:"book_id"`
	Status        CopyStatus `json:"status"`
	ShelfLocation string     `json:"shelf_location"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}
