package domain

import (
	"time"
)

// Role of a user inside the organization. Directory management is
// restricted to admins.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DocumentKind tells whether a document entered or left the organization.
type DocumentKind string

const (
	KindIncoming DocumentKind = "incoming"
	KindOutgoing DocumentKind = "outgoing"
)

// TransferStatus is the lifecycle of a single delivery hop.
// Transitions only move forward: sent -> acknowledged -> closed.
type TransferStatus string

const (
	StatusSent         TransferStatus = "sent"
	StatusAcknowledged TransferStatus = "acknowledged"
	StatusClosed       TransferStatus = "closed"
)

// rank orders statuses so forward-only transitions can be checked.
var statusRank = map[TransferStatus]int{
	StatusSent:         0,
	StatusAcknowledged: 1,
	StatusClosed:       2,
}

// Valid reports whether s is one of the known statuses.
func (s TransferStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s TransferStatus) Before(other TransferStatus) bool {
	return statusRank[s] < statusRank[other]
}

// Service is an organizational unit. Pure directory data, no state machine.
type Service struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents a member of the organization.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Password     string    `json:"-" gorm:"-"` // input only, never stored
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role" gorm:"default:user"`
	Position     string    `json:"position"`
	ServiceID    *uint64   `json:"service_id"`
	Service      *Service  `json:"service,omitempty"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SafeUser is a user payload without credential fields.
type SafeUser struct {
	ID       uint64   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     Role     `json:"role"`
	Position string   `json:"position"`
	Service  *Service `json:"service,omitempty"`
}

// ToSafeUser converts a User to a SafeUser.
func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Position: u.Position,
		Service:  u.Service,
	}
}

// Document is one trackable piece of correspondence. A document with no
// transfers referencing it is a draft; that state is always derived from
// the transfer table, never stored.
type Document struct {
	ID                 uint64       `json:"id"`
	Subject            string       `json:"subject"`
	Kind               DocumentKind `json:"kind"`
	ReceivedDate       time.Time    `json:"received_date"`
	Attachment         *string      `json:"attachment"` // blob handle
	ExternalSenderName *string      `json:"external_sender_name"`
	TargetServiceID    *uint64      `json:"target_service_id"`
	TargetService      *Service     `json:"target_service,omitempty" gorm:"foreignKey:TargetServiceID"`
	AuthorID           uint64       `json:"author_id" gorm:"index"`
	Urgent             bool         `json:"urgent" gorm:"default:false"`
	Note               *string      `json:"note"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Transfer is one delivery hop of a document from a sender to a single
// recipient, with its own lifecycle. Many transfers may reference the same
// document (fan-out); each advances independently.
type Transfer struct {
	ID             uint64         `json:"id"`
	DocumentID     uint64         `json:"document_id" gorm:"index"`
	Document       *Document      `json:"document,omitempty"`
	SenderID       uint64         `json:"sender_id" gorm:"index"`
	Sender         *User          `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	RecipientID    uint64         `json:"recipient_id" gorm:"index"`
	Recipient      *User          `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
	Status         TransferStatus `json:"status" gorm:"index:idx_transfers_status"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at"`
	Signature      *string        `json:"signature"`
	Note           *string        `json:"note"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
