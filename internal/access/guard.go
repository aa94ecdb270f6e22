// Package access centralizes every authorization decision made by the
// document and transfer services. All predicates are pure: they look only
// at the records handed to them, never at storage.
package access

import (
	"correspondence-tracker/internal/domain"
)

// CanReadDocument allows the author always, and anyone who is sender or
// recipient on at least one transfer of the document.
func CanReadDocument(actor *domain.User, doc *domain.Document, transfers []domain.Transfer) bool {
	if actor == nil || doc == nil {
		return false
	}
	if actor.ID == doc.AuthorID {
		return true
	}
	for _, t := range transfers {
		if t.SenderID == actor.ID || t.RecipientID == actor.ID {
			return true
		}
	}
	return false
}

// CanMutateDocument allows only the author to update or delete a document.
func CanMutateDocument(actorID uint64, doc *domain.Document) bool {
	return doc != nil && actorID == doc.AuthorID
}

// CanAcknowledge allows only the transfer's recipient to confirm reception.
func CanAcknowledge(actorID uint64, t *domain.Transfer) bool {
	return t != nil && actorID == t.RecipientID
}

// CanClose allows only the transfer's original sender to mark it treated.
func CanClose(actorID uint64, t *domain.Transfer) bool {
	return t != nil && actorID == t.SenderID
}

// CanDeleteTransfer allows either party of the hop to remove it once closed.
// The status check itself lives with the transfer service.
func CanDeleteTransfer(actorID uint64, t *domain.Transfer) bool {
	return t != nil && (actorID == t.SenderID || actorID == t.RecipientID)
}

// CanManageDirectory gates service and user administration.
func CanManageDirectory(actor *domain.User) bool {
	return actor != nil && actor.Role == domain.RoleAdmin
}
