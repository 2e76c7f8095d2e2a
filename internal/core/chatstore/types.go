// Package chatstore provides the chat store type constants.
package chatstore

// Type represents the backend of a chat store.
type Type string

const (
	// TypeNone disables persistence.
	TypeNone Type = "none"
	// TypeMongoDB represents a MongoDB store.
	TypeMongoDB Type = "mongodb"
	// TypeFirestore represents a Cloud Firestore store.
	TypeFirestore Type = "firestore"
)

// IsValid reports whether t names a supported store.
func (t Type) IsValid() bool {
	switch t {
	case TypeNone, TypeMongoDB, TypeFirestore:
		return true
	}
	return false
}
