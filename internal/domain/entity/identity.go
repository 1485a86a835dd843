package entity

// User types issued by the identity provider
const (
	UserTypeClient   = "client"
	UserTypeAttorney = "attorney"
	UserTypeAdmin    = "admin"
)

// Identity is the already-authenticated caller of an operation
type Identity struct {
	ID    string
	Type  string
	Email string
	Name  string
}

// IsAdmin reports whether the caller may act on behalf of any client
func (i Identity) IsAdmin() bool {
	return i.Type == UserTypeAdmin
}

// IsStaff reports whether the caller works for the firm
func (i Identity) IsStaff() bool {
	return i.Type == UserTypeAdmin || i.Type == UserTypeAttorney
}

// CanAccessClient reports whether the caller may read or act on clientID's payments
func (i Identity) CanAccessClient(clientID string) bool {
	return i.IsStaff() || i.ID == clientID
}
