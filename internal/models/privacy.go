package models

// Visibility and message permission levels.
const (
	VisibilityPublic        = "public"
	VisibilityAcquaintances = "acquaintances"
	VisibilityPrivate       = "private"

	MessagesEveryone      = "everyone"
	MessagesAcquaintances = "acquaintances"
	MessagesNobody        = "nobody"
)

type PrivacySettings struct {
	ProfileVisibility string `json:"profile_visibility"`
	MessagePermission string `json:"message_permission"`
	ShowTrustScore    bool   `json:"show_trust_score"`
	ShowAcquaintances bool   `json:"show_acquaintances"`
	Searchable        bool   `json:"searchable"`
}

// DefaultPrivacySettings are applied to new accounts.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility: VisibilityPublic,
		MessagePermission: MessagesEveryone,
		ShowTrustScore:    true,
		ShowAcquaintances: true,
		Searchable:        true,
	}
}

// Valid reports whether every enumerated field holds a known value.
func (s PrivacySettings) Valid() bool {
	switch s.ProfileVisibility {
	case VisibilityPublic, VisibilityAcquaintances, VisibilityPrivate:
	default:
		return false
	}
	switch s.MessagePermission {
	case MessagesEveryone, MessagesAcquaintances, MessagesNobody:
	default:
		return false
	}
	return true
}
