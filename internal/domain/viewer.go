package domain

// Viewer is the identity a request is evaluated for. The zero value is anonymous.
type Viewer struct {
	ProfileID string
	Username  string
}

// Anonymous is the viewer of an unauthenticated request.
var Anonymous = Viewer{}

// IsAnonymous reports whether the viewer carries no identity.
func (v Viewer) IsAnonymous() bool {
	return v.ProfileID == ""
}

// Is reports whether the viewer is the given profile.
func (v Viewer) Is(profileID string) bool {
	return !v.IsAnonymous() && v.ProfileID == profileID
}
