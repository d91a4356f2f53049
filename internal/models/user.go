package models

// User is the profile returned by the auth endpoints.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credential is a bearer token plus the profile it was issued for.
type Credential struct {
	Token string
	User  User
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return c.Token != ""
}
