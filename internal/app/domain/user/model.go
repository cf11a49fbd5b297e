package user

// User is the signed-in buyer. At most one is active per application.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Role     string `json:"role,omitempty"`
}

// DisplayName returns the full name, falling back to the email.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// Credentials are posted to the login and register endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// VerifyResponse is returned by token verification.
type VerifyResponse struct {
	User User `json:"user"`
}
