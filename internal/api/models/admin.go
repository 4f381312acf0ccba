package models

// AdminLoginRequest is the request body for officer login.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login body.
func (in *AdminLoginRequest) Validate() []FieldError {
	var errs []FieldError
	if in.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required"})
	}
	if in.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "is required"})
	}
	return errs
}

// AdminLoginResponse carries the issued officer access token.
type AdminLoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   Timestamp `json:"expiresAt"`
}

// CompleteRequestInput is the optional body for officer completion of a
// processing request, typically a grievance.
type CompleteRequestInput struct {
	Note string `json:"note,omitempty"`
}
