package handler

type RequestPhoneOTP struct {
	Phone string `json:"phone"`
}

type RequestEmailOTP struct {
	Email string `json:"email"`
}

// VerifyOTPRequest carries exactly one identity, phone or email, plus the
// code presented by the caller.
type VerifyOTPRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Code  string `json:"code"`
}

// OTPLoginRequest is a verify request plus optional profile hints applied
// when the login creates the account.
type OTPLoginRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Code  string `json:"code"`

	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}
