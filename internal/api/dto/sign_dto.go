package dto

// SignUpRequest payload for new members.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// SignInRequest payload for sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse carries both tokens, each with its "Bearer " prefix.
type SignInResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponse carries the newly issued access token.
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}
