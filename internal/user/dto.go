package user

// ProfileResponse is the body of GET /users/me.
type ProfileResponse struct {
	Success bool     `json:"success"`
	User    *Profile `json:"user"`
}
