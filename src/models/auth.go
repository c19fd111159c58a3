package models

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	SuperAdmin bool   `json:"super_admin"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
