package auth

import "errors"

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

var (
	errUserNotFound  = errors.New("auth: user not found")
	errWrongPassword = errors.New("auth: wrong password")
	errEmailTaken    = errors.New("auth: email already registered")
)
