package handler

import (
	"time"

	"github.com/bgi/launchpad-auth/internal/core/ports"
)

// --- Request / Response types ---

type registerRequest struct {
	Name         string `json:"name"                   validate:"required,min=2,max=100"`
	Email        string `json:"email"                  validate:"required,email,max=150"`
	Password     string `json:"password"               validate:"required,min=8,max=72"`
	Role         string `json:"role"                   validate:"required,oneof=STUDENT FACULTY HOD ADMIN"`
	DepartmentID *int64 `json:"departmentId,omitempty" validate:"omitempty,gt=0"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type userResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	RoleDisplayName string `json:"roleDisplayName"`
	DepartmentID    *int64 `json:"departmentId"`
	IsActive        bool   `json:"isActive"`
	CreatedAt       string `json:"createdAt"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	User         userResponse `json:"user"`
}

func toUserResponse(u ports.PublicUser) userResponse {
	out := userResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            string(u.Role),
		RoleDisplayName: u.RoleDisplayName,
		DepartmentID:    u.DepartmentID,
		IsActive:        u.Active,
	}
	if !u.CreatedAt.IsZero() {
		out.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		User:         toUserResponse(r.User),
	}
}
