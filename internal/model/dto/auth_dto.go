package dto

import "github.com/voxhub/voice_go_server/internal/model"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// MeResponse 当前用户及其所属租户上下文
type MeResponse struct {
	User       *model.User       `json:"user"`
	Partner    *model.Partner    `json:"partner,omitempty"`
	Workspaces []model.Workspace `json:"workspaces"`
	Role       string            `json:"role"`
}
