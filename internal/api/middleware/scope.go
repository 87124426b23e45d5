package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/response"
	"github.com/voxhub/voice_go_server/internal/repository"
)

const (
	WorkspaceIDKey = "workspaceID"
	PartnerIDKey   = "partnerID"
	RoleKey        = "role"
)

// WorkspaceScope 按 :slug 解析工作区并校验成员权限。
// 工作区级成员关系优先，没有时回落到合作伙伴级成员关系。
func WorkspaceScope(workspaceRepo *repository.WorkspaceRepository, membershipRepo *repository.MembershipRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "请先登录")
			c.Abort()
			return
		}

		slug := c.Param("slug")
		workspace, err := workspaceRepo.GetBySlug(slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.NotFoundError(c, "工作区不存在")
			} else {
				response.ServerError(c, "")
			}
			c.Abort()
			return
		}

		if workspace.Status != "active" {
			response.PermissionError(c, "工作区已停用")
			c.Abort()
			return
		}

		membership, err := membershipRepo.GetWorkspaceRole(userID, workspace.PartnerID, workspace.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.PermissionError(c, "无权访问该工作区")
			} else {
				response.ServerError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(WorkspaceIDKey, workspace.ID)
		c.Set(PartnerIDKey, workspace.PartnerID)
		c.Set(RoleKey, membership.Role)
		c.Next()
	}
}

// PartnerScope 校验合作伙伴级成员关系（admin 面板）
func PartnerScope(partnerRepo *repository.PartnerRepository, membershipRepo *repository.MembershipRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "请先登录")
			c.Abort()
			return
		}

		memberships, err := membershipRepo.ListByUser(userID)
		if err != nil {
			response.ServerError(c, "")
			c.Abort()
			return
		}

		var partnerLevel *model.Membership
		for i := range memberships {
			if memberships[i].WorkspaceID == nil {
				partnerLevel = &memberships[i]
				break
			}
		}
		if partnerLevel == nil {
			response.PermissionError(c, "无合作伙伴管理权限")
			c.Abort()
			return
		}

		partner, err := partnerRepo.GetByID(partnerLevel.PartnerID)
		if err != nil {
			response.ServerError(c, "")
			c.Abort()
			return
		}
		if partner.Status != "active" {
			response.PermissionError(c, "合作伙伴已被暂停")
			c.Abort()
			return
		}

		c.Set(PartnerIDKey, partner.ID)
		c.Set(RoleKey, partnerLevel.Role)
		c.Next()
	}
}

// RequireRole 要求当前作用域内的角色不低于指定角色
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.PermissionError(c, "权限不足")
		c.Abort()
	}
}

// SuperAdmin 超级管理员校验
func SuperAdmin(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "请先登录")
			c.Abort()
			return
		}

		user, err := userRepo.GetByID(userID)
		if err != nil || !user.IsSuperAdmin {
			response.PermissionError(c, "需要超级管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetWorkspaceID 从上下文获取工作区 ID
func GetWorkspaceID(c *gin.Context) int64 {
	return c.GetInt64(WorkspaceIDKey)
}

// GetPartnerID 从上下文获取合作伙伴 ID
func GetPartnerID(c *gin.Context) int64 {
	return c.GetInt64(PartnerIDKey)
}
