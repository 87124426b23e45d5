package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/jwt"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrWrongOldPassword   = errors.New("原密码错误")
)

type AuthService struct {
	userRepo       *repository.UserRepository
	membershipRepo *repository.MembershipRepository
	partnerRepo    *repository.PartnerRepository
	workspaceRepo  *repository.WorkspaceRepository
	cfg            *config.Config
}

func NewAuthService(
	userRepo *repository.UserRepository,
	membershipRepo *repository.MembershipRepository,
	partnerRepo *repository.PartnerRepository,
	workspaceRepo *repository.WorkspaceRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		partnerRepo:    partnerRepo,
		workspaceRepo:  workspaceRepo,
		cfg:            cfg,
	}
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	_ = s.userRepo.TouchLastLogin(user.ID)

	return &dto.LoginResponse{
		Token: token,
		User:  user,
	}, nil
}

// Me 当前用户及其租户上下文
func (s *AuthService) Me(userID int64) (*dto.MeResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := &dto.MeResponse{
		User:       user,
		Workspaces: []model.Workspace{},
	}

	memberships, err := s.membershipRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return resp, nil
	}

	// 一个用户只属于一个合作伙伴
	partner, err := s.partnerRepo.GetByID(memberships[0].PartnerID)
	if err == nil {
		resp.Partner = partner
	}

	// 合作伙伴层级成员可见所有工作区，工作区成员只可见授权的工作区
	var workspaceIDs []int64
	partnerLevel := false
	for _, m := range memberships {
		if m.WorkspaceID == nil {
			partnerLevel = true
			if resp.Role == "" || m.Role == model.RoleOwner {
				resp.Role = m.Role
			}
		} else {
			workspaceIDs = append(workspaceIDs, *m.WorkspaceID)
			if resp.Role == "" {
				resp.Role = m.Role
			}
		}
	}

	if partnerLevel {
		workspaces, err := s.workspaceRepo.ListByPartner(memberships[0].PartnerID)
		if err != nil {
			return nil, err
		}
		resp.Workspaces = workspaces
	} else if len(workspaceIDs) > 0 {
		workspaces, err := s.workspaceRepo.ListByIDs(workspaceIDs)
		if err != nil {
			return nil, err
		}
		resp.Workspaces = workspaces
	}

	return resp, nil
}

// ChangePassword 修改密码，成功后清除首次登录强制改密标记
func (s *AuthService) ChangePassword(userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongOldPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepo.UpdateFields(userID, map[string]interface{}{
		"password_hash":   string(hashed),
		"must_reset_pass": false,
	})
}
