package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/pkg/oauth"
	"github.com/voxhub/voice_go_server/internal/repository"
)

var ErrIntegrationNotFound = errors.New("集成不存在")

type IntegrationService struct {
	integrationRepo *repository.IntegrationRepository
	stateStore      *oauth.StateStore
	calendarOAuth   *oauth.CalendarOAuth
}

func NewIntegrationService(
	integrationRepo *repository.IntegrationRepository,
	stateStore *oauth.StateStore,
	cfg *config.Config,
) *IntegrationService {
	cal := cfg.Integrations.Calendar
	return &IntegrationService{
		integrationRepo: integrationRepo,
		stateStore:      stateStore,
		calendarOAuth: oauth.NewCalendarOAuth(
			cal.ClientID,
			cal.ClientSecret,
			cal.RedirectURI,
			cal.AuthURL,
			cal.TokenURL,
			cal.UserInfoURL,
		),
	}
}

// Connect 发起日历集成授权
func (s *IntegrationService) Connect(ctx context.Context, workspaceID int64) (*dto.ConnectIntegrationResponse, error) {
	state, err := s.stateStore.GenerateState(ctx, &oauth.StateData{
		WorkspaceID: workspaceID,
		Provider:    "calendar",
	})
	if err != nil {
		return nil, err
	}

	return &dto.ConnectIntegrationResponse{
		AuthURL: s.calendarOAuth.GetAuthURL(state),
		State:   state,
	}, nil
}

// HandleCallback 授权回调：校验 state、换取令牌、落库
func (s *IntegrationService) HandleCallback(ctx context.Context, state, code string) (*model.Integration, error) {
	data, err := s.stateStore.ValidateState(ctx, state)
	if err != nil {
		return nil, err
	}

	token, err := s.calendarOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	integration := &model.Integration{
		WorkspaceID:  data.WorkspaceID,
		Provider:     data.Provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Status:       "connected",
	}
	if !token.Expiry.IsZero() {
		integration.TokenExpiry = &token.Expiry
	}

	if err := s.integrationRepo.Upsert(integration); err != nil {
		return nil, err
	}

	return integration, nil
}

// List 工作区已连接的集成
func (s *IntegrationService) List(workspaceID int64) ([]model.Integration, error) {
	return s.integrationRepo.ListByWorkspace(workspaceID)
}

// Disconnect 断开集成
func (s *IntegrationService) Disconnect(workspaceID int64, provider string) error {
	_, err := s.integrationRepo.GetByWorkspaceProvider(workspaceID, provider)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIntegrationNotFound
		}
		return err
	}
	return s.integrationRepo.Delete(workspaceID, provider)
}
