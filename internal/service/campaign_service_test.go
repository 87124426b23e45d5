package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/model/dto"
	"github.com/voxhub/voice_go_server/internal/repository"
	"github.com/voxhub/voice_go_server/internal/testutil"
)

func setupCampaignService(t *testing.T, db *gorm.DB) *CampaignService {
	t.Helper()
	return NewCampaignService(repository.NewCampaignRepository(db), nil)
}

func TestCampaignService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)

	campaign, err := service.Create(workspace.ID, &dto.CreateCampaignRequest{Name: "九月回访"})
	require.NoError(t, err)
	assert.NotZero(t, campaign.ID)
	assert.Equal(t, model.CampaignDraft, campaign.Status)
	assert.Equal(t, 0, campaign.DraftVersion)
}

func TestCampaignService_Get_WrongWorkspace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	other := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID)

	// 跨工作区访问视同不存在
	_, err := service.Get(other.ID, campaign.ID)
	assert.Equal(t, ErrCampaignNotFound, err)
}

func TestCampaignService_SaveDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID)

	resp, err := service.SaveDraft(workspace.ID, campaign.ID, &dto.SaveDraftRequest{
		Config:  `{"greeting":"你好"}`,
		Version: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Version)

	resp, err = service.SaveDraft(workspace.ID, campaign.ID, &dto.SaveDraftRequest{
		Config:  `{"greeting":"您好"}`,
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Version)

	var updated model.Campaign
	require.NoError(t, db.First(&updated, campaign.ID).Error)
	assert.Equal(t, 2, updated.DraftVersion)
	assert.Equal(t, `{"greeting":"您好"}`, updated.DraftConfig)
}

func TestCampaignService_SaveDraft_VersionConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID)

	_, err := service.SaveDraft(workspace.ID, campaign.ID, &dto.SaveDraftRequest{
		Config:  `{"a":1}`,
		Version: 0,
	})
	require.NoError(t, err)

	// 另一标签页带旧版本号保存：冲突，原草稿不被覆盖
	_, err = service.SaveDraft(workspace.ID, campaign.ID, &dto.SaveDraftRequest{
		Config:  `{"b":2}`,
		Version: 0,
	})
	assert.Equal(t, ErrDraftVersionConflict, err)

	var updated model.Campaign
	require.NoError(t, db.First(&updated, campaign.ID).Error)
	assert.Equal(t, `{"a":1}`, updated.DraftConfig)
	assert.Equal(t, 1, updated.DraftVersion)
}

func TestCampaignService_Schedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID, func(c *model.Campaign) {
		c.ContactListKey = "campaigns/1/contacts.csv"
		c.ContactCount = 20
	})

	start := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	updated, err := service.Schedule(workspace.ID, campaign.ID, &dto.ScheduleCampaignRequest{
		ScheduleStart: start,
	})
	require.NoError(t, err)
	assert.Equal(t, model.CampaignScheduled, updated.Status)
	require.NotNil(t, updated.ScheduleStart)
}

func TestCampaignService_Schedule_NoContacts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID)

	_, err := service.Schedule(workspace.ID, campaign.ID, &dto.ScheduleCampaignRequest{
		ScheduleStart: time.Now().Format(time.RFC3339),
	})
	assert.Equal(t, ErrEmptyContactList, err)
}

func TestCampaignService_Transitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID, func(c *model.Campaign) {
		c.ContactListKey = "campaigns/1/contacts.csv"
	})

	// draft → running → paused → running → completed
	updated, err := service.Start(workspace.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignRunning, updated.Status)

	updated, err = service.Pause(workspace.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignPaused, updated.Status)

	updated, err = service.Start(workspace.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignRunning, updated.Status)

	updated, err = service.Complete(workspace.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignCompleted, updated.Status)

	// 已结束的活动不能再启动
	_, err = service.Start(workspace.ID, campaign.ID)
	assert.Equal(t, ErrInvalidTransition, err)
}

func TestCampaignService_Start_NoContacts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)
	campaign := testutil.TestCampaign(t, db, workspace.ID)

	_, err := service.Start(workspace.ID, campaign.ID)
	assert.Equal(t, ErrEmptyContactList, err)
}

func TestCampaignService_Delete_DraftOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := setupCampaignService(t, db)

	partner := testutil.TestPartner(t, db)
	workspace := testutil.TestWorkspace(t, db, partner.ID)

	draft := testutil.TestCampaign(t, db, workspace.ID)
	require.NoError(t, service.Delete(workspace.ID, draft.ID))

	running := testutil.TestCampaign(t, db, workspace.ID, func(c *model.Campaign) {
		c.Status = model.CampaignRunning
	})
	err := service.Delete(workspace.ID, running.ID)
	assert.Equal(t, ErrInvalidTransition, err)
}
