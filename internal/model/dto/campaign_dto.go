package dto

type CreateCampaignRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	AgentID *int64 `json:"agent_id"`
}

// SaveDraftRequest 草稿自动保存，带版本号防止并发覆盖
type SaveDraftRequest struct {
	Config  string `json:"config" binding:"required"`
	Version int    `json:"version"`
}

type SaveDraftResponse struct {
	Version int `json:"version"`
}

type ScheduleCampaignRequest struct {
	ScheduleStart string `json:"schedule_start" binding:"required"`
	ScheduleEnd   string `json:"schedule_end"`
}
