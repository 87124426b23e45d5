package dto

type CreateAgentRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Provider     string `json:"provider" binding:"required"`
	Voice        string `json:"voice"`
	Language     string `json:"language"`
	SystemPrompt string `json:"system_prompt"`
	FirstMessage string `json:"first_message"`
}

type UpdateAgentRequest struct {
	Name         *string `json:"name"`
	Voice        *string `json:"voice"`
	Language     *string `json:"language"`
	SystemPrompt *string `json:"system_prompt"`
	FirstMessage *string `json:"first_message"`
	Status       *string `json:"status"`
}
