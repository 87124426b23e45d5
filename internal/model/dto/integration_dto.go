package dto

type ConnectIntegrationResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}
