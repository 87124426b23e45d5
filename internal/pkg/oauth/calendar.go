package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

type CalendarAccount struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type CalendarOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewCalendarOAuth(clientID, clientSecret, redirectURI, authURL, tokenURL, userInfoURL string) *CalendarOAuth {
	return &CalendarOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"calendar.readonly", "calendar.events"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userInfoURL: userInfoURL,
	}
}

// GetAuthURL 获取日历授权 URL
func (c *CalendarOAuth) GetAuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange 用授权码换取 access token
func (c *CalendarOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// GetAccount 获取授权账号信息
func (c *CalendarOAuth) GetAccount(ctx context.Context, token *oauth2.Token) (*CalendarAccount, error) {
	client := c.config.Client(ctx, token)

	resp, err := client.Get(c.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar api error: %s", string(body))
	}

	var account CalendarAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode account info: %w", err)
	}

	return &account, nil
}
