// Package wechat implements the WeChat web OAuth login flow: building
// the authorize URL, exchanging the callback code for an access token,
// fetching the user profile and mapping it onto a local account.
package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mallkit/shop-admin-api/internal/auth"
	"github.com/mallkit/shop-admin-api/internal/model"
	"github.com/mallkit/shop-admin-api/internal/obs"
	"github.com/mallkit/shop-admin-api/internal/store"
)

// ErrOAuthFailed reports a rejected or malformed WeChat API response.
var ErrOAuthFailed = errors.New("wechat oauth failed")

// Client talks to the WeChat open platform. Base URLs are configurable
// so tests can point it at a fake server.
type Client struct {
	AppID       string
	Secret      string
	AuthBaseURL string
	APIBaseURL  string
	HTTP        *http.Client
}

// NewClient builds a Client with a bounded request timeout.
func NewClient(appID, secret, authBaseURL, apiBaseURL string) *Client {
	return &Client{
		AppID:       appID,
		Secret:      secret,
		AuthBaseURL: authBaseURL,
		APIBaseURL:  apiBaseURL,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
	}
}

// AuthURL returns the authorize URL the frontend redirects the user to.
func (c *Client) AuthURL(redirectURL string) string {
	q := url.Values{}
	q.Set("appid", c.AppID)
	q.Set("redirect_uri", redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "snsapi_userinfo")
	q.Set("state", "state")
	return c.AuthBaseURL + "/connect/oauth2/authorize?" + q.Encode() + "#wechat_redirect"
}

// Token is the result of exchanging a callback code.
type Token struct {
	AccessToken string `json:"access_token"`
	OpenID      string `json:"openid"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

// UserInfo is the subset of the WeChat profile the service keeps.
type UserInfo struct {
	Nickname   string `json:"nickname"`
	HeadImgURL string `json:"headimgurl"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrOAuthFailed, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Exchange trades the callback code for an access token and open ID.
func (c *Client) Exchange(ctx context.Context, code string) (Token, error) {
	q := url.Values{}
	q.Set("appid", c.AppID)
	q.Set("secret", c.Secret)
	q.Set("code", code)
	q.Set("grant_type", "authorization_code")
	var tok Token
	if err := c.getJSON(ctx, c.APIBaseURL+"/sns/oauth2/access_token?"+q.Encode(), &tok); err != nil {
		return Token{}, err
	}
	if tok.ErrCode != 0 || tok.OpenID == "" {
		return Token{}, fmt.Errorf("%w: %d %s", ErrOAuthFailed, tok.ErrCode, tok.ErrMsg)
	}
	return tok, nil
}

// FetchUserInfo loads the WeChat profile for an authorized token.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken, openID string) (UserInfo, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("openid", openID)
	q.Set("lang", "zh_CN")
	var info UserInfo
	if err := c.getJSON(ctx, c.APIBaseURL+"/sns/userinfo?"+q.Encode(), &info); err != nil {
		return UserInfo{}, err
	}
	if info.ErrCode != 0 {
		return UserInfo{}, fmt.Errorf("%w: %d %s", ErrOAuthFailed, info.ErrCode, info.ErrMsg)
	}
	return info, nil
}

// Service runs the login flow against the user store.
type Service struct {
	client *Client
	store  store.Store
	guard  *auth.Guard
	ttl    time.Duration
}

// NewService wires the OAuth client to the account store. Tokens issued
// for WeChat logins live for ttl (longer than password logins).
func NewService(client *Client, st store.Store, guard *auth.Guard, ttl time.Duration) *Service {
	return &Service{client: client, store: st, guard: guard, ttl: ttl}
}

// AuthURL proxies to the client.
func (s *Service) AuthURL(redirectURL string) string {
	return s.client.AuthURL(redirectURL)
}

// Login completes the callback: it exchanges the code, loads the WeChat
// profile and finds or creates the matching local account, refreshing
// the stored nickname and avatar on every login.
func (s *Service) Login(ctx context.Context, code string) (model.User, string, error) {
	tok, err := s.client.Exchange(ctx, code)
	if err != nil {
		return model.User{}, "", err
	}
	info, err := s.client.FetchUserInfo(ctx, tok.AccessToken, tok.OpenID)
	if err != nil {
		return model.User{}, "", err
	}

	var u model.User
	err = s.store.Tx(ctx, func(st store.Stores) error {
		existing, err := st.FindUserByWeChatOpenID(ctx, tok.OpenID)
		if errors.Is(err, store.ErrNotFound) {
			u = model.User{
				ID:           uuid.NewString(),
				Username:     "wx_" + tok.OpenID,
				Nickname:     info.Nickname,
				Avatar:       info.HeadImgURL,
				Role:         model.RoleUser,
				WeChatOpenID: tok.OpenID,
				CreatedAt:    time.Now().UTC(),
			}
			return st.CreateUser(ctx, u)
		}
		if err != nil {
			return err
		}
		existing.Nickname = info.Nickname
		existing.Avatar = info.HeadImgURL
		u = existing
		return st.UpdateUser(ctx, existing)
	})
	if err != nil {
		return model.User{}, "", err
	}

	token, err := s.guard.IssueTokenTTL(u, s.ttl)
	if err != nil {
		return model.User{}, "", err
	}
	obs.Logger.Info("wechat_login", "user_id", u.ID)
	return u, token, nil
}
