package bitapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

const (
	requestTimeout = 60 * time.Second

	clanSearchLimit = 20
	referralsLimit  = 20
)

// Client talks to the rewards backend on behalf of a single account.
// It owns the bearer token and the proxied transport; Rebind replaces
// the transport wholesale after a proxy failover.
type Client struct {
	baseURL string
	account domain.Account
	refID   string
	http    *resty.Client
	token   string
}

var _ ports.Backend = (*Client)(nil)

func New(baseURL string, account domain.Account, refID string) *Client {
	c := &Client{
		baseURL: baseURL,
		account: account,
		refID:   refID,
	}
	c.http = c.newHTTP(account.Proxy)
	return c
}

func (c *Client) newHTTP(proxyURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("Origin", "https://bitappprod.com").
		SetHeader("User-Agent", c.account.UserAgent)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return client
}

func (c *Client) Rebind(proxyURL string) error {
	c.http = c.newHTTP(proxyURL)
	return nil
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

// deviceRequest adds the device identity headers the check-in and
// mini-game endpoints validate.
func (c *Client) deviceRequest(ctx context.Context) *resty.Request {
	platform := c.account.DevicePlatform
	if platform == "" {
		platform = "ios"
	}
	return c.request(ctx).
		SetHeader("X-Device-Platform", platform).
		SetHeader("X-Device-Model", c.account.UserAgent)
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) Authenticate(ctx context.Context, initData string) (string, error) {
	payload := map[string]string{"init_data": initData}
	if c.refID != "" {
		payload["ref_id"] = c.refID
	}

	var body authResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&body).
		Post("/auth/token")
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("auth failed with status %d: %w", resp.StatusCode(), domain.ErrInvalidSession)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("auth response missing access token: %w", domain.ErrInvalidSession)
	}
	return body.AccessToken, nil
}

type profileResponse struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	ClanID     *int64 `json:"clan_id"`
	Balance    int64  `json:"balance"`
	Tickets    int    `json:"tickets"`
}

func (c *Client) Profile(ctx context.Context) (domain.Profile, error) {
	var body profileResponse
	resp, err := c.request(ctx).SetResult(&body).Get("/users/me")
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("profile fetch failed with status %d: %w", resp.StatusCode(), domain.ErrInvalidSession)
	}
	return domain.Profile{
		TelegramID: body.TelegramID,
		Username:   body.Username,
		ClanID:     body.ClanID,
		Balance:    body.Balance,
		Tickets:    body.Tickets,
	}, nil
}

type clanResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (c *Client) SearchClans(ctx context.Context, query string, limit, offset int) ([]domain.Clan, error) {
	if limit <= 0 {
		limit = clanSearchLimit
	}
	var body []clanResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"limit":  fmt.Sprint(limit),
			"offset": fmt.Sprint(offset),
			"query":  query,
		}).
		SetResult(&body).
		Get("/clans")
	if err != nil {
		return nil, fmt.Errorf("clan search request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("clan search failed with status %d", resp.StatusCode())
	}
	clans := make([]domain.Clan, 0, len(body))
	for _, entry := range body {
		clans = append(clans, domain.Clan{ID: entry.ID, Name: entry.Name})
	}
	return clans, nil
}

func (c *Client) ClanInfo(ctx context.Context, id int64) (domain.Clan, error) {
	var body clanResponse
	resp, err := c.request(ctx).SetResult(&body).Get(fmt.Sprintf("/clans/%d", id))
	if err != nil {
		return domain.Clan{}, fmt.Errorf("clan info request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.Clan{}, fmt.Errorf("clan info failed with status %d", resp.StatusCode())
	}
	return domain.Clan{ID: body.ID, Name: body.Name}, nil
}

func (c *Client) JoinClan(ctx context.Context, id int64) error {
	resp, err := c.request(ctx).Post(fmt.Sprintf("/clans/%d/join", id))
	if err != nil {
		return fmt.Errorf("clan join request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("clan join failed with status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) LeaveClan(ctx context.Context) error {
	resp, err := c.request(ctx).Delete("/clans/leave")
	if err != nil {
		return fmt.Errorf("clan leave request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("clan leave failed with status %d", resp.StatusCode())
	}
	return nil
}

type speedtestResponse struct {
	NextAvailable *string `json:"next_available"`
}

func (c *Client) Speedtest(ctx context.Context) (*time.Time, error) {
	var body speedtestResponse
	resp, err := c.request(ctx).SetResult(&body).Get("/speedtest")
	if err != nil {
		return nil, fmt.Errorf("speedtest check request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("speedtest check failed with status %d: %w", resp.StatusCode(), domain.ErrInvalidSession)
	}
	if body.NextAvailable == nil || *body.NextAvailable == "" {
		return nil, nil
	}
	next, err := time.Parse(time.RFC3339, *body.NextAvailable)
	if err != nil {
		return nil, fmt.Errorf("parse next_available %q: %w", *body.NextAvailable, err)
	}
	return &next, nil
}

type speedtestRewardResponse struct {
	Amount int64 `json:"amount"`
}

func (c *Client) SubmitSpeedtest(ctx context.Context, download, upload int) (int64, error) {
	var body speedtestRewardResponse
	resp, err := c.request(ctx).
		SetBody(map[string]int{"download": download, "upload": upload}).
		SetResult(&body).
		Post("/speedtest")
	if err != nil {
		return 0, fmt.Errorf("speedtest submit request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("speedtest submit failed with status %d: %w", resp.StatusCode(), domain.ErrInvalidSession)
	}
	return body.Amount, nil
}

type taskResponse struct {
	ID             int64  `json:"id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Reward         int64  `json:"reward"`
	IsCompleted    bool   `json:"is_completed"`
	AdditionalData struct {
		ReferralsCount int `json:"referrals_count"`
		Views          int `json:"views"`
	} `json:"additional_data"`
}

func (t taskResponse) toDomain() domain.Task {
	return domain.Task{
		ID:                t.ID,
		Kind:              domain.TaskKind(t.Type),
		Title:             t.Title,
		Reward:            t.Reward,
		Completed:         t.IsCompleted,
		ReferralsRequired: t.AdditionalData.ReferralsCount,
		ViewsNeeded:       t.AdditionalData.Views,
	}
}

func (c *Client) Tasks(ctx context.Context) ([]domain.Task, error) {
	var body []taskResponse
	resp, err := c.request(ctx).SetResult(&body).Get("/tasks")
	if err != nil {
		return nil, fmt.Errorf("task list request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("task list failed with status %d", resp.StatusCode())
	}
	tasks := make([]domain.Task, 0, len(body))
	for _, entry := range body {
		tasks = append(tasks, entry.toDomain())
	}
	return tasks, nil
}

func (c *Client) Task(ctx context.Context, id int64) (domain.Task, error) {
	var body taskResponse
	resp, err := c.request(ctx).SetResult(&body).Get(fmt.Sprintf("/tasks/%d", id))
	if err != nil {
		return domain.Task{}, fmt.Errorf("task detail request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.Task{}, fmt.Errorf("task detail failed with status %d", resp.StatusCode())
	}
	return body.toDomain(), nil
}

func (c *Client) ProcessTask(ctx context.Context, id int64) error {
	resp, err := c.request(ctx).Post(fmt.Sprintf("/tasks/%d/process", id))
	if err != nil {
		return fmt.Errorf("task process request: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("task process failed with status %d", resp.StatusCode())
	}
}

type referralsResponse struct {
	Total int `json:"total"`
}

func (c *Client) ReferralCount(ctx context.Context) (int, error) {
	var body referralsResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"limit":  fmt.Sprint(referralsLimit),
			"offset": "0",
		}).
		SetResult(&body).
		Get("/users/me/referrals")
	if err != nil {
		return 0, fmt.Errorf("referrals request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("referrals fetch failed with status %d", resp.StatusCode())
	}
	return body.Total, nil
}

type checkInResponse struct {
	NextAvailableAt *string `json:"next_available_at"`
}

func (c *Client) CheckInAvailable(ctx context.Context) (bool, error) {
	var body checkInResponse
	resp, err := c.deviceRequest(ctx).SetResult(&body).Get("/users/me/check-ins/available")
	if err != nil {
		return false, fmt.Errorf("check-in availability request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("check-in availability failed with status %d", resp.StatusCode())
	}
	return body.NextAvailableAt == nil || *body.NextAvailableAt == "", nil
}

func (c *Client) CheckIn(ctx context.Context) error {
	resp, err := c.deviceRequest(ctx).Post("/users/me/check-ins")
	if err != nil {
		return fmt.Errorf("check-in request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("check-in failed with status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) CreateVoucher(ctx context.Context, amount int64) (domain.Voucher, error) {
	var body domain.Voucher
	resp, err := c.request(ctx).
		SetBody(map[string]int64{"amount": amount}).
		SetResult(&body).
		Post("/users/me/vouchers")
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("voucher create request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return domain.Voucher{}, fmt.Errorf("voucher create failed with status %d", resp.StatusCode())
	}
	body.Amount = amount
	return body, nil
}

type miniGameResponse struct {
	Amount int64 `json:"amount"`
}

// millisecond precision with a literal Z suffix, as the backend expects
const miniGameTimeLayout = "2006-01-02T15:04:05.000Z"

func (c *Client) SubmitMiniGame(ctx context.Context, score int, startAt, endAt time.Time) (int64, error) {
	var body miniGameResponse
	resp, err := c.deviceRequest(ctx).
		SetHeader("Referer", "https://bitappprod.com/durov-jump").
		SetBody(map[string]any{
			"score":    score,
			"start_at": startAt.UTC().Format(miniGameTimeLayout),
			"end_at":   endAt.UTC().Format(miniGameTimeLayout),
		}).
		SetResult(&body).
		Post("/durov-jump")
	if err != nil {
		return 0, fmt.Errorf("mini-game submit request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("mini-game submit failed with status %d", resp.StatusCode())
	}
	return body.Amount, nil
}
