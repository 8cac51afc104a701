package adsgram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

const requestTimeout = 60 * time.Second

// Client fetches rewarded-video descriptors and fires tracking pings.
// Descriptor requests are signed with fields lifted from the session's
// web-session blob.
type Client struct {
	baseURL     string
	placementID string
	userAgent   string
	http        *resty.Client

	signature       string
	dataCheckString string
}

var _ ports.AdPlatform = (*Client)(nil)

func New(baseURL, placementID, userAgent, proxyURL string) *Client {
	c := &Client{
		baseURL:     baseURL,
		placementID: placementID,
		userAgent:   userAgent,
	}
	c.http = c.newHTTP(proxyURL)
	return c
}

func (c *Client) newHTTP(proxyURL string) *resty.Client {
	client := resty.New().
		SetTimeout(requestTimeout).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", c.userAgent)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return client
}

func (c *Client) Rebind(proxyURL string) error {
	c.http = c.newHTTP(proxyURL)
	return nil
}

// SetInitData extracts the signed descriptor-request parameters from
// the opaque web-session blob. Must be called after each
// re-authentication.
func (c *Client) SetInitData(initData string) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return
	}
	c.signature = values.Get("signature")
	c.dataCheckString = values.Get("hash")
}

type descriptorResponse struct {
	BannerType string `json:"bannerType"`
	Banner     struct {
		Trackings []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"trackings"`
		BannerAssets []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"bannerAssets"`
	} `json:"banner"`
}

func (c *Client) FetchAd(ctx context.Context, telegramID int64) (domain.AdView, error) {
	var body descriptorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"blockId":           c.placementID,
			"tg_id":             fmt.Sprint(telegramID),
			"tg_platform":       "android",
			"platform":          "MacIntel",
			"language":          "en",
			"top_domain":        "bitappprod.com",
			"signature":         c.signature,
			"data_check_string": c.dataCheckString,
			"request_id":        fmt.Sprint(time.Now().UnixMilli()),
		}).
		SetResult(&body).
		Get(c.baseURL + "/adv")
	if err != nil {
		return domain.AdView{}, fmt.Errorf("ad descriptor request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.AdView{}, &domain.StatusError{Code: resp.StatusCode(), URL: c.baseURL + "/adv"}
	}

	view := domain.AdView{Kind: body.BannerType}
	for _, tracking := range body.Banner.Trackings {
		switch tracking.Name {
		case "render":
			view.RenderURL = tracking.Value
		case "show":
			view.ShowURL = tracking.Value
		case "reward":
			view.RewardURL = tracking.Value
		}
	}
	for _, asset := range body.Banner.BannerAssets {
		if asset.Name == "title" {
			view.Title = asset.Value
			break
		}
	}

	if !view.Trackable() {
		return domain.AdView{}, fmt.Errorf("descriptor missing tracking urls: %w", domain.ErrAdUnavailable)
	}
	return view, nil
}

func (c *Client) Track(ctx context.Context, trackingURL string) error {
	resp, err := c.http.R().SetContext(ctx).Get(trackingURL)
	if err != nil {
		return fmt.Errorf("tracking ping: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return &domain.StatusError{Code: resp.StatusCode(), URL: trackingURL}
	}
	return nil
}
