package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
)

const (
	DefaultBaseURL = "https://open.feishu.cn"

	defaultTimeout = 10 * time.Second

	// tokenExpiryMargin is subtracted from the vendor-reported token
	// lifetime so a cached token is never served right at its expiry.
	tokenExpiryMargin = 5 * time.Minute
)

// Client talks to the vendor open API. Tenant access tokens are cached
// per app id until shortly before they expire.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	baseURL   string
	userAgent string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		baseURL:   baseURL,
		userAgent: "fieldwise",
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// apiResponse is the vendor's common response envelope. A non-zero code
// means the request was rejected vendor-side.
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, domain.UpstreamError{Err: fmt.Errorf("failed to decode response: %v", err)}
	}

	if envelope.Code != 0 {
		return nil, domain.UpstreamError{Code: envelope.Code, Msg: envelope.Msg}
	}

	return envelope.Data, nil
}

// TokenResult is a tenant access token with its remaining lifetime in
// seconds.
type TokenResult struct {
	Token  string
	Expire int
}

// TenantAccessToken exchanges an app id/secret for a tenant access
// token.
func (c *Client) TenantAccessToken(ctx context.Context, appID, appSecret string) (TokenResult, error) {
	cacheKey := "token:" + appID
	if x, found := c.cache.Get(cacheKey); found {
		return x.(TokenResult), nil
	}

	payload := map[string]string{
		"app_id":     appID,
		"app_secret": appSecret,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to encode request body: %v", err)
	}

	// The token endpoint does not use the data envelope: token and
	// expiry sit next to code/msg at the top level.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(buf))
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return TokenResult{}, domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return TokenResult{}, domain.UpstreamError{Err: fmt.Errorf("failed to decode response: %v", err)}
	}
	if result.Code != 0 {
		return TokenResult{}, domain.UpstreamError{Code: result.Code, Msg: result.Msg}
	}

	token := TokenResult{Token: result.TenantAccessToken, Expire: result.Expire}

	ttl := time.Duration(result.Expire)*time.Second - tokenExpiryMargin
	if ttl > 0 {
		c.cache.Set(cacheKey, token, ttl)
	}

	return token, nil
}

func fieldsPath(appToken, tableID string) string {
	return fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/fields",
		url.PathEscape(appToken), url.PathEscape(tableID))
}

// GetField fetches a single field with its full property bag, options
// included.
func (c *Client) GetField(ctx context.Context, token, appToken, tableID, fieldID string) (*fieldwise.FieldRecord, error) {
	data, err := c.do(ctx, http.MethodGet, fieldsPath(appToken, tableID)+"/"+url.PathEscape(fieldID), token, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Field fieldwise.FieldRecord `json:"field"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, domain.UpstreamError{Err: fmt.Errorf("failed to decode field: %v", err)}
	}
	return &result.Field, nil
}

// ListFields fetches every field of the table, following the vendor's
// pagination.
func (c *Client) ListFields(ctx context.Context, token, appToken, tableID string) ([]fieldwise.FieldRecord, error) {
	fields := []fieldwise.FieldRecord{}
	pageToken := ""

	for {
		path := fieldsPath(appToken, tableID) + "?page_size=100"
		if pageToken != "" {
			path += "&page_token=" + url.QueryEscape(pageToken)
		}

		data, err := c.do(ctx, http.MethodGet, path, token, nil)
		if err != nil {
			return nil, err
		}

		var result struct {
			Items     []fieldwise.FieldRecord `json:"items"`
			HasMore   bool                    `json:"has_more"`
			PageToken string                  `json:"page_token"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, domain.UpstreamError{Err: fmt.Errorf("failed to decode field list: %v", err)}
		}

		fields = append(fields, result.Items...)
		if !result.HasMore {
			return fields, nil
		}
		pageToken = result.PageToken
	}
}

// CreateField creates a new field and returns the persisted record.
func (c *Client) CreateField(ctx context.Context, token, appToken, tableID string, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error) {
	data, err := c.do(ctx, http.MethodPost, fieldsPath(appToken, tableID), token, config)
	if err != nil {
		return nil, err
	}

	var result struct {
		Field fieldwise.FieldRecord `json:"field"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, domain.UpstreamError{Err: fmt.Errorf("failed to decode field: %v", err)}
	}
	return &result.Field, nil
}

// UpdateField overwrites a field's configuration and returns the
// persisted record.
func (c *Client) UpdateField(ctx context.Context, token, appToken, tableID, fieldID string, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error) {
	data, err := c.do(ctx, http.MethodPut, fieldsPath(appToken, tableID)+"/"+url.PathEscape(fieldID), token, config)
	if err != nil {
		return nil, err
	}

	var result struct {
		Field fieldwise.FieldRecord `json:"field"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, domain.UpstreamError{Err: fmt.Errorf("failed to decode field: %v", err)}
	}
	return &result.Field, nil
}

// DeleteField removes a field from the table.
func (c *Client) DeleteField(ctx context.Context, token, appToken, tableID, fieldID string) error {
	_, err := c.do(ctx, http.MethodDelete, fieldsPath(appToken, tableID)+"/"+url.PathEscape(fieldID), token, nil)
	return err
}

// GetWikiNodeObjToken resolves a wiki node token into the app token of
// the Bitable it hosts.
func (c *Client) GetWikiNodeObjToken(ctx context.Context, token, wikiToken string) (string, error) {
	path := "/open-apis/wiki/v2/spaces/get_node?token=" + url.QueryEscape(wikiToken)
	data, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Node struct {
			ObjToken string `json:"obj_token"`
		} `json:"node"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", domain.UpstreamError{Err: fmt.Errorf("failed to decode wiki node: %v", err)}
	}
	return result.Node.ObjToken, nil
}

// AppInfo is the vendor's table app descriptor.
type AppInfo struct {
	AppToken string `json:"app_token"`
	Name     string `json:"name"`
	Revision int64  `json:"revision"`
}

// GetAppInfo fetches the table app descriptor.
func (c *Client) GetAppInfo(ctx context.Context, token, appToken string) (AppInfo, error) {
	data, err := c.do(ctx, http.MethodGet, "/open-apis/bitable/v1/apps/"+url.PathEscape(appToken), token, nil)
	if err != nil {
		return AppInfo{}, err
	}

	var result struct {
		App AppInfo `json:"app"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return AppInfo{}, domain.UpstreamError{Err: fmt.Errorf("failed to decode app info: %v", err)}
	}
	return result.App, nil
}
