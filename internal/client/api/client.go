// Package api is a typed client for the FloraFacts HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atinyakov/FloraFacts/internal/models"
)

// Client calls the API on behalf of one identity. The zero token is the
// anonymous caller.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a Client for baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Identity returns the subject of the bearer token without verifying its
// signature; the server does that. It is empty for anonymous clients.
func (c *Client) Identity() string {
	if c.token == "" {
		return ""
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

// Identify sends dataURL for identification and returns the model's raw reply.
func (c *Client) Identify(ctx context.Context, dataURL string) (string, error) {
	var resp struct {
		ResponseText string `json:"responseText"`
	}
	body := map[string]string{"base64Image": dataURL}
	if _, err := c.do(ctx, http.MethodPost, "/api/identify", body, &resp, true); err != nil {
		return "", err
	}
	return resp.ResponseText, nil
}

// ListGallery returns the caller's gallery, newest first.
func (c *Client) ListGallery(ctx context.Context) ([]models.GalleryItem, error) {
	items := []models.GalleryItem{}
	if _, err := c.do(ctx, http.MethodGet, "/api/gallery", nil, &items, false); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToGallery saves a result. It reports false when the server dropped the
// item as a duplicate or the caller is anonymous.
func (c *Client) AddToGallery(ctx context.Context, image string, info models.PlantInfo) (*models.GalleryItem, bool, error) {
	var raw json.RawMessage
	body := map[string]any{"image": image, "plantInfo": info}
	status, err := c.do(ctx, http.MethodPost, "/api/gallery", body, &raw, false)
	if err != nil {
		return nil, false, err
	}
	if status != http.StatusCreated {
		return nil, false, nil
	}
	var item models.GalleryItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, false, fmt.Errorf("decode gallery item: %w", err)
	}
	return &item, true, nil
}

// RemoveFromGallery deletes one item.
func (c *Client) RemoveFromGallery(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/gallery/"+url.PathEscape(id), nil, nil, false)
	return err
}

// ClearGallery deletes every item of the caller.
func (c *Client) ClearGallery(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/gallery", nil, nil, false)
	return err
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if _, err := c.do(ctx, http.MethodGet, "/api/profile", nil, &p, false); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetAvatar changes the caller's avatar.
func (c *Client) SetAvatar(ctx context.Context, avatar string) (*models.Profile, error) {
	var p models.Profile
	if _, err := c.do(ctx, http.MethodPut, "/api/profile", map[string]string{"avatar": avatar}, &p, false); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteAccount removes everything the server stores for the caller.
func (c *Client) DeleteAccount(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/account", nil, nil, false)
	return err
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp.StatusCode, "", false)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, identifyCall bool) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, newStatusError(resp.StatusCode, errorMessage(resp.Body), identifyCall)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// errorMessage reads {"error": "..."} bodies, falling back to plain text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
