// Package api is the client side of the moodjournal REST interface.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
)

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// HTTPClient exposes the underlying client, e.g. for archive downloads.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Login is the successful /api/login result. Key is the raw journal key.
type Login struct {
	Token string
	Key   []byte
}

type Entry struct {
	ID              string    `json:"id"`
	EncryptedText   string    `json:"encryptedText"`
	EncryptedVector string    `json:"encryptedVector"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Archive struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type credentials struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", "", nil, nil)
}

func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/signup", "", credentials{username, password}, nil)
}

func (c *Client) Login(ctx context.Context, username, password string) (*Login, error) {
	var resp struct {
		Token  string `json:"token"`
		AESKey string `json:"aesKey"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", credentials{username, password}, &resp); err != nil {
		return nil, err
	}

	key, err := base64.StdEncoding.DecodeString(resp.AESKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != common.SymmetricKeySize || resp.Token == "" {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("login response: %w", common.ErrInvalidKeySize)
	}
	return &Login{Token: resp.Token, Key: key}, nil
}

func (c *Client) Profile(ctx context.Context, token string) (string, error) {
	var resp struct {
		UserName string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &resp); err != nil {
		return "", err
	}
	return resp.UserName, nil
}

func (c *Client) PostEntry(ctx context.Context, token, encryptedText, encryptedVector string) error {
	body := struct {
		EncryptedText   string `json:"encryptedText"`
		EncryptedVector string `json:"encryptedVector"`
	}{encryptedText, encryptedVector}
	return c.do(ctx, http.MethodPost, "/api/journal", token, body, nil)
}

// History returns the caller's entries, newest first.
func (c *Client) History(ctx context.Context, token string) ([]Entry, error) {
	var resp struct {
		Entries []Entry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/history", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Entries == nil {
		resp.Entries = []Entry{}
	}
	return resp.Entries, nil
}

func (c *Client) Export(ctx context.Context, token string) (*Archive, error) {
	var a Archive
	if err := c.do(ctx, http.MethodGet, "/api/history/export", token, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
