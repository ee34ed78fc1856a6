// Package ipfs pins blobs through the Pinata pinning API and reads them back from a gateway.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/driver"
	"github.com/bountyboard/bounty-backend/types"
)

const (
	DefaultAPIURL     = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs"

	pathPinFile = "/pinning/pinFileToIPFS"
	pathPinJSON = "/pinning/pinJSONToIPFS"
)

var ErrNoCredentials = errors.New("pinata jwt or api key and secret are required")

type Config struct {
	JWT        string
	APIKey     string
	APISecret  string
	APIURL     string
	GatewayURL string
	Timeout    time.Duration
	Logger     *zap.Logger
}

type Client struct {
	cfg    Config
	client http.Client
	lgr    *zap.Logger
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type metadata struct {
	Name string `json:"name"`
}

func New(cfg Config) (*Client, error) {
	if cfg.JWT == "" && (cfg.APIKey == "" || cfg.APISecret == "") {
		return nil, ErrNoCredentials
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	lgr := cfg.Logger
	if lgr == nil {
		lgr = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: http.Client{Timeout: cfg.Timeout},
		lgr:    lgr.With(zap.String("driver", "ipfs")),
	}, nil
}

func (c *Client) UploadFile(ctx context.Context, name string, data []byte) (*driver.Upload, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	meta, err := json.Marshal(metadata{Name: name})
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return c.pin(ctx, pathPinFile, w.FormDataContentType(), body)
}

func (c *Client) UploadJSON(ctx context.Context, name string, v interface{}) (*driver.Upload, error) {
	body := &bytes.Buffer{}
	req := struct {
		Content  interface{} `json:"pinataContent"`
		Metadata metadata    `json:"pinataMetadata"`
	}{Content: v, Metadata: metadata{Name: name}}
	if err := json.NewEncoder(body).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to encode request data: %w", err)
	}
	return c.pin(ctx, pathPinJSON, "application/json", body)
}

func (c *Client) pin(ctx context.Context, path, contentType string, body io.Reader) (*driver.Upload, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.APIURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	r.Header.Set("Content-Type", contentType)
	c.authorize(r)

	res, err := c.client.Do(r)
	if err != nil {
		return nil, pinErr(fmt.Errorf("failed to make request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		c.lgr.Warn("Pin request failed", zap.String("path", path), zap.Int("status", res.StatusCode))
		return nil, pinErr(fmt.Errorf("status code is %d, error: %s", res.StatusCode, strings.TrimSpace(string(msg))))
	}
	var pr pinResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return nil, pinErr(fmt.Errorf("failed to decode response: %w", err))
	}
	if pr.IpfsHash == "" {
		return nil, pinErr(errors.New("pin response has no content id"))
	}
	return &driver.Upload{ContentID: pr.IpfsHash, URL: c.URL(pr.IpfsHash)}, nil
}

func pinErr(err error) error {
	return types.ErrExternalService.With(err, "pinning service request failed")
}

func (c *Client) authorize(r *http.Request) {
	if c.cfg.JWT != "" {
		r.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
		return
	}
	r.Header.Set("pinata_api_key", c.cfg.APIKey)
	r.Header.Set("pinata_secret_api_key", c.cfg.APISecret)
}

func (c *Client) Fetch(ctx context.Context, contentID string) ([]byte, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(contentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	res, err := c.client.Do(r)
	if err != nil {
		return nil, fetchErr(fmt.Errorf("failed to make request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, driver.ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fetchErr(fmt.Errorf("status code is %d", res.StatusCode))
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fetchErr(err)
	}
	return data, nil
}

func fetchErr(err error) error {
	return types.ErrExternalService.With(err, "gateway fetch failed")
}

func (c *Client) URL(contentID string) string {
	return driver.GatewayURL(c.cfg.GatewayURL, contentID)
}
