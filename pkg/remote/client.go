// Package remote serves a presence index over HTTP and queries one.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/odvcencio/got-lfs/pkg/presence"
)

var log = logging.Logger("lfs/remote")

// ClientOptions configures a Client.
type ClientOptions struct {
	HTTPClient *http.Client
	// Token is sent as a bearer token when set.
	Token string
	// MaxAttempts bounds tries per request. Zero means 3.
	MaxAttempts uint
	// InitialBackoff is the first retry delay. Zero means 500ms.
	InitialBackoff time.Duration
}

// Client queries a remote presence index.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	policy     retryPolicy
}

var _ presence.Recorder = (*Client)(nil)

// NewClient returns a client for the presence server at baseURL.
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse presence url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("presence url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("presence url %q: missing host", baseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	policy := retryPolicy{maxAttempts: opts.MaxAttempts, initialBackoff: opts.InitialBackoff}
	if policy.maxAttempts == 0 {
		policy.maxAttempts = defaultMaxAttempts
	}
	if policy.initialBackoff <= 0 {
		policy.initialBackoff = defaultInitialBackoff
	}
	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: httpClient,
		token:      opts.Token,
		policy:     policy,
	}, nil
}

// ExistsBatch implements presence.Index. Batches larger than MaxBatchOIDs are
// split into several requests.
func (c *Client) ExistsBatch(ctx context.Context, store presence.StoreID, oids []string) (presence.Set, error) {
	present := make(presence.Set)
	for start := 0; start < len(oids); start += MaxBatchOIDs {
		chunk := oids[start:min(start+MaxBatchOIDs, len(oids))]
		var resp BatchResponse
		if err := c.postJSON(ctx, BatchPath, BatchRequest{Store: string(store), OIDs: chunk}, &resp); err != nil {
			return nil, fmt.Errorf("presence batch %s: %w", store, err)
		}
		requested := presence.NewSet(chunk...)
		for _, oid := range resp.Present {
			if requested.Has(oid) {
				present[oid] = struct{}{}
			}
		}
	}
	return present, nil
}

// AddObjects implements presence.Recorder.
func (c *Client) AddObjects(ctx context.Context, store presence.StoreID, objects []presence.Object) error {
	req := ObjectsRequest{Store: string(store), Objects: make([]ObjectRecord, 0, len(objects))}
	for _, o := range objects {
		req.Objects = append(req.Objects, ObjectRecord{OID: o.OID, Size: o.Size})
	}
	if err := c.postJSON(ctx, ObjectsPath, req, nil); err != nil {
		return fmt.Errorf("add objects %s: %w", store, err)
	}
	return nil
}

// ListObjects implements presence.Recorder.
func (c *Client) ListObjects(ctx context.Context, store presence.StoreID) ([]presence.Object, error) {
	endpoint := c.baseURL + ObjectsPath + "?" + url.Values{"store": {string(store)}}.Encode()
	resp, err := retryDo(ctx, c.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		c.applyAuth(req)
		return req, nil
	}, c.policy)
	if err != nil {
		return nil, fmt.Errorf("list objects %s: %w", store, err)
	}
	var out ObjectsResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("list objects %s: %w", store, err)
	}
	objects := make([]presence.Object, 0, len(out.Objects))
	for _, o := range out.Objects {
		objects = append(objects, presence.Object{OID: o.OID, Size: o.Size})
	}
	return objects, nil
}

// postJSON sends v as a JSON body, zstd compressed when large, and decodes
// the response into out when out is non-nil.
func (c *Client) postJSON(ctx context.Context, path string, v any, out any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	encoding := ""
	if len(body) >= compressMinBytes {
		compressed, err := compressZstd(body)
		if err != nil {
			return fmt.Errorf("compress request: %w", err)
		}
		body = compressed
		encoding = "zstd"
	}

	endpoint := c.baseURL + path
	resp, err := retryDo(ctx, c.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if encoding != "" {
			req.Header.Set("Content-Encoding", encoding)
		}
		c.applyAuth(req)
		return req, nil
	}, c.policy)
	if err != nil {
		return err
	}
	if out == nil {
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			return tryParseRemoteError(resp.StatusCode, data)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	return decodeResponse(resp, out)
}

// decodeResponse reads a bounded JSON body and closes it.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tryParseRemoteError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) applyAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
