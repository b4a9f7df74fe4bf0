package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/makew0rld/merkvault/merkle"
)

// ErrProofRejected is returned by Download when the served proof does not
// lead to the expected root.
var ErrProofRejected = errors.New("merkle proof does not match root")

// StatusError is a non-200 response from the server.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Msg)
}

type Client struct {
	url        string
	client     http.Client
	retries    uint64
	newBackOff func() backoff.BackOff
}

type ClientOption func(*Client)

// WithBackOff replaces the exponential backoff used between retries.
func WithBackOff(f func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = f }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient returns a client for the server at rawURL. Failed requests are
// retried up to retries times, unless the server rejected them with a 4xx.
func NewClient(rawURL string, retries uint64, opts ...ClientOption) *Client {
	c := &Client{
		url:     strings.TrimRight(rawURL, "/"),
		retries: retries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload stores content on the server under name.
func (c *Client) Upload(ctx context.Context, name string, content []byte) error {
	bz, err := json.Marshal(UploadRequest{
		Filename: name,
		Content:  base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, UploadRoutePath, bz, new(UploadResponse))
}

// File fetches a file and its proof, without checking the proof.
func (c *Client) File(ctx context.Context, name string) (*FileResponse, error) {
	resp := new(FileResponse)
	if err := c.do(ctx, http.MethodGet, fileURL(url.PathEscape(name)), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Download fetches a file and checks its proof against root. The response is
// only returned if the proof holds.
func (c *Client) Download(ctx context.Context, name string, root merkle.Digest, alg merkle.Algorithm) (*FileResponse, error) {
	resp, err := c.File(ctx, name)
	if err != nil {
		return nil, err
	}
	if resp.Filename != name {
		return nil, fmt.Errorf("asked for %s, server sent %s", name, resp.Filename)
	}
	if !merkle.Verify(resp.MerkleProof, root, resp.Content, alg) {
		return nil, ErrProofRejected
	}
	return resp, nil
}

// Root returns the server's current root.
func (c *Client) Root(ctx context.Context) (*RootResponse, error) {
	resp := new(RootResponse)
	if err := c.do(ctx, http.MethodGet, RootRoutePath, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, ptr any) error {
	op := func() error {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.url+path, r)
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set(ContentType, ApplicationJSON)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		return c.unmarshal(resp, ptr)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.retries), ctx)
	return backoff.Retry(op, b)
}

func (c *Client) unmarshal(resp *http.Response, ptr any) error {
	defer resp.Body.Close()
	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		e := new(errorResponse)
		msg := strings.TrimSpace(string(bz))
		if json.Unmarshal(bz, e) == nil && e.Error != "" {
			msg = e.Error
		}
		serr := &StatusError{Code: resp.StatusCode, Msg: msg}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(serr)
		}
		return serr
	}
	if err := json.Unmarshal(bz, ptr); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
