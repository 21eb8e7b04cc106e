package paperless

import (
	"context"
	"errors"
	"net/http"

	"github.com/blang/semver"
)

// ErrNoVersion indicates the server did not report its version
var ErrNoVersion = errors.New("paperless server did not report a version")

// Client is the entry point to the Paperless API. Every service shares the
// same Transport, so SetToken and ClearToken apply to all of them at once.
type Client struct {
	transport *Transport

	Documents      *DocumentsService
	Tags           *TagsService
	Correspondents *CorrespondentsService
	DocumentTypes  *DocumentTypesService
	Tasks          *TasksService
	Users          *UsersService
	Auth           *AuthService
}

// NewClient creates a new Paperless client for the instance at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	t, err := NewTransport(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return newClient(t), nil
}

func newClient(t *Transport) *Client {
	return &Client{
		transport:      t,
		Documents:      &DocumentsService{transport: t},
		Tags:           newTagsService(t),
		Correspondents: newCorrespondentsService(t),
		DocumentTypes:  newDocumentTypesService(t),
		Tasks:          &TasksService{transport: t},
		Users:          newUsersService(t),
		Auth:           &AuthService{transport: t},
	}
}

// Transport returns the transport shared by every service
func (c *Client) Transport() *Transport {
	return c.transport
}

// SetToken replaces the token used by every service.
func (c *Client) SetToken(token string, opts ...TokenOption) {
	c.transport.SetToken(token, opts...)
}

// ClearToken removes the token from every service.
func (c *Client) ClearToken() {
	c.transport.ClearToken()
}

// TestConnection verifies the client can reach Paperless and is authorized
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.apiRoot(ctx)
	return err
}

// ServerVersion returns the Paperless version from the X-Version header of
// the API root.
func (c *Client) ServerVersion(ctx context.Context) (semver.Version, error) {
	header, err := c.apiRoot(ctx)
	if err != nil {
		return semver.Version{}, err
	}
	raw := header.Get("X-Version")
	if raw == "" {
		return semver.Version{}, ErrNoVersion
	}
	return semver.ParseTolerant(raw)
}

// APIVersion returns the REST API version from the X-Api-Version header of
// the API root.
func (c *Client) APIVersion(ctx context.Context) (string, error) {
	header, err := c.apiRoot(ctx)
	if err != nil {
		return "", err
	}
	v := header.Get("X-Api-Version")
	if v == "" {
		return "", ErrNoVersion
	}
	return v, nil
}

func (c *Client) apiRoot(ctx context.Context) (http.Header, error) {
	resp, err := c.transport.Do(ctx, Request{Method: http.MethodGet, URL: "/api/"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return resp.Header, nil
}
