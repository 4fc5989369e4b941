package birthday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"birthdaybot/pkg/session"
)

// Client is the typed gateway to the record-store API. Every call
// borrows a session from the manager (which relogs in when expired)
// and classifies the HTTP outcome into success, ErrNotFound,
// ConflictError or TransportError. Retry policy belongs to callers.
type Client struct {
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewClient(sessions *session.Manager, logger *slog.Logger) *Client {
	return &Client{Sessions: sessions, Logger: logger}
}

func (c *Client) Create(ctx context.Context, identity string, b Birthday) (*Birthday, error) {
	resp, err := c.do(ctx, identity, http.MethodPost, "/birthdays", &b)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var created Birthday
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return nil, TransportError{Err: err}
		}
		return &created, nil
	case http.StatusUnprocessableEntity:
		return nil, conflict(resp.Body)
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (c *Client) List(ctx context.Context, identity string) ([]Birthday, error) {
	resp, err := c.do(ctx, identity, http.MethodGet, "/birthdays", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var list []Birthday
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return nil, TransportError{Err: err}
		}
		return list, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (c *Client) Get(ctx context.Context, identity string, id int64) (*Birthday, error) {
	resp, err := c.do(ctx, identity, http.MethodGet, "/birthdays/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var b Birthday
		if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
			return nil, TransportError{Err: err}
		}
		return &b, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (c *Client) Update(ctx context.Context, identity string, id int64, b Birthday) error {
	resp, err := c.do(ctx, identity, http.MethodPut, "/birthdays/"+strconv.FormatInt(id, 10), &b)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return conflict(resp.Body)
	default:
		return unexpectedStatus(resp)
	}
}

func (c *Client) Delete(ctx context.Context, identity string, id int64) error {
	resp, err := c.do(ctx, identity, http.MethodDelete, "/birthdays/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return unexpectedStatus(resp)
	}
}

// ListIncoming fetches birthdays due today, tomorrow or in a week
// across all users, on the privileged session.
func (c *Client) ListIncoming(ctx context.Context) ([]Incoming, error) {
	sess, err := c.Sessions.Admin(ctx)
	if err != nil {
		return nil, TransportError{Err: err}
	}

	resp, err := sess.Do(ctx, http.MethodGet, "/admin/birthdays/incoming", nil)
	if err != nil {
		c.Logger.Error("api request failed", "method", http.MethodGet, "path", "/admin/birthdays/incoming", "error", err)
		return nil, TransportError{Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var list []Incoming
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return nil, TransportError{Err: err}
		}
		return list, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, unexpectedStatus(resp)
	}
}

func (c *Client) do(ctx context.Context, identity, method, path string, body *Birthday) (*http.Response, error) {
	sess, err := c.Sessions.Session(ctx, identity)
	if err != nil {
		return nil, TransportError{Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, TransportError{Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := sess.Do(ctx, method, path, reader)
	if err != nil {
		c.Logger.Error("api request failed", "method", method, "path", path, "error", err)
		return nil, TransportError{Err: err}
	}
	return resp, nil
}

func conflict(body io.Reader) error {
	var payload struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return TransportError{Err: err}
	}
	if payload.Field != "name" && payload.Field != "date" {
		return TransportError{Err: fmt.Errorf("unknown conflict field %q", payload.Field)}
	}
	return ConflictError{Field: payload.Field}
}

func unexpectedStatus(resp *http.Response) error {
	io.Copy(io.Discard, resp.Body)
	return TransportError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
}
