// Package clubapi talks to the upstream club-catalog API. It is the
// trust boundary for catalog data: responses are decoded loosely,
// normalized into domain types, and sanitized before they leave this
// package. Upstream failures never propagate to callers; they log and
// collapse to empty results.
package clubapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"cellardoor/internal/domain"
	applog "cellardoor/internal/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrTimeout marks an upstream call that exceeded the request deadline.
var ErrTimeout = errors.New("clubapi: request timed out")

// DefaultTimeout bounds every catalog call unless configured otherwise.
const DefaultTimeout = 5 * time.Second

type Client struct {
	base    string
	shop    string
	timeout time.Duration
	http    *http.Client
}

func NewClient(base, shop string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		shop:    shop,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListClubs fetches the club listing. Failures of any kind (network,
// timeout, malformed body) return an empty slice. Individual malformed
// entries are dropped; the rest of the list survives. Results are
// sorted by position, entries without one last, original order kept on
// ties.
func (c *Client) ListClubs(ctx context.Context) []domain.Club {
	var payload any
	if err := c.getJSON(ctx, "/clubs/basic-details", &payload); err != nil {
		c.logFetchErr("clubapi.list", err)
		return []domain.Club{}
	}
	arr, ok := payload.([]any)
	if !ok {
		applog.Warn(nil, "clubapi.list.malformed", map[string]any{"got": fmt.Sprintf("%T", payload)})
		return []domain.Club{}
	}
	clubs := make([]domain.Club, 0, len(arr))
	for i, raw := range arr {
		club, err := normalizeClub(raw)
		if err != nil {
			applog.Warn(nil, "clubapi.list.entry.dropped", map[string]any{"index": i, "reason": err.Error()})
			continue
		}
		clubs = append(clubs, club)
	}
	sortClubs(clubs)
	return clubs
}

// GetClubDetails fetches one club with products and restrictions.
// Returns nil on any upstream failure or malformed body.
func (c *Client) GetClubDetails(ctx context.Context, clubID string) *domain.ClubDetails {
	var payload any
	if err := c.getJSON(ctx, "/club/"+url.PathEscape(clubID)+"/details", &payload); err != nil {
		c.logFetchErr("clubapi.details", err)
		return nil
	}
	details, err := normalizeDetails(payload)
	if err != nil {
		applog.Warn(nil, "clubapi.details.malformed", map[string]any{"club": clubID, "reason": err.Error()})
		return nil
	}
	return details
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + path + "?shop=" + url.QueryEscape(c.shop)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) logFetchErr(action string, err error) {
	kind := "upstream"
	if errors.Is(err, ErrTimeout) {
		kind = "timeout"
	}
	applog.Error(nil, action, err, map[string]any{"kind": kind, "shop": c.shop})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
