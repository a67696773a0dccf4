package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

// Direction is the sense of a level adjustment.
type Direction string

const (
	LevelUp   Direction = "up"
	LevelDown Direction = "down"
)

// FetchParams selects cards for a single-deck session. Seed and Limit are
// omitted from the request when nil.
type FetchParams struct {
	DeckID string
	Mode   models.StudyMode
	Seed   *int64
	Limit  *int
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends the token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cardsResp struct {
	Cards []models.StudyCard `json:"cards"`
}

type levelResp struct {
	ActiveLevel *int `json:"active_level"`
}

func (c *Client) FetchCards(ctx context.Context, p FetchParams) ([]models.StudyCard, error) {
	log := logger.FromContext(ctx).WithPrefix("authority").WithFields(map[string]any{
		"deck_id": p.DeckID,
		"mode":    p.Mode,
	})

	q := url.Values{}
	q.Set("mode", string(p.Mode))
	if p.Seed != nil {
		q.Set("seed", strconv.FormatInt(*p.Seed, 10))
	}
	if p.Limit != nil {
		q.Set("limit", strconv.Itoa(*p.Limit))
	}
	endpoint := fmt.Sprintf("%s/decks/%s/study-cards?%s", c.baseURL, url.PathEscape(p.DeckID), q.Encode())

	var out cardsResp
	if err := c.do(ctx, log, "fetch cards", http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	log.Info("fetched %d cards", len(out.Cards))
	return out.Cards, nil
}

func (c *Client) FetchDueCards(ctx context.Context, limit int) ([]models.StudyCard, error) {
	log := logger.FromContext(ctx).WithPrefix("authority").WithField("limit", limit)
	endpoint := fmt.Sprintf("%s/reviews/due?limit=%d", c.baseURL, limit)

	var out cardsResp
	if err := c.do(ctx, log, "fetch due cards", http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	log.Info("fetched %d due cards", len(out.Cards))
	return out.Cards, nil
}

func (c *Client) SubmitRating(ctx context.Context, cardID string, rating models.Rating) error {
	log := logger.FromContext(ctx).WithPrefix("authority").WithFields(map[string]any{
		"card_id": cardID,
		"rating":  rating,
	})
	endpoint := fmt.Sprintf("%s/cards/%s/review", c.baseURL, url.PathEscape(cardID))
	return c.do(ctx, log, "submit rating", http.MethodPost, endpoint, map[string]string{"rating": string(rating)}, nil)
}

func (c *Client) AdjustLevel(ctx context.Context, cardID string, dir Direction) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("authority").WithFields(map[string]any{
		"card_id":   cardID,
		"direction": dir,
	})
	var path string
	switch dir {
	case LevelUp:
		path = "level-up"
	case LevelDown:
		path = "level-down"
	default:
		return 0, fmt.Errorf("unknown level direction %q", dir)
	}
	endpoint := fmt.Sprintf("%s/cards/%s/%s", c.baseURL, url.PathEscape(cardID), path)

	var out levelResp
	if err := c.do(ctx, log, "adjust level", http.MethodPost, endpoint, nil, &out); err != nil {
		return 0, err
	}
	if out.ActiveLevel == nil {
		log.Error("level response missing active_level")
		return 0, fmt.Errorf("adjust level: response missing active_level")
	}
	log.Debug("card now at level %d", *out.ActiveLevel)
	return *out.ActiveLevel, nil
}

func (c *Client) DeleteProgress(ctx context.Context, cardID string) error {
	log := logger.FromContext(ctx).WithPrefix("authority").WithField("card_id", cardID)
	endpoint := fmt.Sprintf("%s/cards/%s/progress", c.baseURL, url.PathEscape(cardID))
	return c.do(ctx, log, "delete progress", http.MethodDelete, endpoint, nil, nil)
}

// do performs one JSON round trip. out may be nil when the body is ignored.
func (c *Client) do(ctx context.Context, log *logger.Logger, op, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.Debug("%s %s", method, endpoint)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("%s request failed: %v", op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	log.Debug("%s response received in %v, status=%d", op, time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warn("%s failed: status=%d, body=%s", op, resp.StatusCode, string(excerpt))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(excerpt)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error("failed to decode %s response: %v", op, err)
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
