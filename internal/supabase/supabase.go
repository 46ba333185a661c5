// Package supabase provides a REST client upserting fuel prices into a Supabase (PostgREST) table.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/models"
	"github.com/rodacerto/fuel-price-updater/internal/store"
)

const (
	// StoreName is the identifier for this destination.
	StoreName = "supabase"
	// DefaultTable is the table prices are written to.
	DefaultTable = "fuel_prices"
	// restPath is the PostgREST prefix of a Supabase project.
	restPath = "/rest/v1/"
	// preferMergeDuplicates turns the insert into an upsert.
	preferMergeDuplicates = "resolution=merge-duplicates"
)

// Config configures the client.
type Config struct {
	// BaseURL is the project URL, e.g. https://xyz.supabase.co.
	BaseURL string
	// APIKey is sent as apikey and as bearer token.
	APIKey string
	// Table defaults to DefaultTable.
	Table string
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// SendObservedAt adds the collection time as observed_at to every row.
	SendObservedAt bool
}

// row is the JSON shape of one record.
type row struct {
	StateCode  string      `json:"state_code"`
	FuelType   string      `json:"fuel_type"`
	Price      json.Number `json:"price"`
	UpdatedAt  string      `json:"updated_at"`
	ObservedAt string      `json:"observed_at,omitempty"`
}

// Client upserts prices through the REST API.
type Client struct {
	client   *http.Client
	logger   zerolog.Logger
	endpoint string
	apiKey   string
	observed bool
	now      func() time.Time
}

// New creates a new Supabase client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("supabase: base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase: api key is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:   logger.With().Str("component", "supabase").Logger(),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + restPath + cfg.Table,
		apiKey:   cfg.APIKey,
		observed: cfg.SendObservedAt,
		now:      time.Now,
	}, nil
}

// Name returns the destination identifier.
func (c *Client) Name() string {
	return StoreName
}

// Upsert posts all observations as one JSON array. updated_at is computed per record at
// call time. Only 200 and 201 count as success; any other status yields a *store.StatusError
// carrying the response body.
func (c *Client) Upsert(ctx context.Context, observations []models.PriceObservation) (result models.UpsertResult, err error) {
	result = models.UpsertResult{
		Store:     StoreName,
		StartedAt: c.now(),
		Records:   make([]models.PriceRecord, 0, len(observations)),
	}
	defer func() {
		result.FinishedAt = c.now()
	}()

	payload := make([]row, 0, len(observations))
	for _, o := range observations {
		rec := models.NewPriceRecord(o, c.now())
		result.Records = append(result.Records, rec)

		r := row{
			StateCode: rec.StateCode,
			FuelType:  rec.FuelType,
			Price:     json.Number(rec.Price.String()),
			UpdatedAt: rec.UpdatedAt.Format(time.RFC3339Nano),
		}
		if c.observed && !rec.ObservedAt.IsZero() {
			r.ObservedAt = rec.ObservedAt.Format(time.RFC3339Nano)
		}
		payload = append(payload, r)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("encoding payload: %w", err)
	}

	c.logger.Debug().
		Str("url", c.endpoint).
		Int("count", len(payload)).
		Msg("posting prices")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", preferMergeDuplicates)

	resp, err := c.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, readErr := io.ReadAll(resp.Body)
		return result, &store.StatusError{StatusCode: resp.StatusCode, Body: string(respBody), ReadErr: readErr}
	}

	result.Written = len(payload)
	return result, nil
}
