// Package apiclient is the data-access layer the front ends share. It
// wraps the record service's HTTP endpoints, decodes the JSON array
// responses into rows or display records, and keeps interactive
// searches from stampeding the server.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// StatusError is a non-200 answer from the service, carrying whatever
// message the server put in its JSON error body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api returned %d", e.Code)
}

type Caller struct {
	Logger  log.Logger
	Config  *cfg.Config
	BaseUrl string
	client  *http.Client
}

func NewCaller(logger log.Logger, config *cfg.Config) *Caller {
	timeout := time.Duration(config.Client.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Caller{
		Logger:  logger,
		Config:  config,
		BaseUrl: strings.TrimRight(config.Client.BaseUrl, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Search queries the generic prefix route and returns raw rows.
func (c *Caller) Search(ctx context.Context, schema, table, column, prefix string, limit, offset int) ([]map[string]string, error) {
	path := fmt.Sprintf("/%s/%s/%s/%s",
		url.PathEscape(schema), url.PathEscape(table), url.PathEscape(column), url.PathEscape(prefix))
	return c.getRows(ctx, path, limit, offset)
}

// Artists queries the artist resource by name prefix.
func (c *Caller) Artists(ctx context.Context, prefix string, limit, offset int) ([]model.Artist, error) {
	rows, err := c.getRows(ctx, "/imdb/artists/"+url.PathEscape(prefix), limit, offset)
	if err != nil {
		return nil, err
	}
	artists := make([]model.Artist, 0, len(rows))
	for _, row := range rows {
		artists = append(artists, model.ArtistFromRow(row))
	}
	return artists, nil
}

// PeopleByLastName queries the Lahman people table by last name prefix.
func (c *Caller) PeopleByLastName(ctx context.Context, prefix string, limit, offset int) ([]model.Player, error) {
	rows, err := c.getRows(ctx, "/lahman2019raw/people/nameLast/"+url.PathEscape(prefix), limit, offset)
	if err != nil {
		return nil, err
	}
	players := make([]model.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, model.PlayerFromRow(row))
	}
	return players, nil
}

func (c *Caller) getRows(ctx context.Context, path string, limit, offset int) ([]map[string]string, error) {
	fullUrl := c.BaseUrl + path
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if len(query) > 0 {
		fullUrl += "?" + query.Encode()
	}

	c.Logger.Debug(ctx, "Calling record API: %s", fullUrl)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		// The body is best effort; the status code alone is enough.
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}

	var rows []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return rows, nil
}
