// Package jira fetches recently created tickets from Jira Cloud.
package jira

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pixelwatch/internal/domain"
	"pixelwatch/internal/httpx"
)

type Config struct {
	BaseURL    string
	Email      string
	Token      string
	ProjectKey string
	MaxResults int
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary     string          `json:"summary"`
			Description json.RawMessage `json:"description"`
			Created     string          `json:"created"`
		} `json:"fields"`
	} `json:"issues"`
}

// FetchRecent returns the project's tickets created within the lookback
// window, newest first.
func FetchRecent(cfg Config, lookback time.Duration) ([]domain.Ticket, error) {
	jql := fmt.Sprintf("project = %s AND created >= -%dm ORDER BY created DESC",
		cfg.ProjectKey, int(lookback.Minutes()))
	return Search(cfg, jql)
}

// Search runs a JQL query and maps the matching issues to tickets.
func Search(cfg Config, jql string) ([]domain.Ticket, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	payload, err := json.Marshal(searchRequest{
		JQL:        jql,
		MaxResults: maxResults,
		Fields:     []string{"summary", "description", "created"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	apiURL := strings.TrimRight(cfg.BaseURL, "/") + "/rest/api/3/search/jql"
	log.Debug().Str("jql", jql).Msg("jira search")

	req, err := http.NewRequest("POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.Token))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpx.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching tickets: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("Jira API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	tickets := make([]domain.Ticket, 0, len(parsed.Issues))
	for _, issue := range parsed.Issues {
		tickets = append(tickets, domain.Ticket{
			Key:         issue.Key,
			Summary:     issue.Fields.Summary,
			Description: issue.Fields.Description,
			Created:     parseCreated(issue.Fields.Created),
		})
	}

	log.Debug().Int("count", len(tickets)).Msg("jira search done")
	return tickets, nil
}

// Jira Cloud emits "2006-01-02T15:04:05.000-0700"; older servers use
// RFC3339. A ticket with an unparsable timestamp is still worth
// classifying, so the zero time stands in rather than dropping it.
func parseCreated(raw string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
