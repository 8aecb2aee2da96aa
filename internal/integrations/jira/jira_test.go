package jira

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchParsesIssues(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody searchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"issues": [
				{
					"key": "PIX-101",
					"fields": {
						"summary": "Pixel not firing",
						"description": {"type": "doc", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "details"}]}]},
						"created": "2025-06-01T10:30:00.000+0000"
					}
				},
				{
					"key": "PIX-102",
					"fields": {
						"summary": "Billing question",
						"description": null,
						"created": "not-a-timestamp"
					}
				}
			]
		}`))
	}))
	defer server.Close()

	cfg := Config{
		BaseURL:    server.URL,
		Email:      "bot@example.com",
		Token:      "secret",
		ProjectKey: "PIX",
		MaxResults: 25,
	}
	tickets, err := Search(cfg, "project = PIX")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotPath != "/rest/api/3/search/jql" {
		t.Errorf("path = %q, want /rest/api/3/search/jql", gotPath)
	}
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("bot@example.com:secret"))
	if gotAuth != wantAuth {
		t.Errorf("auth header = %q, want %q", gotAuth, wantAuth)
	}
	if gotBody.JQL != "project = PIX" || gotBody.MaxResults != 25 {
		t.Errorf("request body = %+v", gotBody)
	}

	if len(tickets) != 2 {
		t.Fatalf("tickets = %d, want 2", len(tickets))
	}
	if tickets[0].Key != "PIX-101" || tickets[0].Summary != "Pixel not firing" {
		t.Fatalf("first ticket wrong: %+v", tickets[0])
	}
	if len(tickets[0].Description) == 0 {
		t.Fatal("rich-text description should be carried through raw")
	}
	want := time.Date(2025, 6, 1, 10, 30, 0, 0, time.FixedZone("", 0))
	if !tickets[0].Created.Equal(want) {
		t.Fatalf("created = %v, want %v", tickets[0].Created, want)
	}
	// Unparsable timestamps degrade to the zero time, the ticket survives.
	if !tickets[1].Created.IsZero() {
		t.Fatalf("created for bad timestamp = %v, want zero", tickets[1].Created)
	}
}

func TestFetchRecentBuildsLookbackJQL(t *testing.T) {
	var gotBody searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Write([]byte(`{"issues": []}`))
	}))
	defer server.Close()

	cfg := Config{BaseURL: server.URL, Email: "e", Token: "t", ProjectKey: "PIX"}
	tickets, err := FetchRecent(cfg, 6*time.Hour)
	if err != nil {
		t.Fatalf("FetchRecent failed: %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("tickets = %d, want 0", len(tickets))
	}

	want := "project = PIX AND created >= -360m ORDER BY created DESC"
	if gotBody.JQL != want {
		t.Fatalf("jql = %q, want %q", gotBody.JQL, want)
	}
	if gotBody.MaxResults != 50 {
		t.Fatalf("maxResults = %d, want default 50", gotBody.MaxResults)
	}
}

func TestSearchSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["bad jql"]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := Config{BaseURL: server.URL, Email: "e", Token: "t", ProjectKey: "PIX"}
	if _, err := Search(cfg, "nonsense ((("); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
}
