package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/access"
	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
	"github.com/T44VI/raittiusseuranhakubot/internal/identity"
	"github.com/T44VI/raittiusseuranhakubot/internal/notify"
	"github.com/T44VI/raittiusseuranhakubot/internal/store"
	"github.com/T44VI/raittiusseuranhakubot/internal/sweep"
	"github.com/T44VI/raittiusseuranhakubot/internal/wizard"
	"github.com/go-chi/chi/v5"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Repository) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	hub := notify.NewHub()
	sweeper := sweep.New(repo, hub, 0)
	bounds := wizard.Bounds{Min: 10 * time.Minute, Max: 12 * time.Hour}
	wiz := wizard.NewController(repo, wizard.NewDraftStore(), hub, sweeper, bounds, 8, 5)

	r := chi.NewRouter()
	r.Use(identity.Middleware(true))
	NewHandler(repo, sweeper, wiz, access.NewChecker(repo)).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

// testClient keeps the anonymous identity cookie across requests, so a
// sequence of calls acts as one device.
type testClient struct {
	t   *testing.T
	srv *httptest.Server
	c   *http.Client
}

func newTestClient(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &testClient{t: t, srv: srv, c: &http.Client{Jar: jar}}
}

func (tc *testClient) do(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	tc.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			tc.t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, tc.srv.URL+path, &buf)
	if err != nil {
		tc.t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := tc.c.Do(req)
	if err != nil {
		tc.t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		tc.t.Fatalf("Failed to decode response from %s: %v", path, err)
	}
	return resp, decoded
}

// userID returns the anonymous id the server assigned to this client.
func (tc *testClient) userID() string {
	tc.t.Helper()
	u, err := url.Parse(tc.srv.URL)
	if err != nil {
		tc.t.Fatalf("Failed to parse server URL: %v", err)
	}
	for _, c := range tc.c.Jar.Cookies(u) {
		if c.Name == identity.AnonCookieName {
			return c.Value
		}
	}
	tc.t.Fatal("No identity cookie present; make a request first")
	return ""
}

func (tc *testClient) buildDraft() {
	tc.t.Helper()
	for _, step := range []struct{ step, value string }{
		{"name", "Frisbee"},
		{"description", "Casual game at the park"},
		{"category", "Sportti"},
		{"length", "1h"},
	} {
		resp, _ := tc.do(http.MethodPost, "/api/draft/"+step.step, map[string]string{"value": step.value})
		if resp.StatusCode != http.StatusOK {
			tc.t.Fatalf("Draft step %s returned %d", step.step, resp.StatusCode)
		}
	}
}

func activities(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	acts, ok := body["activities"].([]interface{})
	if !ok {
		t.Fatalf("Expected activities array, got %v", body)
	}
	return acts
}

func TestListActivitiesEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	tc := newTestClient(t, srv)

	resp, body := tc.do(http.MethodGet, "/api/activities", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if got := activities(t, body); len(got) != 0 {
		t.Errorf("Expected empty board, got %v", got)
	}
}

func TestWizardFlowEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)
	tc := newTestClient(t, srv)
	tc.buildDraft()

	resp, body := tc.do(http.MethodPost, "/api/draft/save", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from save, got %d", resp.StatusCode)
	}
	if body["saved"] != true {
		t.Fatalf("Expected saved=true, got %v", body)
	}
	id, _ := body["activity_id"].(string)
	if len(id) != 8 {
		t.Fatalf("Expected 8-char activity id, got %q", id)
	}

	// Board now shows the activity without host identity.
	_, listBody := tc.do(http.MethodGet, "/api/activities", nil)
	acts := activities(t, listBody)
	if len(acts) != 1 {
		t.Fatalf("Expected 1 activity, got %d", len(acts))
	}
	act := acts[0].(map[string]interface{})
	if act["name"] != "Frisbee" || act["category"] != "Sportti" {
		t.Errorf("Unexpected activity: %v", act)
	}
	if _, present := act["host_id"]; present {
		t.Error("Host identity must be hidden from non-admins")
	}

	// The host sees their own host fields under /mine.
	_, mineBody := tc.do(http.MethodGet, "/api/mine", nil)
	mine := activities(t, mineBody)
	if len(mine) != 1 {
		t.Fatalf("Expected 1 own activity, got %d", len(mine))
	}
	if mine[0].(map[string]interface{})["host_id"] != tc.userID() {
		t.Error("Expected own host id in /mine view")
	}

	// And the draft reset after the save.
	_, draftBody := tc.do(http.MethodGet, "/api/draft", nil)
	draft := draftBody["draft"].(map[string]interface{})
	if name, present := draft["name"]; present && name != "" {
		t.Errorf("Expected draft reset, got %v", draft)
	}
}

func TestDraftValidationSurfacesInStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	tc := newTestClient(t, srv)

	// Length before name: locked step, reported in the status line.
	resp, body := tc.do(http.MethodPost, "/api/draft/length", map[string]string{"value": "1h"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	draft := body["draft"].(map[string]interface{})
	if draft["status"] != "‼️ Täytä edelliset kentät ensin" {
		t.Errorf("Unexpected status: %v", draft["status"])
	}
	if body["can_save"] == true {
		t.Error("Save must stay hidden for an empty draft")
	}
}

func TestDraftStepUnknown(t *testing.T) {
	srv, _ := newTestServer(t)
	tc := newTestClient(t, srv)

	resp, _ := tc.do(http.MethodPost, "/api/draft/color", map[string]string{"value": "red"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown step, got %d", resp.StatusCode)
	}
}

func TestListByCategory(t *testing.T) {
	srv, _ := newTestServer(t)
	tc := newTestClient(t, srv)
	tc.buildDraft()
	tc.do(http.MethodPost, "/api/draft/save", nil)

	resp, body := tc.do(http.MethodGet, "/api/categories/Sportti/activities", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if got := activities(t, body); len(got) != 1 {
		t.Errorf("Expected 1 activity in Sportti, got %d", len(got))
	}

	_, emptyBody := tc.do(http.MethodGet, "/api/categories/Pelit/activities", nil)
	if got := activities(t, emptyBody); len(got) != 0 {
		t.Errorf("Expected empty Pelit, got %d", len(got))
	}

	resp, _ = tc.do(http.MethodGet, "/api/categories/Nonsense/activities", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown category, got %d", resp.StatusCode)
	}
}

func TestCategoryCounts(t *testing.T) {
	srv, _ := newTestServer(t)
	tc := newTestClient(t, srv)
	tc.buildDraft()
	tc.do(http.MethodPost, "/api/draft/save", nil)

	_, body := tc.do(http.MethodGet, "/api/categories", nil)
	cats, ok := body["categories"].([]interface{})
	if !ok || len(cats) != 4 {
		t.Fatalf("Expected 4 categories, got %v", body)
	}
	counts := make(map[string]float64)
	for _, c := range cats {
		cat := c.(map[string]interface{})
		counts[cat["name"].(string)] = cat["count"].(float64)
	}
	if counts["Sportti"] != 1 || counts["Pelit"] != 0 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestExpiredActivityHidden(t *testing.T) {
	srv, repo := newTestServer(t)
	tc := newTestClient(t, srv)

	expired := &domain.Activity{
		ID: "expired1", Name: "Old", Description: "d", HostID: "h", HostHandle: "hh",
		Category: domain.CategorySport,
		EndsAt:   time.Now().Add(-time.Minute), CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := repo.InsertActivity(context.Background(), expired); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	_, body := tc.do(http.MethodGet, "/api/activities", nil)
	if got := activities(t, body); len(got) != 0 {
		t.Errorf("Expired activity must not surface, got %v", got)
	}

	resp, _ := tc.do(http.MethodGet, "/api/activities/expired1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for expired activity, got %d", resp.StatusCode)
	}
}

func TestBlockedUserForbidden(t *testing.T) {
	srv, repo := newTestServer(t)
	tc := newTestClient(t, srv)

	// First request establishes the identity cookie.
	tc.do(http.MethodGet, "/api/activities", nil)
	if err := repo.AddBlock(context.Background(), tc.userID(), "handle"); err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}

	resp, _ := tc.do(http.MethodGet, "/api/activities", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for blocked user, got %d", resp.StatusCode)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	srv, repo := newTestServer(t)
	host := newTestClient(t, srv)
	host.buildDraft()
	_, body := host.do(http.MethodPost, "/api/draft/save", nil)
	id := body["activity_id"].(string)

	// A stranger cannot delete someone else's activity.
	stranger := newTestClient(t, srv)
	resp, _ := stranger.do(http.MethodPost, "/api/activities/"+id+"/delete", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected 403 for stranger delete, got %d", resp.StatusCode)
	}

	// An admin can.
	if err := repo.AddAdmin(context.Background(), stranger.userID(), "admin"); err != nil {
		t.Fatalf("AddAdmin failed: %v", err)
	}
	resp, _ = stranger.do(http.MethodPost, "/api/activities/"+id+"/delete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 for admin delete, got %d", resp.StatusCode)
	}

	resp, _ = host.do(http.MethodGet, "/api/activities/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestDeleteOwnActivity(t *testing.T) {
	srv, _ := newTestServer(t)
	host := newTestClient(t, srv)
	host.buildDraft()
	_, body := host.do(http.MethodPost, "/api/draft/save", nil)
	id := body["activity_id"].(string)

	resp, _ := host.do(http.MethodPost, "/api/activities/"+id+"/delete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 for own delete, got %d", resp.StatusCode)
	}

	resp, _ = host.do(http.MethodPost, "/api/activities/"+id+"/delete", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for repeated delete, got %d", resp.StatusCode)
	}
}

func TestBlockRequiresAdmin(t *testing.T) {
	srv, repo := newTestServer(t)
	host := newTestClient(t, srv)
	host.buildDraft()
	_, body := host.do(http.MethodPost, "/api/draft/save", nil)
	id := body["activity_id"].(string)

	stranger := newTestClient(t, srv)
	resp, _ := stranger.do(http.MethodPost, "/api/activities/"+id+"/block", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-admin block, got %d", resp.StatusCode)
	}

	if err := repo.AddAdmin(context.Background(), stranger.userID(), "admin"); err != nil {
		t.Fatalf("AddAdmin failed: %v", err)
	}
	resp, _ = stranger.do(http.MethodPost, "/api/activities/"+id+"/block", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 for admin block, got %d", resp.StatusCode)
	}

	blocked, err := repo.IsBlocked(context.Background(), host.userID())
	if err != nil {
		t.Fatalf("IsBlocked failed: %v", err)
	}
	if !blocked {
		t.Error("Expected host to be blocked")
	}
}

func TestJoinActivity(t *testing.T) {
	srv, _ := newTestServer(t)
	host := newTestClient(t, srv)
	host.buildDraft()
	_, body := host.do(http.MethodPost, "/api/draft/save", nil)
	id := body["activity_id"].(string)

	joiner := newTestClient(t, srv)
	resp, joinBody := joiner.do(http.MethodPost, "/api/activities/"+id+"/join", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from join, got %d", resp.StatusCode)
	}
	msg, _ := joinBody["message"].(string)
	if msg == "" {
		t.Error("Expected contact instructions in join response")
	}

	resp, _ = joiner.do(http.MethodPost, "/api/activities/missing1/join", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for missing activity, got %d", resp.StatusCode)
	}
}
