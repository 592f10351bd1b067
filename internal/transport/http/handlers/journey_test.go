package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"kpitracker/internal/app/server"
	"kpitracker/internal/domain/auth"
	"kpitracker/internal/platform/config"
)

const testSecret = "journey-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

type client struct {
	t       *testing.T
	http    *http.Client
	baseURL string
}

func newApp(t *testing.T, dbURL string) (*server.App, *client) {
	t.Helper()
	cfg := config.Config{
		Addr:               "127.0.0.1:0",
		DatabaseURL:        dbURL,
		JWTSecret:          testSecret,
		TokenTTL:           time.Hour,
		Environment:        "test",
		LogLevel:           "info",
		SeedAdminEmail:     fmt.Sprintf("admin-%s@example.com", uuid.NewString()[:8]),
		SeedAdminName:      "Ada Admin",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		OTelSamplerRatio:   1,
		ShutdownTimeout:    time.Second,
	}
	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, &client{t: t, http: ts.Client(), baseURL: ts.URL}
}

func adminToken(t *testing.T, app *server.App) string {
	t.Helper()
	boot, err := app.Services.Org.Bootstrap(context.Background(), app.Config.SeedAdminName, app.Config.SeedAdminEmail)
	require.NoError(t, err)
	require.NotNil(t, boot.AdminUser)
	return tokenFor(t, boot.AdminUser.ID)
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: userID}, time.Hour)
	require.NoError(t, err)
	return token
}

func (c *client) do(method, path, token string, body any, wantStatus int) envelope {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	require.Equalf(c.t, wantStatus, resp.StatusCode, "%s %s: %+v", method, path, env.Error)
	return env
}

func (c *client) id(env envelope) string {
	c.t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(c.t, out.ID)
	return out.ID
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestKPIJourneySQLite(t *testing.T) {
	runJourney(t, "sqlite://"+filepath.Join(t.TempDir(), "journey.db"))
}

func TestKPIJourneyPostgres(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	runJourney(t, dbURL)
}

func runJourney(t *testing.T, dbURL string) {
	app, c := newApp(t, dbURL)
	admin := adminToken(t, app)
	suffix := uuid.NewString()[:8]

	sdrRole := c.id(c.do(http.MethodPost, "/api/v1/roles", admin, map[string]any{"name": "SDR " + suffix}, http.StatusCreated))
	leadRole := c.id(c.do(http.MethodPost, "/api/v1/roles", admin, map[string]any{"name": "Sales Lead " + suffix}, http.StatusCreated))

	manager := c.id(c.do(http.MethodPost, "/api/v1/users", admin, map[string]any{
		"fullName": "Mona Manager", "email": "mona-" + suffix + "@example.com", "roleId": leadRole,
	}, http.StatusCreated))
	rep := c.id(c.do(http.MethodPost, "/api/v1/users", admin, map[string]any{
		"fullName": "Remy Rep", "email": "remy-" + suffix + "@example.com", "roleId": sdrRole, "managerId": manager,
	}, http.StatusCreated))
	managerTok, repTok := tokenFor(t, manager), tokenFor(t, rep)

	var directory []struct {
		ID        string `json:"id"`
		ManagerID string `json:"managerId"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/v1/users?limit=500", admin, nil, http.StatusOK).Data, &directory))
	managers := map[string]string{}
	for _, u := range directory {
		managers[u.ID] = u.ManagerID
	}
	require.Contains(t, managers, manager)
	require.Equal(t, manager, managers[rep])
	c.do(http.MethodGet, "/api/v1/users", repTok, nil, http.StatusForbidden)

	kpi := c.id(c.do(http.MethodPost, "/api/v1/kpis", admin, map[string]any{
		"name": "Calls", "roleId": sdrRole, "targetValue": 100, "weightage": 40, "measurementType": "count",
	}, http.StatusCreated))
	over := c.do(http.MethodPost, "/api/v1/kpis", admin, map[string]any{
		"name": "Demos", "roleId": sdrRole, "targetValue": 10, "weightage": 70, "measurementType": "COUNT",
	}, http.StatusBadRequest)
	require.Equal(t, "validation_error", errorCode(over))
	c.do(http.MethodPost, "/api/v1/kpis", repTok, map[string]any{
		"name": "Sneaky", "roleId": sdrRole, "targetValue": 1, "weightage": 1, "measurementType": "COUNT",
	}, http.StatusForbidden)

	today := time.Now().UTC().Format("2006-01-02")
	submitted := c.do(http.MethodPost, "/api/v1/achievements", repTok, map[string]any{
		"kpiId": kpi, "achievedValue": 150, "achievementDate": today, "description": "cold calls",
	}, http.StatusCreated)
	achievement := c.id(submitted)
	var pending struct {
		Status string `json:"status"`
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(submitted.Data, &pending))
	require.Equal(t, "PENDING", pending.Status)
	require.Equal(t, rep, pending.UserID)

	lastYear := time.Now().UTC().AddDate(-1, 0, 0).Format("2006-01-02")
	c.do(http.MethodPost, "/api/v1/achievements", repTok, map[string]any{
		"kpiId": kpi, "achievedValue": 1, "achievementDate": lastYear,
	}, http.StatusBadRequest)

	forbidden := c.do(http.MethodPut, "/api/v1/achievements/"+achievement+"/verify", repTok, map[string]any{"status": "VERIFIED"}, http.StatusForbidden)
	require.Equal(t, "forbidden", errorCode(forbidden))
	c.do(http.MethodPut, "/api/v1/achievements/"+achievement+"/verify", managerTok, map[string]any{"status": "REJECTED"}, http.StatusBadRequest)
	c.do(http.MethodPut, "/api/v1/achievements/"+achievement+"/verify", managerTok, map[string]any{"status": "verified"}, http.StatusOK)
	again := c.do(http.MethodPut, "/api/v1/achievements/"+achievement+"/verify", managerTok, map[string]any{"status": "REJECTED", "rejectionReason": "late"}, http.StatusConflict)
	require.Equal(t, "invalid_state", errorCode(again))
	c.do(http.MethodPut, "/api/v1/achievements/"+uuid.NewString()+"/verify", managerTok, map[string]any{"status": "VERIFIED"}, http.StatusNotFound)

	var card struct {
		UserID string  `json:"userId"`
		Total  float64 `json:"total"`
		KPIs   []struct {
			Completion float64 `json:"completion"`
		} `json:"kpis"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/v1/dashboard/me", repTok, nil, http.StatusOK).Data, &card))
	require.Equal(t, 40.0, card.Total)
	require.Len(t, card.KPIs, 1)
	require.Equal(t, 100.0, card.KPIs[0].Completion)

	c.do(http.MethodGet, "/api/v1/scores/"+rep, managerTok, nil, http.StatusOK)
	c.do(http.MethodGet, "/api/v1/scores/"+manager, repTok, nil, http.StatusForbidden)

	var team struct {
		Reports []struct {
			UserID string  `json:"userId"`
			Total  float64 `json:"total"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/v1/dashboard/team", managerTok, nil, http.StatusOK).Data, &team))
	require.Len(t, team.Reports, 1)
	require.Equal(t, rep, team.Reports[0].UserID)

	cycle := c.do(http.MethodPut, "/api/v1/users/"+manager+"/manager", admin, map[string]any{"managerId": rep}, http.StatusConflict)
	require.Equal(t, "cycle_detected", errorCode(cycle))
	self := c.do(http.MethodPut, "/api/v1/users/"+rep+"/manager", admin, map[string]any{"managerId": rep}, http.StatusConflict)
	require.Equal(t, "self_assignment", errorCode(self))

	var evaluation struct {
		Outcomes []struct {
			UserID string  `json:"userId"`
			Score  float64 `json:"score"`
			Rule   *struct {
				Recommendation string `json:"recommendation"`
			} `json:"rule"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodPost, "/api/v1/evaluations", admin, map[string]any{"managerId": manager}, http.StatusOK).Data, &evaluation))
	require.Len(t, evaluation.Outcomes, 1)
	require.Equal(t, 40.0, evaluation.Outcomes[0].Score)
	require.NotNil(t, evaluation.Outcomes[0].Rule)
	require.Equal(t, "FINAL_WARNING", evaluation.Outcomes[0].Rule.Recommendation)
	c.do(http.MethodPost, "/api/v1/evaluations", repTok, map[string]any{"userId": rep}, http.StatusForbidden)

	var rules []struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/v1/evaluations?userId="+rep, admin, nil, http.StatusOK).Data, &rules))
	require.Len(t, rules, 1)

	var events []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/v1/audit?action=verify&actorId="+manager, admin, nil, http.StatusOK).Data, &events))
	require.Len(t, events, 1)
	c.do(http.MethodGet, "/api/v1/audit", repTok, nil, http.StatusForbidden)

	var visible []struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/v1/achievements", managerTok, nil, http.StatusOK).Data, &visible))
	require.Len(t, visible, 1)
	require.Equal(t, rep, visible[0].UserID)

	unauth := c.do(http.MethodGet, "/api/v1/kpis", "", nil, http.StatusUnauthorized)
	require.Equal(t, "unauthorized", errorCode(unauth))
	c.do(http.MethodGet, "/healthz", "", nil, http.StatusOK)
	c.do(http.MethodGet, "/readyz", "", nil, http.StatusOK)
}
