//go:build integration

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/liamcoop/wardline/internal/config"
	"github.com/liamcoop/wardline/requests"
)

// setupTestDB creates a PostgreSQL testcontainer and runs migrations
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start postgres container")

	host, err := postgres.Host(ctx)
	require.NoError(t, err, "Failed to get container host")

	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err, "Failed to get container port")

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err, "Failed to open database")

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	migrationSQL, err := os.ReadFile("../../migrations/000001_create_requests.up.sql")
	require.NoError(t, err, "Failed to read migration file")

	_, err = db.Exec(string(migrationSQL))
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		db.Close()
		postgres.Terminate(ctx)
	}

	return db, cleanup
}

// TestEndToEnd_SubmitAndListWithPostgres covers the workflow against a real database:
// 1. Open a flow for ward 3
// 2. Submit without generating a letter
// 3. Read the request back from the log and by id
func TestEndToEnd_SubmitAndListWithPostgres(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cfg := &config.Config{DataDir: "../../data", StoreBackend: config.StorePostgres}
	server, err := NewServer(cfg, Backend{Store: requests.NewPostgresRequestStore(db), DB: db}, nil)
	require.NoError(t, err, "Failed to create server")

	httpServer := httptest.NewServer(server)
	defer httpServer.Close()
	baseURL := httpServer.URL + "/api"

	t.Log("Step 1: Creating flow...")
	var flow FlowResponse
	postJSON(t, baseURL+"/wards/3/flows", nil, http.StatusCreated, &flow)

	t.Log("Step 2: Filling the form and submitting...")
	putJSON(t, baseURL+"/flows/"+flow.ID+"/form", map[string]string{
		"type":        "infrastructure",
		"description": "Pothole on Elm St",
	}, http.StatusOK)
	postJSON(t, baseURL+"/flows/"+flow.ID+"/submit", nil, http.StatusOK, &flow)

	require.Equal(t, "submitted", flow.State)
	require.NotNil(t, flow.Request)
	submitted := flow.Request

	t.Log("Step 3: Reading the log...")
	var list RequestsListResponse
	getJSON(t, baseURL+"/requests", http.StatusOK, &list)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, submitted.ID, list.Requests[0].ID)
	assert.Equal(t, 3, list.Requests[0].WardID)

	var byID requests.Request
	getJSON(t, baseURL+"/requests/"+submitted.ID, http.StatusOK, &byID)
	assert.Equal(t, requests.StatusSubmitted, byID.Status)
	assert.True(t, byID.CreatedAt.Equal(submitted.CreatedAt), "CreatedAt changed on round trip: %v vs %v", byID.CreatedAt, submitted.CreatedAt)

	var health HealthResponse
	getJSON(t, baseURL+"/health", http.StatusOK, &health)
	assert.Equal(t, "healthy", health.Status)
}

func postJSON(t *testing.T, url string, body any, wantStatus int, out any) {
	t.Helper()
	doJSON(t, http.MethodPost, url, body, wantStatus, out)
}

func putJSON(t *testing.T, url string, body any, wantStatus int) {
	t.Helper()
	doJSON(t, http.MethodPut, url, body, wantStatus, nil)
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	doJSON(t, http.MethodGet, url, nil, wantStatus, out)
}

func doJSON(t *testing.T, method, url string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body), "Failed to encode body")
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err, "Failed to build request")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "%s %s failed", method, url)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode, "%s %s", method, url)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "Failed to decode response")
	}
}
