// Package integration provides end-to-end integration tests for the user token API.
// Tests every endpoint against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/usertokens/internal/app"
	"github.com/allisson/usertokens/internal/config"
	outboxDomain "github.com/allisson/usertokens/internal/outbox/domain"
	"github.com/allisson/usertokens/internal/testutil"
	userDTO "github.com/allisson/usertokens/internal/user/http/dto"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// latestIssuedToken returns the clear token of the newest pending event of eventType
// addressed to userID, reading it the way the notifier would.
func (ctx *integrationTestContext) latestIssuedToken(t *testing.T, eventType string, userID uuid.UUID) string {
	t.Helper()

	outboxRepo, err := ctx.container.OutboxRepository()
	require.NoError(t, err, "failed to get outbox repository")

	events, err := outboxRepo.GetPendingEvents(context.Background(), 100)
	require.NoError(t, err, "failed to get pending events")

	var token string
	for _, event := range events {
		if event.EventType != eventType {
			continue
		}
		payload, err := event.DecodeTokenIssued()
		require.NoError(t, err)
		if payload.UserID == userID {
			token = payload.Token
		}
	}

	require.NotEmpty(t, token, "no %s event found for user %s", eventType, userID)
	return token
}

// countPendingEvents returns how many pending events of eventType exist.
func (ctx *integrationTestContext) countPendingEvents(t *testing.T, eventType string) int {
	t.Helper()

	outboxRepo, err := ctx.container.OutboxRepository()
	require.NoError(t, err, "failed to get outbox repository")

	events, err := outboxRepo.GetPendingEvents(context.Background(), 100)
	require.NoError(t, err, "failed to get pending events")

	count := 0
	for _, event := range events {
		if event.EventType == eventType {
			count++
		}
	}
	return count
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:                        dbDriver,
		DBConnectionString:              dsn,
		DBMaxOpenConnections:            10,
		DBMaxIdleConnections:            5,
		DBConnMaxLifetime:               time.Hour,
		ServerHost:                      "localhost",
		ServerPort:                      8080,
		LogLevel:                        "error",
		TokenStore:                      config.TokenStoreDatabase,
		MailRegistrationTokenExpiration: 24 * time.Hour,
		ForgotPasswordTokenExpiration:   time.Hour,
	}

	container := app.NewContainer(cfg)

	// The router is configured by container.HTTPServer()
	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	t.Logf("Integration test setup complete for %s", dbDriver)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

var databaseTestCases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databaseTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

// TestIntegration_Registration_CompleteFlow covers registration, resend and confirmation
// with mail registration tokens.
func TestIntegration_Registration_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databaseTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var user userDTO.UserResponse
			var firstToken string

			t.Run("01_Register", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users", userDTO.RegisterUserRequest{
					Name:     "Ada Lovelace",
					Email:    "Ada@Example.com",
					Password: "Str0ng!Passw0rd",
				})
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				require.NoError(t, json.Unmarshal(body, &user))
				assert.Equal(t, "ada@example.com", user.Email)
				assert.False(t, user.Enabled)

				firstToken = ctx.latestIssuedToken(t, outboxDomain.EventTypeRegistrationTokenIssued, user.ID)
			})

			t.Run("02_RegisterDuplicate", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/users", userDTO.RegisterUserRequest{
					Name:     "Ada Again",
					Email:    "ada@example.com",
					Password: "Str0ng!Passw0rd",
				})
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("03_ConfirmWithUnknownToken", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/users/"+user.ID.String()+"/confirm",
					userDTO.ConfirmRegistrationRequest{Token: "not-a-real-token"})
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("04_ResendKeepsEarlierToken", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/users/"+user.ID.String()+"/confirm/resend", nil)
				require.Equal(t, http.StatusAccepted, resp.StatusCode)

				secondToken := ctx.latestIssuedToken(t, outboxDomain.EventTypeRegistrationTokenIssued, user.ID)
				assert.NotEqual(t, firstToken, secondToken)
			})

			t.Run("05_ConfirmWithTokenOfAnotherUser", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users", userDTO.RegisterUserRequest{
					Name:     "Charles Babbage",
					Email:    "charles@example.com",
					Password: "Str0ng!Passw0rd",
				})
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var other userDTO.UserResponse
				require.NoError(t, json.Unmarshal(body, &other))

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/users/"+other.ID.String()+"/confirm",
					userDTO.ConfirmRegistrationRequest{Token: firstToken})
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("06_Confirm", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users/"+user.ID.String()+"/confirm",
					userDTO.ConfirmRegistrationRequest{Token: firstToken})
				require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/users/"+user.ID.String(), nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var confirmed userDTO.UserResponse
				require.NoError(t, json.Unmarshal(body, &confirmed))
				assert.True(t, confirmed.Enabled)
			})

			t.Run("07_ConfirmAgain", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/users/"+user.ID.String()+"/confirm",
					userDTO.ConfirmRegistrationRequest{Token: firstToken})
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("08_UnknownUser", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/users/"+uuid.Must(uuid.NewV7()).String(), nil)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_PasswordRecovery_CompleteFlow covers forgot password and reset with
// forgot password tokens.
func TestIntegration_PasswordRecovery_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databaseTestCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			// Register and confirm a user to recover
			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/users", userDTO.RegisterUserRequest{
				Name:     "Grace Hopper",
				Email:    "grace@example.com",
				Password: "Str0ng!Passw0rd",
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

			var user userDTO.UserResponse
			require.NoError(t, json.Unmarshal(body, &user))

			mailToken := ctx.latestIssuedToken(t, outboxDomain.EventTypeRegistrationTokenIssued, user.ID)
			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/users/"+user.ID.String()+"/confirm",
				userDTO.ConfirmRegistrationRequest{Token: mailToken})
			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			var resetToken string

			t.Run("01_ForgotPasswordUnknownEmail", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/password/forgot",
					userDTO.ForgotPasswordRequest{Email: "nobody@example.com"})
				assert.Equal(t, http.StatusAccepted, resp.StatusCode)
				assert.Equal(t, 0, ctx.countPendingEvents(t, outboxDomain.EventTypePasswordResetTokenIssued))
			})

			t.Run("02_ForgotPassword", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/password/forgot",
					userDTO.ForgotPasswordRequest{Email: "grace@example.com"})
				require.Equal(t, http.StatusAccepted, resp.StatusCode)

				resetToken = ctx.latestIssuedToken(t, outboxDomain.EventTypePasswordResetTokenIssued, user.ID)
			})

			t.Run("03_MailTokenCannotResetPassword", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/password/reset", userDTO.ResetPasswordRequest{
					UserID:   user.ID.String(),
					Token:    mailToken,
					Password: "N3w!Passw0rdX",
				})
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("04_ResetPasswordWeakPassword", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/password/reset", userDTO.ResetPasswordRequest{
					UserID:   user.ID.String(),
					Token:    resetToken,
					Password: "weak",
				})
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			})

			t.Run("05_ResetPassword", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/password/reset", userDTO.ResetPasswordRequest{
					UserID:   user.ID.String(),
					Token:    resetToken,
					Password: "N3w!Passw0rdX",
				})
				assert.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))
			})

			t.Run("06_ResetTokenIsSingleUse", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/password/reset", userDTO.ResetPasswordRequest{
					UserID:   user.ID.String(),
					Token:    resetToken,
					Password: "An0ther!Passw0rd",
				})
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("07_CleanupExpiredDryRun", func(t *testing.T) {
				cleanupUseCase, err := ctx.container.CleanupUseCase()
				require.NoError(t, err)

				count, err := cleanupUseCase.CleanupExpired(context.Background(), 0, true)
				require.NoError(t, err)
				assert.Equal(t, int64(0), count)
			})
		})
	}
}
