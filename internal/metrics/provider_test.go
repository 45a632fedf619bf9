package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()

	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	return w.Body.String()
}

func TestNewProvider(t *testing.T) {
	t.Run("Success_ServiceNameFromNamespace", func(t *testing.T) {
		provider, err := NewProvider("usertokens_test")
		require.NoError(t, err)
		defer func() { assert.NoError(t, provider.Shutdown(context.Background())) }()

		bm, err := NewBusinessMetrics(provider.MeterProvider(), "usertokens_test")
		require.NoError(t, err)
		bm.RecordOperation(context.Background(), DomainToken, "forgot_password_generate", StatusSuccess)

		assert.Regexp(t, `target_info\{[^}]*service_name="usertokens_test"`, scrape(t, provider))
	})

	t.Run("Success_EmptyNamespaceUsesDefaultServiceName", func(t *testing.T) {
		provider, err := NewProvider("")
		require.NoError(t, err)

		bm, err := NewBusinessMetrics(provider.MeterProvider(), "")
		require.NoError(t, err)
		bm.RecordOperation(context.Background(), DomainUser, "register", StatusSuccess)

		assert.Regexp(t, `target_info\{[^}]*service_name="usertokens"`, scrape(t, provider))
	})

	t.Run("Success_RuntimeCollectorsRegistered", func(t *testing.T) {
		provider, err := NewProvider("usertokens_test")
		require.NoError(t, err)

		output := scrape(t, provider)

		assert.Contains(t, output, "go_goroutines")
		assert.Contains(t, output, "go_memstats_alloc_bytes")
	})
}

func TestProvider_TokenKindLabels(t *testing.T) {
	provider, err := NewProvider("usertokens_test")
	require.NoError(t, err)
	defer func() { assert.NoError(t, provider.Shutdown(context.Background())) }()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "usertokens_test")
	require.NoError(t, err)

	ctx := context.Background()
	for _, kind := range []string{"mail_registration", "forgot_password"} {
		bm.RecordOperation(ctx, DomainToken, TokenOperation(kind, "generate"), StatusSuccess)
		bm.RecordOperation(ctx, DomainToken, TokenOperation(kind, "consume"), StatusSuccess)
		bm.RecordDuration(ctx, DomainToken, TokenOperation(kind, "consume"), 5*time.Millisecond, StatusSuccess)
	}
	bm.RecordOperation(ctx, DomainToken, TokenOperation("forgot_password", "consume"), StatusError)

	output := scrape(t, provider)

	assertBizMetricLine(t, output, `usertokens_test_operations_total`,
		`domain="token".*operation="mail_registration_generate".*status="success"`, `1`)
	assertBizMetricLine(t, output, `usertokens_test_operations_total`,
		`domain="token".*operation="forgot_password_consume".*status="success"`, `1`)
	assertBizMetricLine(t, output, `usertokens_test_operations_total`,
		`domain="token".*operation="forgot_password_consume".*status="error"`, `1`)
	assertBizMetricLine(t, output, `usertokens_test_operation_duration_seconds_count`,
		`domain="token".*operation="mail_registration_consume".*status="success"`, `1`)
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("Success_StopsMeterProvider", func(t *testing.T) {
		provider, err := NewProvider("usertokens_test")
		require.NoError(t, err)

		bm, err := NewBusinessMetrics(provider.MeterProvider(), "usertokens_test")
		require.NoError(t, err)
		bm.RecordOperation(context.Background(), DomainToken, "mail_registration_generate", StatusSuccess)

		assert.NoError(t, provider.Shutdown(context.Background()))
		assert.NotContains(t, scrape(t, provider), "usertokens_test_operations_total")
	})

	t.Run("Success_NilMeterProvider", func(t *testing.T) {
		provider := &Provider{}

		assert.NoError(t, provider.Shutdown(context.Background()))
	})
}
