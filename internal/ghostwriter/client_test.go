package ghostwriter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/telemetry"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// fakeGhostwriter is an httptest GraphQL endpoint that records requests
// and answers with a canned body.
type fakeGhostwriter struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	status int
	body   string
}

type recordedRequest struct {
	Header    http.Header
	Query     string
	Variables map[string]any
}

func newFakeGhostwriter(t *testing.T) *fakeGhostwriter {
	t.Helper()
	f := &fakeGhostwriter{t: t, status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Header: r.Header.Clone(), Query: req.Query, Variables: req.Variables})
		status, body := f.status, f.body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGhostwriter) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeGhostwriter) last() recordedRequest {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.requests, "no request recorded")
	return f.requests[len(f.requests)-1]
}

func (f *fakeGhostwriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, f *fakeGhostwriter, opts ...Option) *Client {
	t.Helper()
	c, err := New(Config{URL: f.server.URL + "/v1/graphql", Token: "s3cret-token", Timeout: 5 * time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresURLAndToken(t *testing.T) {
	_, err := New(Config{Token: "x"})
	assert.Error(t, err)

	_, err = New(Config{URL: "https://gw.example.com/v1/graphql"})
	assert.Error(t, err)
}

func TestClient_SendsBearerTokenAndRequestID(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"client":[]}}`)
	c := newTestClient(t, f)

	ctx := logging.WithRequestID(context.Background(), "req-123")
	_, err := c.SearchClients(ctx, "acme")
	require.NoError(t, err)

	req := f.last()
	assert.Equal(t, "Bearer s3cret-token", req.Header.Get("Authorization"))
	assert.Equal(t, "req-123", req.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "%acme%", req.Variables["term"])
}

func TestSearchClients_NormalizesNulls(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"client":[
		{"id":7,"name":"Acme Corp","shortName":null,"codename":"Amber Falcon","address":null,"note":null,"timezone":"UTC"}
	]}}`)
	c := newTestClient(t, f)

	got, err := c.SearchClients(context.Background(), "Acme   Corp")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ClientRecord{ID: 7, Name: "Acme Corp", Codename: "Amber Falcon", Timezone: "UTC"}, got[0])
	assert.Equal(t, "%Acme%Corp%", f.last().Variables["term"])
}

func TestSearchClients_EmptyIsNonNil(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"client":[]}}`)
	c := newTestClient(t, f)

	got, err := c.SearchClients(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetProject(t *testing.T) {
	f := newFakeGhostwriter(t)
	c := newTestClient(t, f)

	t.Run("normalizes missing project type", func(t *testing.T) {
		f.respond(http.StatusOK, `{"data":{"project_by_pk":
			{"id":3,"clientId":7,"codename":"Quiet Otter","note":"Q3 External","startDate":"2026-01-05","endDate":null,"projectType":null,"client":{"name":"Acme Corp","codename":"Amber Falcon"}}
		}}`)
		p, err := c.GetProject(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Unknown", p.ProjectType)
		assert.Equal(t, "Q3 External", p.Name)
		assert.Equal(t, "", p.EndDate)
		assert.Equal(t, "Acme Corp", p.ClientName)
		assert.EqualValues(t, 3, f.last().Variables["id"])
	})

	t.Run("null is not found", func(t *testing.T) {
		f.respond(http.StatusOK, `{"data":{"project_by_pk":null}}`)
		_, err := c.GetProject(context.Background(), 99)
		require.Error(t, err)
		assert.ErrorIs(t, err, toolerr.ErrNotFound)
		assert.Equal(t, []int64{99}, toolerr.PayloadOf(err).IDs)
	})
}

func TestClient_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   toolerr.Kind
	}{
		{name: "server error", status: 500, body: `oops`, want: toolerr.KindRemoteUnavailable},
		{name: "unauthorized", status: 401, body: `{"message":"denied"}`, want: toolerr.KindRemoteUnavailable},
		{name: "malformed body", status: 200, body: `{"data":`, want: toolerr.KindRemoteUnavailable},
		{name: "missing root", status: 200, body: `{"data":{}}`, want: toolerr.KindRemoteUnavailable},
		{name: "invalid jwt", status: 200, body: `{"errors":[{"message":"Could not verify JWT","extensions":{"code":"invalid-jwt"}}]}`, want: toolerr.KindRemoteUnavailable},
		{name: "validation failed", status: 200, body: `{"errors":[{"message":"field not found","extensions":{"code":"validation-failed"}}]}`, want: toolerr.KindInvalidPayload},
		{name: "constraint violation", status: 200, body: `{"errors":[{"message":"duplicate key","extensions":{"code":"constraint-violation"}}]}`, want: toolerr.KindInvalidPayload},
		{name: "not found code", status: 200, body: `{"errors":[{"message":"no such report","extensions":{"code":"not-found"}}]}`, want: toolerr.KindNotFound},
		{name: "no code", status: 200, body: `{"errors":[{"message":"boom"}]}`, want: toolerr.KindRemoteUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGhostwriter(t)
			f.respond(tt.status, tt.body)
			c := newTestClient(t, f)

			_, err := c.SearchReports(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.want, toolerr.KindOf(err))
		})
	}
}

func TestClient_UnreachableIsRemoteUnavailable(t *testing.T) {
	f := newFakeGhostwriter(t)
	c := newTestClient(t, f)
	f.server.Close()

	_, err := c.SearchFindings(context.Background(), "sqli")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerr.ErrRemoteUnavailable)
}

func TestCreateClient_OmitsEmptyFields(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"insert_client_one":{"id":11,"name":"Acme Corp","shortName":"Acme","codename":"Amber Falcon","address":null,"note":null,"timezone":null}}}`)
	c := newTestClient(t, f)

	got, err := c.CreateClient(context.Background(), NewClient{Name: "Acme Corp", ShortName: "Acme", Codename: "Amber Falcon"})
	require.NoError(t, err)
	assert.EqualValues(t, 11, got.ID)

	obj, ok := f.last().Variables["object"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Acme Corp", "shortName": "Acme", "codename": "Amber Falcon"}, obj)
}

func TestAttachFinding(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"attachFinding":{"id":501}}}`)
	c := newTestClient(t, f)

	id, err := c.AttachFinding(context.Background(), 42, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 501, id)

	req := f.last()
	assert.EqualValues(t, 42, req.Variables["findingId"])
	assert.EqualValues(t, 9, req.Variables["reportId"])
	assert.Contains(t, req.Query, "attachFinding")
}

func TestUpdateReportedFinding(t *testing.T) {
	t.Run("sends only supplied columns", func(t *testing.T) {
		f := newFakeGhostwriter(t)
		f.respond(http.StatusOK, `{"data":{"update_reportedFinding_by_pk":{"id":5,"reportId":9,"title":"SQLi","replication_steps":"<p>step</p>","affectedEntities":"<p>host-a</p>"}}}`)
		c := newTestClient(t, f)

		steps := "<p>step</p>"
		got, err := c.UpdateReportedFinding(context.Background(), 5, ReportedFindingUpdate{ReplicationSteps: &steps})
		require.NoError(t, err)
		assert.Equal(t, "<p>host-a</p>", got.AffectedEntities)

		set, ok := f.last().Variables["set"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"replication_steps": "<p>step</p>"}, set)
	})

	t.Run("empty update makes no request", func(t *testing.T) {
		f := newFakeGhostwriter(t)
		c := newTestClient(t, f)

		_, err := c.UpdateReportedFinding(context.Background(), 5, ReportedFindingUpdate{})
		assert.ErrorIs(t, err, toolerr.ErrInvalidPayload)
		assert.Equal(t, 0, f.count())
	})

	t.Run("missing association", func(t *testing.T) {
		f := newFakeGhostwriter(t)
		f.respond(http.StatusOK, `{"data":{"update_reportedFinding_by_pk":null}}`)
		c := newTestClient(t, f)

		entities := ""
		_, err := c.UpdateReportedFinding(context.Background(), 404, ReportedFindingUpdate{AffectedEntities: &entities})
		assert.ErrorIs(t, err, toolerr.ErrNotFound)
	})
}

func TestGenerateCodename(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"generateCodename":{"codename":"Silent Heron"}}}`)
	c := newTestClient(t, f)

	got, err := c.GenerateCodename(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Silent Heron", got)
}

func TestClient_MetricsAndSpans(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"report":[]}}`)

	reg := prometheus.NewRegistry()
	tel := telemetry.NewTestTelemetry()
	c := newTestClient(t, f, WithRegisterer(reg), WithTracerProvider(tel.TracerProvider()))

	_, err := c.SearchReports(context.Background(), "q3")
	require.NoError(t, err)

	f.respond(http.StatusBadGateway, "")
	_, err = c.SearchReports(context.Background(), "q3")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues("search_reports", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues("search_reports", string(toolerr.KindRemoteUnavailable))))
	tel.AssertSpanAttribute(t, "ghostwriter.search_reports", "graphql.operation", "search_reports")
}

func TestClient_TraceLogsBody(t *testing.T) {
	f := newFakeGhostwriter(t)
	f.respond(http.StatusOK, `{"data":{"finding":[]}}`)
	logger := logging.NewTestLogger()
	c := newTestClient(t, f, WithLogger(logger.Logger))

	_, err := c.SearchFindings(context.Background(), "xss")
	require.NoError(t, err)
	logger.AssertLogged(t, logging.TraceLevel, "graphql response")
}

func TestILikePattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "acme", want: "%acme%"},
		{in: "  Acme   Corp ", want: "%Acme%Corp%"},
		{in: "100%_done", want: `%100\%\_done%`},
		{in: "", want: "%%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ILikePattern(tt.in), tt.in)
	}
	assert.Equal(t, `Amber Falcon`, exactILike(" Amber Falcon "))
	assert.Equal(t, `amber falcon`, exactILike("amber \t falcon"))
}
