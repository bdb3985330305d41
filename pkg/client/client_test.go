package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formwise/pkg/client"
	"github.com/goliatone/go-formwise/pkg/engine"
	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/submission"
	"github.com/goliatone/go-formwise/pkg/testsupport"
)

const formJSON = `{
  "id": "form-123",
  "title": "Signup",
  "is_active": true,
  "creator": {"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"},
  "fields": [
    {"type": "text", "tag": "name", "label": "Name", "help_text": null, "required": true, "min_length": 1, "max_length": 50},
    {"type": "number", "tag": "age", "label": "Age", "help_text": null, "required": false, "min_value": 0, "max_value": 120}
  ]
}`

// fakeService is an in-memory form service.
type fakeService struct {
	mu          sync.Mutex
	submissions []string
	authHeaders []string
	submitReply func(w http.ResponseWriter)
}

func (f *fakeService) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/config", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"max_forms": 5, "max_fields": 20, "max_responses": 100}`)
	}).Methods(http.MethodGet)

	api.HandleFunc("/forms", func(w http.ResponseWriter, r *http.Request) {
		f.recordAuth(r)
		_, _ = io.WriteString(w, `[{"id":"form-123","title":"Signup","is_active":true,"response_count":3,"created_at":"2024-03-09T10:00:00Z"}]`)
	}).Methods(http.MethodGet)

	api.HandleFunc("/forms", func(w http.ResponseWriter, r *http.Request) {
		f.recordAuth(r)
		var create model.FormCreate
		if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := model.FormDefinition{ID: "form-new", Title: create.Title, IsActive: true, Fields: create.Fields}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(form)
	}).Methods(http.MethodPost)

	api.HandleFunc("/forms/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "form-123" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Form not found"}`)
			return
		}
		_, _ = io.WriteString(w, formJSON)
	}).Methods(http.MethodGet)

	api.HandleFunc("/forms/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.recordAuth(r)
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	api.HandleFunc("/forms/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.submissions = append(f.submissions, string(raw))
		reply := f.submitReply
		f.mu.Unlock()
		if reply != nil {
			reply(w)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}).Methods(http.MethodPost)

	return r
}

func (f *fakeService) recordAuth(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
}

func newTestClient(t *testing.T, svc *fakeService, opts ...client.Option) *client.Client {
	t.Helper()
	server := httptest.NewServer(svc.router())
	t.Cleanup(server.Close)

	c, err := client.New(server.URL+"/", append([]client.Option{client.WithHTTPClient(server.Client())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAbsoluteURL(t *testing.T) {
	_, err := client.New("")
	assert.ErrorIs(t, err, client.ErrNoBaseURL)

	_, err = client.New("forms.local/api")
	assert.Error(t, err)
}

func TestGetForm(t *testing.T) {
	c := newTestClient(t, &fakeService{})

	form, err := c.GetForm(context.Background(), "form-123")
	require.NoError(t, err)
	assert.Equal(t, "Signup", form.Title)
	assert.Equal(t, []string{"name", "age"}, form.Tags())

	text, ok := form.Fields[0].Text()
	require.True(t, ok)
	assert.Equal(t, 50, *text.MaxLength)

	_, err = c.GetForm(context.Background(), "missing")
	assert.ErrorIs(t, err, client.ErrNotFound)
	var serverErr *submission.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Form not found", serverErr.Message)
}

func TestSubmitPostsEnvelope(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc)

	payload, err := submission.Normalize(testsupport.SampleForm(), submission.Values{"name": "Ann", "age": 41})
	require.NoError(t, err)
	require.NoError(t, c.Submit(context.Background(), "form-123", payload))

	require.Len(t, svc.submissions, 1)
	assert.JSONEq(t, `{"answers":{"name":"Ann","age":41}}`, svc.submissions[0])
}

func TestSubmitDecodesServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *submission.ServerError
	}{
		{
			name:   "field detail",
			status: http.StatusBadRequest,
			body:   `{"detail":{"name":"Name already taken"}}`,
			want:   &submission.ServerError{Status: 400, Detail: map[string]string{"name": "Name already taken"}},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"detail":"Rate limit exceeded"}`,
			want:   &submission.ServerError{Status: 429, Message: "Rate limit exceeded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{submitReply: func(w http.ResponseWriter) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}}
			c := newTestClient(t, svc)

			payload, err := submission.Normalize(testsupport.SampleForm(), submission.Values{"name": "Ann"})
			require.NoError(t, err)

			err = c.Submit(context.Background(), "form-123", payload)
			var serverErr *submission.ServerError
			require.ErrorAs(t, err, &serverErr)
			assert.Equal(t, tt.want, serverErr)
		})
	}
}

func TestSubmitTransportFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := client.New(url, client.WithTimeout(time.Second))
	require.NoError(t, err)

	err = c.Submit(context.Background(), "form-123", submission.Payload{})
	var serverErr *submission.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Zero(t, serverErr.Status)
	assert.True(t, serverErr.Retryable())
}

func TestOwnerOperationsSendBearerToken(t *testing.T) {
	svc := &fakeService{}
	c := newTestClient(t, svc, client.WithToken("secret-token"))

	forms, err := c.ListForms(context.Background())
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, 3, forms[0].ResponseCount)
	require.NotNil(t, forms[0].CreatedAt)

	created, err := c.CreateForm(context.Background(), model.FormCreate{
		Title:  "Feedback",
		Fields: []model.FieldDefinition{{Type: model.FieldTypeParagraph, Tag: "notes", Label: "Notes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "form-new", created.ID)
	assert.Equal(t, []string{"notes"}, created.Tags())

	require.NoError(t, c.DeleteForm(context.Background(), "form-123"))

	assert.Equal(t, []string{"Bearer secret-token", "Bearer secret-token", "Bearer secret-token"}, svc.authHeaders)
}

func TestOwnerOperationsNeedToken(t *testing.T) {
	c := newTestClient(t, &fakeService{})

	_, err := c.ListForms(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.ErrorIs(t, c.DeleteForm(context.Background(), "form-123"), client.ErrUnauthenticated)
}

func TestConfig(t *testing.T) {
	c := newTestClient(t, &fakeService{})

	cfg, err := c.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ServiceConfig{MaxForms: 5, MaxFields: 20, MaxResponses: 100}, cfg)
}

func TestClientDrivesEngineSession(t *testing.T) {
	svc := &fakeService{submitReply: func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":{"name":"Name already taken"}}`)
	}}
	c := newTestClient(t, svc)

	session, err := engine.New(engine.WithSource(c), engine.WithSubmitter(c)).Open(context.Background(), "form-123")
	require.NoError(t, err)
	require.NoError(t, session.Set("name", "Ann"))

	_, err = session.Submit(context.Background())
	assert.ErrorIs(t, err, engine.ErrSubmissionRejected)
	msg, ok := session.Contract().Error("name")
	assert.True(t, ok)
	assert.Equal(t, "Name already taken", msg)
}
