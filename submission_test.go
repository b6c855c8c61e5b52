package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLeadInput() LeadInput {
	return LeadInput{
		Name:     "Jane Doe",
		Email:    "jane@acme.com",
		Company:  "Acme",
		Purpose:  "Meeting",
		Property: "doubletree",
	}
}

func TestValidateLeadInput(t *testing.T) {
	store := newTestStore()

	tests := []struct {
		name    string
		mutate  func(*LeadInput)
		wantErr string
	}{
		{name: "valid input", mutate: func(in *LeadInput) {}},
		{
			name:    "empty company",
			mutate:  func(in *LeadInput) { in.Company = "" },
			wantErr: "fill in all fields",
		},
		{
			name:    "empty name",
			mutate:  func(in *LeadInput) { in.Name = "" },
			wantErr: "fill in all fields",
		},
		{
			name:    "email without at sign",
			mutate:  func(in *LeadInput) { in.Email = "janeacme.com" },
			wantErr: "valid email",
		},
		{
			name:    "email without domain dot",
			mutate:  func(in *LeadInput) { in.Email = "jane@acmecom" },
			wantErr: "valid email",
		},
		{
			name:    "email with whitespace",
			mutate:  func(in *LeadInput) { in.Email = "jane doe@acme.com" },
			wantErr: "valid email",
		},
		{
			name:   "minimal valid email",
			mutate: func(in *LeadInput) { in.Email = "a@b.com" },
		},
		{
			name:    "unknown property",
			mutate:  func(in *LeadInput) { in.Property = "ritz" },
			wantErr: "unknown property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validLeadInput()
			tt.mutate(&input)

			err := ValidateLeadInput(input, store)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewLead(t *testing.T) {
	lead := NewLead(validLeadInput())

	_, err := uuid.Parse(lead.ID)
	assert.NoError(t, err)

	parsed, err := time.Parse(time.RFC3339, lead.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)

	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "doubletree", lead.Property)
}

// sinkTestStore builds a settings store whose locked endpoint points at the
// given URL.
func sinkTestStore(endpoint string) *SettingsStore {
	store := newTestStore()
	defaults := store.Get()
	defaults.SheetEndpoint = endpoint
	return NewSettingsStore(defaults, store.Properties())
}

func TestSheetSinkDeliversJSON(t *testing.T) {
	var received []byte
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		received = buf.Bytes()
	}))
	defer server.Close()

	sink := NewSheetSink(sinkTestStore(server.URL), true)
	lead := NewLead(validLeadInput())

	require.NoError(t, sink.Deliver(context.Background(), lead))

	assert.Equal(t, "application/json", contentType)
	var got Lead
	require.NoError(t, json.Unmarshal(received, &got))
	assert.Equal(t, lead, got)
}

func TestSheetSinkObservableFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewSheetSink(sinkTestStore(server.URL), true)
	err := sink.Deliver(context.Background(), NewLead(validLeadInput()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSheetSinkFireAndForgetAssumesSuccess(t *testing.T) {
	t.Run("error status ignored", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		sink := NewSheetSink(sinkTestStore(server.URL), false)
		assert.NoError(t, sink.Deliver(context.Background(), NewLead(validLeadInput())))
	})

	t.Run("transport error ignored", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // unreachable endpoint

		sink := NewSheetSink(sinkTestStore(server.URL), false)
		assert.NoError(t, sink.Deliver(context.Background(), NewLead(validLeadInput())))
	})
}

// withSubmitPipeline swaps the handler globals for one test and restores them
// afterwards.
func withSubmitPipeline(t *testing.T, store *SettingsStore, sink SubmissionSink) {
	t.Helper()
	prevStore, prevSink, prevPow := settingsStore, leadSink, powChallengeStore
	settingsStore, leadSink, powChallengeStore = store, sink, NewChallengeStore()
	t.Cleanup(func() {
		settingsStore, leadSink, powChallengeStore = prevStore, prevSink, prevPow
	})
}

func postSubmit(t *testing.T, input LeadInput) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(input)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	SubmitLead(w, req)
	return w
}

func TestSubmitLeadSuccess(t *testing.T) {
	var delivered int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&delivered, 1)
	}))
	defer server.Close()

	store := sinkTestStore(server.URL)
	withSubmitPipeline(t, store, NewSheetSink(store, true))

	w := postSubmit(t, validLeadInput())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), atomic.LoadInt64(&delivered))

	var resp submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Thank you for signing up!", resp.ThankYouMessage)
	assert.Equal(t, compiledReviewURL, resp.RedirectURL)
	assert.Equal(t, 3000, resp.RedirectDelay)
}

func TestSubmitLeadValidationBlocksDelivery(t *testing.T) {
	var delivered int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&delivered, 1)
	}))
	defer server.Close()

	store := sinkTestStore(server.URL)
	withSubmitPipeline(t, store, NewSheetSink(store, true))

	input := validLeadInput()
	input.Company = ""
	w := postSubmit(t, input)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), atomic.LoadInt64(&delivered), "no network call for invalid input")
}

func TestSubmitLeadObservedFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	store := sinkTestStore(server.URL)
	withSubmitPipeline(t, store, NewSheetSink(store, true))

	w := postSubmit(t, validLeadInput())
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// a fresh manual submission triggers exactly one new attempt
	w = postSubmit(t, validLeadInput())
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSubmitLeadFireAndForgetReportsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := sinkTestStore(server.URL)
	withSubmitPipeline(t, store, NewSheetSink(store, false))

	w := postSubmit(t, validLeadInput())
	assert.Equal(t, http.StatusOK, w.Code)
}
