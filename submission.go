package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"leadform/constants"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// matches local-part "@" domain-with-dot, no whitespace
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Lead is one visitor submission. It is immutable once built and gets exactly
// one delivery attempt; it is never queued, retried, or stored locally.
type Lead struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Purpose  string `json:"purpose"`
	Property string `json:"selectedProperty"`
	// ISO-8601, set at construction time
	Timestamp string `json:"timestamp"`
}

// LeadInput is the raw visitor payload from the form page.
type LeadInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Purpose  string `json:"purpose"`
	Property string `json:"selectedProperty"`

	// proof-of-work fields, only checked when the challenge is enabled
	PowChallenge string `json:"powChallenge"`
	PowNonce     string `json:"powNonce"`
}

func NewLead(in LeadInput) Lead {
	return Lead{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		Purpose:   in.Purpose,
		Property:  in.Property,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ValidateLeadInput checks that every visitor field is present and the email
// address is well formed. A failed check blocks submission; no network call
// is made for invalid input.
func ValidateLeadInput(in LeadInput, store *SettingsStore) error {
	if in.Name == "" || in.Email == "" || in.Company == "" || in.Purpose == "" || in.Property == "" {
		return fmt.Errorf("please fill in all fields")
	}
	if len(in.Name) > constants.MAX_FIELD_LENGTH ||
		len(in.Email) > constants.MAX_FIELD_LENGTH ||
		len(in.Company) > constants.MAX_FIELD_LENGTH {
		return fmt.Errorf("field too long, maximum is %d characters", constants.MAX_FIELD_LENGTH)
	}
	if len(in.Purpose) > constants.MAX_PURPOSE_LENGTH {
		return fmt.Errorf("purpose too long, maximum is %d characters", constants.MAX_PURPOSE_LENGTH)
	}
	if !emailPattern.MatchString(in.Email) {
		return fmt.Errorf("please enter a valid email address")
	}
	if !store.HasProperty(in.Property) {
		return fmt.Errorf("unknown property %q", in.Property)
	}
	return nil
}

// SubmissionSink delivers a lead to the external spreadsheet receiver.
// Observable reports whether delivery outcome can actually be seen: a
// fire-and-forget sink always reports success because failure cannot be
// distinguished from success at the transport layer.
type SubmissionSink interface {
	Deliver(ctx context.Context, lead Lead) error
	Observable() bool
}

// SheetSink POSTs leads as JSON to the locked sheet endpoint from the
// settings store.
type SheetSink struct {
	store      *SettingsStore
	client     *http.Client
	observable bool
}

func NewSheetSink(store *SettingsStore, observable bool) *SheetSink {
	return &SheetSink{
		store:      store,
		client:     &http.Client{Timeout: 15 * time.Second},
		observable: observable,
	}
}

func (s *SheetSink) Observable() bool {
	return s.observable
}

func (s *SheetSink) Deliver(ctx context.Context, lead Lead) error {
	endpoint := s.store.Get().SheetEndpoint

	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("encoding lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if !s.observable {
			// assumed successful: outcome is not distinguishable in this mode
			log.Printf("WARN: Fire-and-forget delivery error ignored: %v", err)
			return nil
		}
		return fmt.Errorf("delivering lead: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if s.observable && resp.StatusCode >= 400 {
		return fmt.Errorf("sheet endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// submitResponse carries the thank-you state and redirect instruction back to
// the form page. The page opens the review URL in a new tab after the delay,
// so the thank-you message stays visible.
type submitResponse struct {
	Status          string `json:"status"`
	ThankYouMessage string `json:"thankYouMessage"`
	RedirectURL     string `json:"redirectUrl"`
	RedirectDelay   int    `json:"redirectDelay"`
}

// SubmitLead handles POST /api/submit.
func SubmitLead(w http.ResponseWriter, r *http.Request) {
	settings := settingsStore.Get()

	matchedOrigin, allowed := checkOriginAllowed(r, viper.GetString("server.allowed_origins"))
	if !allowed {
		writeJSONError(w, http.StatusForbidden, "origin not allowed")
		return
	}
	setOriginHeaders(w, viper.GetString("server.allowed_origins"), matchedOrigin, false)

	var input LeadInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if viper.GetBool("security.pow_enabled") {
		if !powChallengeStore.VerifyPow(input.PowChallenge, input.PowNonce) {
			writeJSONError(w, http.StatusBadRequest, "proof of work verification failed")
			return
		}
	}

	if err := ValidateLeadInput(input, settingsStore); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	lead := NewLead(input)
	if err := leadSink.Deliver(r.Context(), lead); err != nil {
		// retryable: the visitor's data is still in the form
		log.Printf("ERROR: Lead delivery failed: %v", err)
		writeJSONError(w, http.StatusBadGateway,
			"there was a problem submitting your information, please try again later")
		return
	}

	reviewURL, ok := settingsStore.ReviewURL(lead.Property)
	if !ok {
		// validated property without a review URL is an operator config gap;
		// the submission itself already succeeded
		log.Printf("WARN: No review URL configured for property %q", lead.Property)
	}

	go NotifyLead(lead)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submitResponse{
		Status:          "ok",
		ThankYouMessage: settings.ThankYouMessage,
		RedirectURL:     reviewURL,
		RedirectDelay:   settings.RedirectDelay,
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
