package main

import (
	"sync"

	"github.com/spf13/viper"
)

// FormSettings is the full configuration consumed by the form and admin
// surfaces. SheetEndpoint and ReviewPageURLs are locked: their values only
// ever originate from the SettingsStore, never from a persisted snapshot or
// an admin edit.
type FormSettings struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	ButtonText      string `json:"buttonText"`
	ThankYouMessage string `json:"thankYouMessage"`
	RedirectDelay   int    `json:"redirectDelay"` // milliseconds

	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
	LogoURL         string `json:"logoUrl"`

	// locked integration fields
	ReviewPageURLs map[string]string `json:"reviewPageUrls"`
	SheetEndpoint  string            `json:"sheetEndpoint"`
}

// Property is one selectable business entity on the form. The catalogue is
// operator configuration, not admin-editable.
type Property struct {
	ID      string `json:"id" mapstructure:"id"`
	Label   string `json:"label" mapstructure:"label"`
	LogoURL string `json:"logoUrl" mapstructure:"logo_url"`
}

// SettingsStore holds the current authoritative form settings. All reads and
// updates go through it so locked-field enforcement has a single choke point.
type SettingsStore struct {
	mu         sync.RWMutex
	current    FormSettings
	properties []Property
	revision   uint64
}

func NewSettingsStore(defaults FormSettings, properties []Property) *SettingsStore {
	return &SettingsStore{current: defaults, properties: properties}
}

// Get returns a snapshot copy of the current settings. The ReviewPageURLs map
// is copied so callers can't mutate the store through the snapshot.
func (s *SettingsStore) Get() FormSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.current)
}

// ApplyNonLockedUpdates overwrites the content and theme fields with values
// from update. Empty text fields and negative delays are ignored (previous
// value retained). SheetEndpoint and ReviewPageURLs are never modified.
func (s *SettingsStore) ApplyNonLockedUpdates(update FormSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overlayText(&s.current.Title, update.Title)
	overlayText(&s.current.Subtitle, update.Subtitle)
	overlayText(&s.current.ButtonText, update.ButtonText)
	overlayText(&s.current.ThankYouMessage, update.ThankYouMessage)
	overlayText(&s.current.PrimaryColor, update.PrimaryColor)
	overlayText(&s.current.SecondaryColor, update.SecondaryColor)
	overlayText(&s.current.BackgroundColor, update.BackgroundColor)
	overlayText(&s.current.TextColor, update.TextColor)
	overlayText(&s.current.FontFamily, update.FontFamily)
	overlayText(&s.current.LogoURL, update.LogoURL)
	if update.RedirectDelay >= 0 {
		s.current.RedirectDelay = update.RedirectDelay
	}
	s.revision++
}

// Revision increases on every applied update; used as the render cache key.
func (s *SettingsStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *SettingsStore) Properties() []Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Property, len(s.properties))
	copy(out, s.properties)
	return out
}

// ReviewURL resolves the entity-specific destination URL for a property.
func (s *SettingsStore) ReviewURL(propertyID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	url, ok := s.current.ReviewPageURLs[propertyID]
	return url, ok
}

func (s *SettingsStore) HasProperty(propertyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.properties {
		if p.ID == propertyID {
			return true
		}
	}
	return false
}

func copySettings(in FormSettings) FormSettings {
	out := in
	out.ReviewPageURLs = make(map[string]string, len(in.ReviewPageURLs))
	for k, v := range in.ReviewPageURLs {
		out.ReviewPageURLs[k] = v
	}
	return out
}

func overlayText(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// defaultFormSettings builds the compiled-in defaults, with the integration
// targets taken from operator configuration. These values seed the
// SettingsStore at process start; they are the terminal layer of the merge
// precedence chain.
func defaultFormSettings() FormSettings {
	return FormSettings{
		Title:           "Sign Up Form",
		Subtitle:        "Please fill in your details to continue to our review page",
		ButtonText:      "Submit & Continue to Review",
		ThankYouMessage: "Thank you for signing up! You'll be redirected to our review page shortly.",
		RedirectDelay:   3000,

		PrimaryColor:    "#3B82F6",
		SecondaryColor:  "#9b87f5",
		BackgroundColor: "#F9FAFB",
		TextColor:       "#1F2937",
		FontFamily:      "Inter",
		LogoURL:         "",

		ReviewPageURLs: viper.GetStringMapString("integration.review_urls"),
		SheetEndpoint:  viper.GetString("integration.sheet_endpoint"),
	}
}

func configuredProperties() []Property {
	var props []Property
	if err := viper.UnmarshalKey("integration.properties", &props); err != nil || len(props) == 0 {
		return defaultProperties()
	}
	return props
}

func defaultProperties() []Property {
	return []Property{
		{ID: "doubletree", Label: "DoubleTree by Hilton", LogoURL: "/static/logos/doubletree.png"},
		{ID: "home2suites", Label: "Home2 Suites by Hilton", LogoURL: "/static/logos/home2suites.png"},
	}
}

// setConfigDefaults registers viper fallbacks so a missing config file still
// yields a fully populated configuration.
func setConfigDefaults() {
	viper.SetDefault("server.addr", ":6235")
	viper.SetDefault("server.allowed_origins", "")
	viper.SetDefault("server.rate_limit_per_minute", 10)

	viper.SetDefault("integration.sheet_endpoint",
		"https://script.google.com/macros/s/YOUR-APPS-SCRIPT-ID/exec")
	viper.SetDefault("integration.review_urls", map[string]string{
		"doubletree":  "https://www.google.com/maps/place/DoubleTree/reviews",
		"home2suites": "https://www.google.com/maps/place/Home2Suites/reviews",
	})
	// fire-and-forget by default: the Apps Script endpoint does not expose a
	// readable cross-origin response, so delivery outcome is assumed.
	viper.SetDefault("integration.observable", false)

	viper.SetDefault("db.path", "leadform.db")

	viper.SetDefault("security.pow_enabled", false)

	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", "587")
	viper.SetDefault("smtp.notify_leads", false)
}
