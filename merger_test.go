package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	compiledEndpoint  = "https://script.google.com/macros/s/COMPILED-ID/exec"
	compiledReviewURL = "https://www.google.com/maps/place/DoubleTree/reviews"
)

func newTestStore() *SettingsStore {
	defaults := FormSettings{
		Title:           "Sign Up Form",
		Subtitle:        "Please fill in your details to continue to our review page",
		ButtonText:      "Submit & Continue to Review",
		ThankYouMessage: "Thank you for signing up!",
		RedirectDelay:   3000,
		PrimaryColor:    "#3B82F6",
		SecondaryColor:  "#9b87f5",
		BackgroundColor: "#F9FAFB",
		TextColor:       "#1F2937",
		FontFamily:      "Inter",
		LogoURL:         "",
		ReviewPageURLs: map[string]string{
			"doubletree":  compiledReviewURL,
			"home2suites": "https://www.google.com/maps/place/Home2Suites/reviews",
		},
		SheetEndpoint: compiledEndpoint,
	}
	properties := []Property{
		{ID: "doubletree", Label: "DoubleTree by Hilton"},
		{ID: "home2suites", Label: "Home2 Suites by Hilton"},
	}
	return NewSettingsStore(defaults, properties)
}

func TestEffectiveSettingsDefaultsOnly(t *testing.T) {
	store := newTestStore()

	eff := EffectiveSettings(store, nil, nil)

	assert.Equal(t, store.Get(), eff)
}

func TestEffectiveSettingsPersistedWins(t *testing.T) {
	store := newTestStore()
	persisted := &FormSettings{
		Title:         "Welcome back",
		PrimaryColor:  "#000000",
		RedirectDelay: 1500,
	}

	eff := EffectiveSettings(store, persisted, nil)

	assert.Equal(t, "Welcome back", eff.Title)
	assert.Equal(t, "#000000", eff.PrimaryColor)
	assert.Equal(t, 1500, eff.RedirectDelay)
	// fields the snapshot leaves empty fall back to defaults
	assert.Equal(t, "Submit & Continue to Review", eff.ButtonText)
	assert.Equal(t, "Inter", eff.FontFamily)
}

func TestEffectiveSettingsEditWinsOverPersisted(t *testing.T) {
	store := newTestStore()
	persisted := &FormSettings{Title: "Persisted title", Subtitle: "Persisted subtitle"}
	edit := &SettingsEdit{Title: "Edited title"}

	eff := EffectiveSettings(store, persisted, edit)

	assert.Equal(t, "Edited title", eff.Title)
	assert.Equal(t, "Persisted subtitle", eff.Subtitle)
}

func TestEffectiveSettingsLockedFieldsNeverOverridden(t *testing.T) {
	store := newTestStore()
	persisted := &FormSettings{
		SheetEndpoint:  "https://evil.example/exec",
		ReviewPageURLs: map[string]string{"doubletree": "https://evil.example/reviews"},
	}
	edit := &SettingsEdit{
		SheetEndpoint:  "https://evil.example/exec",
		ReviewPageURLs: map[string]string{"doubletree": "https://evil.example/reviews"},
	}

	eff := EffectiveSettings(store, persisted, edit)

	assert.Equal(t, compiledEndpoint, eff.SheetEndpoint)
	assert.Equal(t, compiledReviewURL, eff.ReviewPageURLs["doubletree"])
}

func TestEffectiveSettingsRedirectDelayRules(t *testing.T) {
	store := newTestStore()

	t.Run("absent edit delay falls back to persisted", func(t *testing.T) {
		persisted := &FormSettings{RedirectDelay: 500}
		eff := EffectiveSettings(store, persisted, &SettingsEdit{})
		assert.Equal(t, 500, eff.RedirectDelay)
	})

	t.Run("zero is a valid delay", func(t *testing.T) {
		zero := 0
		eff := EffectiveSettings(store, nil, &SettingsEdit{RedirectDelay: &zero})
		assert.Equal(t, 0, eff.RedirectDelay)
	})

	t.Run("negative edit delay is ignored", func(t *testing.T) {
		negative := -5
		eff := EffectiveSettings(store, nil, &SettingsEdit{RedirectDelay: &negative})
		assert.Equal(t, 3000, eff.RedirectDelay)
	})

	t.Run("negative persisted delay is ignored", func(t *testing.T) {
		persisted := &FormSettings{RedirectDelay: -1}
		eff := EffectiveSettings(store, persisted, nil)
		assert.Equal(t, 3000, eff.RedirectDelay)
	})
}

func TestRelock(t *testing.T) {
	store := newTestStore()
	tampered := store.Get()
	tampered.SheetEndpoint = "https://evil.example/exec"
	tampered.ReviewPageURLs["doubletree"] = "https://evil.example/reviews"
	tampered.Title = "Still editable"

	relocked := Relock(store, tampered)

	require.Equal(t, compiledEndpoint, relocked.SheetEndpoint)
	require.Equal(t, compiledReviewURL, relocked.ReviewPageURLs["doubletree"])
	assert.Equal(t, "Still editable", relocked.Title)
}
