package main

// SettingsEdit is the untrusted, possibly partially populated object emitted
// by the admin panel on save. Locked integration fields are decoded so that
// tampering attempts can be observed in logs, but the merger discards them.
type SettingsEdit struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	ButtonText      string `json:"buttonText"`
	ThankYouMessage string `json:"thankYouMessage"`
	RedirectDelay   *int   `json:"redirectDelay"`

	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
	LogoURL         string `json:"logoUrl"`

	ReviewPageURLs map[string]string `json:"reviewPageUrls"`
	SheetEndpoint  string            `json:"sheetEndpoint"`
}

// EffectiveSettings resolves the configuration consumed by the form and admin
// surfaces. Per-field precedence, highest wins:
//
//  1. locked fields: always the store's current value
//  2. non-locked: non-empty admin edit > non-empty persisted snapshot > store
//
// "Non-empty" is a non-"" string, or a delay >= 0. Merging never fails; the
// chain terminates at the store, which is always fully populated.
func EffectiveSettings(store *SettingsStore, persisted *FormSettings, edit *SettingsEdit) FormSettings {
	eff := store.Get()

	if persisted != nil {
		overlayText(&eff.Title, persisted.Title)
		overlayText(&eff.Subtitle, persisted.Subtitle)
		overlayText(&eff.ButtonText, persisted.ButtonText)
		overlayText(&eff.ThankYouMessage, persisted.ThankYouMessage)
		overlayText(&eff.PrimaryColor, persisted.PrimaryColor)
		overlayText(&eff.SecondaryColor, persisted.SecondaryColor)
		overlayText(&eff.BackgroundColor, persisted.BackgroundColor)
		overlayText(&eff.TextColor, persisted.TextColor)
		overlayText(&eff.FontFamily, persisted.FontFamily)
		overlayText(&eff.LogoURL, persisted.LogoURL)
		if persisted.RedirectDelay >= 0 {
			eff.RedirectDelay = persisted.RedirectDelay
		}
	}

	if edit != nil {
		overlayText(&eff.Title, edit.Title)
		overlayText(&eff.Subtitle, edit.Subtitle)
		overlayText(&eff.ButtonText, edit.ButtonText)
		overlayText(&eff.ThankYouMessage, edit.ThankYouMessage)
		overlayText(&eff.PrimaryColor, edit.PrimaryColor)
		overlayText(&eff.SecondaryColor, edit.SecondaryColor)
		overlayText(&eff.BackgroundColor, edit.BackgroundColor)
		overlayText(&eff.TextColor, edit.TextColor)
		overlayText(&eff.FontFamily, edit.FontFamily)
		overlayText(&eff.LogoURL, edit.LogoURL)
		if edit.RedirectDelay != nil && *edit.RedirectDelay >= 0 {
			eff.RedirectDelay = *edit.RedirectDelay
		}
	}

	return Relock(store, eff)
}

// Relock overwrites the locked integration fields with the store's current
// values. EffectiveSettings never copies them from lower layers in the first
// place, but every configuration is re-locked before it is persisted or
// applied, so a tampered snapshot or edit can never survive a save cycle.
func Relock(store *SettingsStore, s FormSettings) FormSettings {
	cur := store.Get()
	s.SheetEndpoint = cur.SheetEndpoint
	s.ReviewPageURLs = cur.ReviewPageURLs
	return s
}
