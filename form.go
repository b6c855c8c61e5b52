package main

import (
	"bytes"
	"log"
	"net/http"

	"html/template"
	"path/filepath"

	"leadform/constants"

	"github.com/spf13/viper"
)

var formTemplate *template.Template = loadFormTemplate()

func loadFormTemplate() *template.Template {
	templates, err := template.ParseFiles(filepath.Join("templates", "form_page.html"))
	if err != nil {
		log.Fatalf("Error parsing form page template: %v", err)
	}
	return templates
}

type formPageData struct {
	Settings   FormSettings
	Properties []Property
	PowEnabled bool
}

// FormPage serves the sign-up form rendered from the effective settings.
// Rendered pages are cached per settings revision; an admin save moves the
// revision forward so visitors see the new configuration immediately.
func FormPage(w http.ResponseWriter, r *http.Request) {
	allowedOrigins := viper.GetString("server.allowed_origins")
	matchedOrigin, allowed := checkOriginAllowed(r, allowedOrigins)
	if !allowed {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}
	setOriginHeaders(w, allowedOrigins, matchedOrigin, true)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if constants.DEBUG_MODE {
		formTemplate = loadFormTemplate()
	}

	revision := settingsStore.Revision()
	if body, ok := pageCache.Get(revision); ok {
		w.Write(body)
		return
	}

	data := formPageData{
		Settings:   settingsStore.Get(),
		Properties: settingsStore.Properties(),
		PowEnabled: viper.GetBool("security.pow_enabled"),
	}

	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pageCache.Set(revision, buf.Bytes())
	w.Write(buf.Bytes())
}
