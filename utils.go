package main

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"leadform/constants"
)

// Theme values end up inside a style block on the rendered form page, so
// anything that could break out of CSS context is rejected outright.
var themeValueCheckPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[<>{};]`),
	regexp.MustCompile(`(?i)expression\(`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)url\(`),
	regexp.MustCompile(`(?i)@import`),
	regexp.MustCompile(`(?i)data:`),
	regexp.MustCompile(`(?i)behavior:`),
	regexp.MustCompile(`/\*`),
}

// validateThemeValue checks one color-like or font-family string from an
// admin edit. Values are not format-validated (any color notation is fine),
// only screened for injection vectors.
func validateThemeValue(name, value string) error {
	if value == "" {
		return nil
	}
	if len(value) > constants.MAX_THEME_VALUE_LENGTH {
		return fmt.Errorf("%s is too long, maximum is %d characters", name, constants.MAX_THEME_VALUE_LENGTH)
	}
	for _, re := range themeValueCheckPatterns {
		if re.MatchString(value) {
			return fmt.Errorf("%s contains disallowed content", name)
		}
	}
	return nil
}

// validateLogoURL accepts an empty value, a site-relative path, or an
// absolute http(s) URL.
func validateLogoURL(value string) error {
	if value == "" {
		return nil
	}
	if len(value) > constants.MAX_THEME_VALUE_LENGTH {
		return fmt.Errorf("logo URL is too long, maximum is %d characters", constants.MAX_THEME_VALUE_LENGTH)
	}
	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid logo URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("logo URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("logo URL is missing a host")
	}
	return nil
}

// validateSettingsEdit screens the untrusted admin edit before it reaches the
// merger. Only theme-ish fields need screening; plain copy fields are
// rendered escaped by html/template.
func validateSettingsEdit(edit SettingsEdit) error {
	checks := []struct {
		name  string
		value string
	}{
		{"primary color", edit.PrimaryColor},
		{"secondary color", edit.SecondaryColor},
		{"background color", edit.BackgroundColor},
		{"text color", edit.TextColor},
		{"font family", edit.FontFamily},
	}
	for _, c := range checks {
		if err := validateThemeValue(c.name, c.value); err != nil {
			return err
		}
	}
	return validateLogoURL(edit.LogoURL)
}

// parseAllowedOrigins splits a comma-separated allowed-origins string into
// a cleaned slice of origin strings. Returns nil if the input is empty.
func parseAllowedOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var origins []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimRight(p, "/")
		if p != "" {
			origins = append(origins, strings.ToLower(p))
		}
	}
	return origins
}

// originFromRequest extracts the origin from the request's Origin header,
// falling back to deriving it from the Referer header. Returns empty string
// if neither is present.
func originFromRequest(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin != "" && origin != "null" {
		return strings.ToLower(strings.TrimRight(origin, "/"))
	}
	ref := r.Header.Get("Referer")
	if ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Host != "" {
			return strings.ToLower(u.Scheme + "://" + u.Host)
		}
	}
	return ""
}

// checkOriginAllowed checks whether the request origin is allowed under the
// operator's allowed-origins setting. If the setting is empty, all origins
// are allowed and ("*", true) is returned. Otherwise the request origin is
// matched against the list and (matchedOrigin, true) or ("", false) is
// returned.
func checkOriginAllowed(r *http.Request, allowedOrigins string) (matchedOrigin string, allowed bool) {
	origins := parseAllowedOrigins(allowedOrigins)
	if len(origins) == 0 {
		return "*", true
	}

	reqOrigin := originFromRequest(r)
	if reqOrigin == "" {
		// No origin header — direct browser navigation, curl, etc. Allow it.
		return "", true
	}

	for _, o := range origins {
		if reqOrigin == o {
			return o, true
		}
	}
	return "", false
}

// setOriginHeaders sets CORS and CSP headers on the response based on the
// allowed-origins setting. If isPage is true, a Content-Security-Policy
// frame-ancestors directive is also set so only listed sites may embed the
// form in an iframe.
func setOriginHeaders(w http.ResponseWriter, allowedOrigins string, matchedOrigin string, isPage bool) {
	origins := parseAllowedOrigins(allowedOrigins)

	if len(origins) > 0 {
		// Override the global CORS wildcard with the specific matched origin.
		if matchedOrigin != "" && matchedOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Origin", matchedOrigin)
			w.Header().Set("Vary", "Origin")
		}
		if isPage {
			w.Header().Set("Content-Security-Policy", "frame-ancestors 'self' "+strings.Join(origins, " "))
		}
	}
}
