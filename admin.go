package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"log"
	"net/http"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
)

func renderAdminTemplate(w http.ResponseWriter, r *http.Request, tmpl string, data interface{}) {
	templateData := struct {
		CurrentUser *AdminUser
		Data        any
	}{
		CurrentUser: getSignedInAdminUserOrNil(r),
		Data:        data,
	}

	templatesDir := "templates/admin"

	templates, err := template.ParseFiles(
		filepath.Join(templatesDir, tmpl+".html"),
		filepath.Join(templatesDir, "layout.html"),
	)
	if err != nil {
		log.Fatalf("Error parsing templates: %v", err)
	}

	err = templates.ExecuteTemplate(w, tmpl+".html", templateData)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func getSignedInAdminUserOrNil(r *http.Request) *AdminUser {
	adminUser, _ := r.Context().Value("admin_user").(*AdminUser)
	return adminUser
}

func generateAuthToken() (string, error) {
	const tokenLength = 32
	tokenBytes := make([]byte, tokenLength)
	_, err := rand.Read(tokenBytes)
	if err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)
	return token, nil
}

func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/signin" && r.URL.Path != "/admin/signup" {
			cookie, err := r.Cookie("admin_token")
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/admin/signin", http.StatusSeeOther)
				return
			}

			// Validate the token and retrieve the corresponding admin user
			var admin AdminUser
			result := db.Where("session_token = ?", cookie.Value).First(&admin)
			if result.Error != nil {
				http.Redirect(w, r, "/admin/signin", http.StatusSeeOther)
				return
			}

			// Store the admin user in the context
			ctx := context.WithValue(r.Context(), "admin_user", &admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

func AdminSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		adminUser := getSignedInAdminUserOrNil(r)
		if adminUser == nil {
			renderAdminTemplate(w, r, "signin", nil)
			return
		} else {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}

	} else {
		username := r.FormValue("username")
		password := r.FormValue("password")

		var admin AdminUser
		result := db.Where("username = ?", username).First(&admin)
		if result.Error != nil {
			http.Error(w, "Invalid username", http.StatusUnauthorized)
			return
		}

		err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password))
		if err != nil {
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		// Generate a new token for the session
		token, err := generateAuthToken()
		if err != nil {
			http.Error(w, "Error signing in", http.StatusInternalServerError)
			return
		}
		admin.SessionToken = token
		db.Save(&admin)

		http.SetCookie(w, &http.Cookie{
			Name:  "admin_token",
			Value: token,
			Path:  "/",
		})

		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

// AdminSignUp creates the operator account. The service manages one form for
// one operator, so sign-up is closed once an account exists.
func AdminSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		adminUser := getSignedInAdminUserOrNil(r)
		if adminUser == nil {
			renderAdminTemplate(w, r, "signup", nil)
			return
		} else {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}

	} else {
		var count int64
		db.Model(&AdminUser{}).Count(&count)
		if count > 0 {
			http.Error(w, "An operator account already exists", http.StatusForbidden)
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")
		if username == "" || password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Error creating account: "+err.Error(), http.StatusInternalServerError)
			return
		}

		newAdmin := AdminUser{Username: username, PasswordHash: passwordHash}
		result := db.Create(&newAdmin)
		if result.Error != nil {
			http.Error(w, "Error creating account: "+result.Error.Error(), http.StatusInternalServerError)
			return
		}

		// Create a new token and store it in a cookie
		token, err := generateAuthToken()
		if err != nil {
			http.Error(w, "Error creating account: "+err.Error(), http.StatusInternalServerError)
			return
		}
		newAdmin.SessionToken = token
		db.Save(&newAdmin)

		http.SetCookie(w, &http.Cookie{
			Name:  "admin_token",
			Value: token,
			Path:  "/",
		})

		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

func AdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   "admin_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/admin/signin", http.StatusSeeOther)
}

// AdminPanel renders the side-panel editor bound to the effective settings.
// Locked integration fields are shown read-only.
func AdminPanel(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Settings   FormSettings
		Properties []Property
	}{
		Settings:   settingsStore.Get(),
		Properties: settingsStore.Properties(),
	}
	renderAdminTemplate(w, r, "panel", data)
}

// AdminSaveSettings handles POST /admin/settings. The submitted object is
// untrusted: it is screened, merged field by field against the persisted
// snapshot and the store defaults, re-locked, and only then persisted and
// applied.
func AdminSaveSettings(w http.ResponseWriter, r *http.Request) {
	var edit SettingsEdit
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&edit); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}

	current := settingsStore.Get()
	if edit.SheetEndpoint != "" && edit.SheetEndpoint != current.SheetEndpoint {
		log.Printf("WARN: Discarding attempted sheet endpoint override from admin edit")
	}
	if len(edit.ReviewPageURLs) > 0 {
		log.Printf("WARN: Discarding attempted review URL override from admin edit")
	}

	if err := validateSettingsEdit(edit); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	persisted, _ := snapshotStore.Load()
	effective := EffectiveSettings(settingsStore, persisted, &edit)

	snapshotStore.Save(effective)
	settingsStore.ApplyNonLockedUpdates(effective)
	pageCache.Invalidate()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settingsStore.Get())
}
