package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fatih/color"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/spf13/viper"

	"gorm.io/driver/sqlite"
)

var (
	db            *gorm.DB
	settingsStore *SettingsStore
	snapshotStore *SnapshotStore
	pageCache     *PageCache
	leadSink      SubmissionSink
)

func main() {
	initConfig()
	initDatabase(viper.GetString("db.path"))
	initPipeline()

	r := initRouter()

	addr := viper.GetString("server.addr")
	displayStartupConfig(addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	setConfigDefaults()

	viper.SetEnvPrefix("LEADFORM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file loaded, using defaults: %v", err)
	}
}

func initDatabase(path string) {
	var err error
	db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Migrate the schema
	err = db.AutoMigrate(&SettingsSnapshot{}, &AdminUser{})
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
}

// initPipeline wires the configuration flow: compiled-in defaults seed the
// store, a persisted snapshot (if parsable) is merged over the non-locked
// fields, and the sink is bound to the store so delivery always uses the
// locked endpoint.
func initPipeline() {
	settingsStore = NewSettingsStore(defaultFormSettings(), configuredProperties())
	snapshotStore = NewSnapshotStore(db)

	if persisted, ok := snapshotStore.Load(); ok {
		settingsStore.ApplyNonLockedUpdates(EffectiveSettings(settingsStore, persisted, nil))
	}

	var err error
	pageCache, err = NewPageCache(16, 5*time.Minute)
	if err != nil {
		log.Fatalf("failed to initialize page cache: %v", err)
	}

	leadSink = NewSheetSink(settingsStore, viper.GetBool("integration.observable"))

	powChallengeStore = NewChallengeStore()
	if viper.GetBool("security.pow_enabled") {
		powChallengeStore.StartCleanupLoop()
	}
}

func initRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", FormPage)
	r.Get("/api/pow-challenge", PowChallengeHandler)
	r.With(httprate.LimitByIP(viper.GetInt("server.rate_limit_per_minute"), time.Minute)).
		Post("/api/submit", SubmitLead)

	r.With(AdminAuthMiddleware).Route("/admin", func(r chi.Router) {
		r.Get("/", AdminPanel)

		r.Get("/signin", AdminSignIn)
		r.Post("/signin", AdminSignIn)

		r.Get("/signup", AdminSignUp)
		r.Post("/signup", AdminSignUp)

		r.Get("/logout", AdminLogout)

		r.Post("/settings", AdminSaveSettings)
	})

	fileServer := http.FileServer(http.Dir("static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	return r
}

func corsOrigins() []string {
	origins := parseAllowedOrigins(viper.GetString("server.allowed_origins"))
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func displayStartupConfig(addr string) {
	settings := settingsStore.Get()

	color.Cyan("leadform")
	log.Printf("Running on http://localhost%s", addr)
	log.Printf("Form title: %q", settings.Title)
	log.Printf("Sheet endpoint: %s", settings.SheetEndpoint)
	for id, url := range settings.ReviewPageURLs {
		log.Printf("Review URL [%s]: %s", id, url)
	}
	if viper.GetBool("integration.observable") {
		color.Green("Submission sink: observable (delivery outcome checked)")
	} else {
		color.Yellow("Submission sink: fire-and-forget (delivery assumed successful)")
	}
}
