package main

import (
	"fmt"
	"net/http"

	"pats-app-go/config"
	"pats-app-go/database"
	"pats-app-go/handlers"
	"pats-app-go/logging"
	"pats-app-go/metrics"
	"pats-app-go/services"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Configure(logging.Config{
		Level:       cfg.Logging.Level,
		Prefix:      cfg.Logging.Prefix,
		EnableColor: cfg.Logging.EnableColor,
	})
	logger := logging.WithPrefix("Main")

	// Connect to MongoDB; fall back to the in-memory store so the app
	// still comes up for development without a database.
	var store database.StateStore
	db, err := database.NewMongoConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		if !cfg.App.IsDevelopment {
			logger.Fatalf("Database connection failed: %v", err)
		}
		logger.Warnf("Database connection failed: %v", err)
		logger.Warn("Continuing with in-memory store; state will not survive restarts")
		store = database.NewMemoryStore()
	} else {
		defer db.Close()
		store = database.NewMongoStateStore(db)
	}

	// Build the core: standings cache, session manager, ledger admin.
	standingsService := services.NewStandingsService(store, cfg.App.StandingsCacheTTL)
	sessionService := services.NewSessionService(store, standingsService)
	userService := services.NewUserService(store)

	sessionHandler := handlers.NewSessionHandler(sessionService, standingsService)
	userHandler := handlers.NewUserHandler(userService)

	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	// Presentation surface
	r.HandleFunc("/sessions/active", sessionHandler.GetActiveSession).Methods("GET")
	r.HandleFunc("/sessions/history", sessionHandler.GetHistory).Methods("GET")
	r.HandleFunc("/sessions/{id}", sessionHandler.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}/standings", sessionHandler.GetStandings).Methods("GET")
	r.HandleFunc("/sessions/{id}/picks", sessionHandler.RecordPick).Methods("POST")
	r.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	r.HandleFunc("/users/{id}/stats", userHandler.GetUserStats).Methods("GET")

	// Ingestion surface (score poller)
	r.HandleFunc("/sessions/{id}/results", sessionHandler.ApplyResult).Methods("POST")

	// Administration surface
	r.HandleFunc("/sessions", sessionHandler.CreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}/close", sessionHandler.CloseSession).Methods("POST")
	r.HandleFunc("/sessions/{id}/reopen", sessionHandler.ReopenSession).Methods("POST")
	r.HandleFunc("/sessions/{id}/spreads", sessionHandler.RefreshSpreads).Methods("POST")
	r.HandleFunc("/users", userHandler.AddUser).Methods("POST")
	r.HandleFunc("/users/{id}", userHandler.EditUser).Methods("PUT")
	r.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods("DELETE")

	// Ops
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
