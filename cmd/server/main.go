package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/cleancity/rewards-service/auth"
	"github.com/cleancity/rewards-service/internal/config"
	"github.com/cleancity/rewards-service/internal/httpapi"
	"github.com/cleancity/rewards-service/internal/rewards"
	"github.com/cleancity/rewards-service/logging"
	"github.com/cleancity/rewards-service/server"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("rewards-service")

	var repo rewards.Repository
	switch cfg.DataStore {
	case "memory":
		repo = rewards.NewMemoryRepository()
	default:
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			panic(fmt.Errorf("firestore client: %w", err))
		}
		defer client.Close()
		repo = rewards.NewFirestoreRepository(client)
	}

	rewardsService := rewards.NewService(repo)

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     auth.Mode(cfg.Auth.Mode),
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := server.NewRouter("rewards-service", func(r chi.Router) {
		httpapi.RegisterRoutes(r, rewardsService, verifier, logger)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
