package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cleancity/rewards-service/auth"
	"github.com/cleancity/rewards-service/internal/rewards"
)

const (
	serviceTimeout          = 8 * time.Second
	maxBodyBytes            = 64 * 1024
	defaultLeaderboardLimit = 100
)

// RegisterRoutes mounts the rewards API. The leaderboard is public with
// optional personalization; everything else requires an authenticated user.
func RegisterRoutes(r chi.Router, service rewards.Service, verifier auth.Verifier, logger *slog.Logger) {
	r.Route("/api/rewards", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalMiddleware(verifier))
			r.Get("/leaderboard", getLeaderboard(service, logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))

			r.Get("/my-rewards", getMyRewards(service, logger))
			r.Get("/achievements", getAchievements(service, logger))
			r.Get("/shop", getShop(service, logger))
			r.Post("/claim", claimReward(service, logger))
			r.Post("/credit", creditPoints(service, logger))
		})
	})
}

func getMyRewards(service rewards.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := contextUserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		view, err := service.MyRewards(ctx, userID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load rewards", err, userID)
			writeServiceError(w, err, "failed to load rewards")
			return
		}
		writeData(w, http.StatusOK, view)
	}
}

func getLeaderboard(service rewards.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeframe, err := rewards.ParseTimeframe(r.URL.Query().Get("timeframe"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "timeframe must be all, weekly or monthly")
			return
		}

		limit := defaultLeaderboardLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			if parsed < limit {
				limit = parsed
			}
		}

		viewerID := ""
		if user, ok := auth.UserFromContext(r.Context()); ok {
			viewerID = user.UserID
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		view, err := service.Leaderboard(ctx, timeframe, limit, viewerID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to build leaderboard", err, viewerID)
			writeServiceError(w, err, "failed to build leaderboard")
			return
		}
		writeData(w, http.StatusOK, view)
	}
}

func claimReward(service rewards.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := contextUserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		var body struct {
			RewardName string `json:"rewardName"`
			PointsCost int    `json:"pointsCost"`
		}
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.RewardName == "" {
			writeError(w, http.StatusBadRequest, "rewardName is required")
			return
		}
		if body.PointsCost <= 0 {
			writeError(w, http.StatusBadRequest, "pointsCost must be a positive integer")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		result, err := service.ClaimReward(ctx, userID, body.RewardName, body.PointsCost)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to claim reward", err, userID)
			writeServiceError(w, err, "failed to claim reward")
			return
		}

		writeData(w, http.StatusOK, map[string]any{
			"claimCode":       result.Claim.Code,
			"remainingPoints": result.RemainingPoints,
			"reward":          result.Claim,
		})
	}
}

func getAchievements(service rewards.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := contextUserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		statuses, err := service.Achievements(ctx, userID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load achievements", err, userID)
			writeServiceError(w, err, "failed to load achievements")
			return
		}
		writeData(w, http.StatusOK, statuses)
	}
}

func getShop(service rewards.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := contextUserID(r)

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		items, err := service.Shop(ctx, userID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load reward shop", err, userID)
			writeServiceError(w, err, "failed to load reward shop")
			return
		}
		writeData(w, http.StatusOK, items)
	}
}

// creditPoints is the internal endpoint the report, recycling and review
// services call after their own domain logic succeeds.
func creditPoints(service rewards.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := contextUserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		var body struct {
			Amount          int       `json:"amount"`
			Reason          string    `json:"reason"`
			Reports         int       `json:"reports"`
			ResolvedReports int       `json:"resolvedReports"`
			RecycledKG      float64   `json:"recycledKg"`
			At              time.Time `json:"at"`
		}
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		result, err := service.AddPoints(ctx, userID, rewards.Credit{
			Amount:          body.Amount,
			Reason:          body.Reason,
			Reports:         body.Reports,
			ResolvedReports: body.ResolvedReports,
			RecycledKG:      body.RecycledKG,
			At:              body.At,
		})
		if err != nil {
			logRequestError(r.Context(), logger, "failed to credit points", err, userID)
			writeServiceError(w, err, "failed to credit points")
			return
		}

		badges, levelUp := result.NotificationEvents()
		writeData(w, http.StatusOK, map[string]any{
			"points":        result.Account.Points,
			"totalPoints":   result.Account.TotalPoints,
			"level":         result.Account.Level,
			"appliedPoints": result.AppliedPoints,
			"awardedBadges": badges,
			"levelUp":       levelUp,
		})
	}
}

func contextUserID(r *http.Request) (string, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.UserID == "" {
		return "", false
	}
	return user.UserID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeServiceError maps engine sentinels to status codes without leaking
// internals; unexpected errors become an opaque 500 with the given message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, rewards.ErrInsufficientPoints):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rewards.ErrInvalidAmount), errors.Is(err, rewards.ErrInvalidTimeframe):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rewards.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "reward record not found")
	case errors.Is(err, rewards.ErrConflict):
		writeError(w, http.StatusConflict, "please retry the request")
	case errors.Is(err, rewards.ErrMissingUserID):
		writeError(w, http.StatusUnauthorized, "missing user ID")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("userId", userID),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.Error(message, attrs...)
}
