package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/repository/postgres"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/account"
	"github.com/iamasit07/tic-tac-toe/backend/internal/transport/http/middleware"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/httputil"
	"github.com/rs/zerolog/log"
)

const profileCacheTTL = time.Minute

type Disconnector interface {
	DisconnectUser(userID int64, reason string)
}

type LeaderboardSource interface {
	GetLeaderboard(limit int) ([]postgres.PlayerStats, error)
}

type AuthHandler struct {
	Accounts    *account.Service
	Leaderboard LeaderboardSource
	ConnManager Disconnector            // Optional, can be nil
	Cache       account.CacheRepository // Optional, can be nil
	Production  bool
}

func NewAuthHandler(accounts *account.Service, leaderboard LeaderboardSource, cm Disconnector, cache account.CacheRepository, production bool) *AuthHandler {
	return &AuthHandler{
		Accounts:    accounts,
		Leaderboard: leaderboard,
		ConnManager: cm,
		Cache:       cache,
		Production:  production,
	}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Draws       int    `json:"draws"`
	Losses      int    `json:"losses"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		GamesPlayed: u.GamesPlayed,
		Wins:        u.GamesWon,
		Draws:       u.GamesDrawn,
		Losses:      u.GamesPlayed - u.GamesWon - u.GamesDrawn,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, token, err := h.Accounts.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrInvalidUsername), errors.Is(err, domain.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Error().Err(err).Msg("[AUTH] Register failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	httputil.SetAuthCookie(c.Writer, token, h.Accounts.TokenTTL(), h.Production)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": toUserResponse(user)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, token, err := h.Accounts.Login(req.Username, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("[AUTH] Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// One live socket per user: a new login closes the old one.
	if h.ConnManager != nil {
		h.ConnManager.DisconnectUser(user.ID, "Logged in from another device")
	}

	httputil.SetAuthCookie(c.Writer, token, h.Accounts.TokenTTL(), h.Production)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": toUserResponse(user)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if ok {
		if err := h.Accounts.Logout(c.Request.Context(), claims); err != nil {
			log.Warn().Err(err).Int64("user_id", claims.UserID).Msg("[AUTH] Failed to blocklist session")
		}
		if h.ConnManager != nil {
			h.ConnManager.DisconnectUser(claims.UserID, "Logged out")
		}
		h.dropProfile(c.Request.Context(), claims.UserID)
	}

	httputil.ClearAuthCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	cacheKey := profileKey(userID)

	if h.Cache != nil {
		if cached, err := h.Cache.Get(c.Request.Context(), cacheKey); err == nil && cached != "" {
			var resp userResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.Header("X-Cache", "HIT")
				c.JSON(http.StatusOK, gin.H{"user": resp})
				return
			}
		}
	}

	user, err := h.Accounts.Me(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	resp := toUserResponse(user)
	if h.Cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			h.Cache.Set(c.Request.Context(), cacheKey, data, profileCacheTTL)
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, gin.H{"user": resp})
}

func (h *AuthHandler) GetLeaderboard(c *gin.Context) {
	limit := queryLimit(c, 10, 100)

	stats, err := h.Leaderboard.GetLeaderboard(limit)
	if err != nil {
		log.Error().Err(err).Msg("[AUTH] Failed to fetch leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AuthHandler) dropProfile(ctx context.Context, userID int64) {
	if h.Cache != nil {
		h.Cache.Del(ctx, profileKey(userID))
	}
}

func profileKey(userID int64) string {
	return fmt.Sprintf("user_profile:%d", userID)
}

// queryLimit reads ?limit=, falling back to def and capping at max.
func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
