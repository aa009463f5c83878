package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/tic-tac-toe/backend/internal/config"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/account"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/httputil"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/uid"
	"github.com/rs/zerolog/log"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * 60
)

type OAuthHandler struct {
	Accounts    *account.Service
	Config      *config.OAuthConfig
	ConnManager Disconnector // Optional, can be nil
	FrontendURL string
	Production  bool
}

func NewOAuthHandler(accounts *account.Service, cfg *config.OAuthConfig, cm Disconnector, frontendURL string, production bool) *OAuthHandler {
	return &OAuthHandler{
		Accounts:    accounts,
		Config:      cfg,
		ConnManager: cm,
		FrontendURL: frontendURL,
		Production:  production,
	}
}

// GoogleLogin redirects the user to Google with a fresh state value, which
// the callback checks against the state cookie.
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	state, err := uid.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("[OAUTH] Failed to generate state")
		c.Redirect(http.StatusTemporaryRedirect, h.FrontendURL+"/login?error=server_error")
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	})
	c.Redirect(http.StatusTemporaryRedirect, h.Config.GoogleLoginConfig.AuthCodeURL(state))
}

// GoogleCallback handles the response from Google
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	http.SetCookie(c.Writer, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1, HttpOnly: true})
	if err != nil || state == "" || state != c.Query("state") {
		log.Warn().Msg("[OAUTH] State mismatch")
		c.Redirect(http.StatusTemporaryRedirect, h.FrontendURL+"/login?error=invalid_state")
		return
	}

	ctx := c.Request.Context()
	token, err := h.Config.GoogleLoginConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.Warn().Err(err).Msg("[OAUTH] Failed to exchange token")
		c.Redirect(http.StatusTemporaryRedirect, h.FrontendURL+"/login?error=auth_failed")
		return
	}

	info, err := h.Config.GetGoogleUserInfo(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("[OAUTH] Failed to get user info")
		c.Redirect(http.StatusTemporaryRedirect, h.FrontendURL+"/login?error=user_info_failed")
		return
	}

	user, jwt, err := h.Accounts.LoginWithGoogle(account.GoogleProfile{ID: info.ID, Email: info.Email, Name: info.Name})
	if err != nil {
		log.Error().Err(err).Msg("[OAUTH] Google sign-in failed")
		c.Redirect(http.StatusTemporaryRedirect, h.FrontendURL+"/login?error=server_error")
		return
	}

	if h.ConnManager != nil {
		h.ConnManager.DisconnectUser(user.ID, "Logged in from another device via Google")
	}

	httputil.SetAuthCookie(c.Writer, jwt, h.Accounts.TokenTTL(), h.Production)
	c.Redirect(http.StatusTemporaryRedirect, h.FrontendURL+"/dashboard")
}
