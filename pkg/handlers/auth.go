package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const (
	sessionTokenKey = "access_token"
	sessionStateKey = "oauth_state"
)

func (s *Server) AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	token := session.Get(sessionTokenKey)
	if token == nil {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		} else {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		}
		return
	}
	c.Next()
}

func (s *Server) GithubLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.String(http.StatusInternalServerError, "Could not start login")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionStateKey, state)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Could not save session")
		return
	}

	url := s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (s *Server) AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	expected, _ := session.Get(sessionStateKey).(string)
	if expected == "" || c.Query("state") != expected {
		c.String(http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	session.Delete(sessionStateKey)

	token, err := s.oauth.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		s.logger.Warn().Err(err).Msg("OAuth exchange failed")
		c.String(http.StatusInternalServerError, "OAuth Exchange Failed")
		return
	}

	session.Set(sessionTokenKey, token.AccessToken)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Could not save session")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/login")
}

func sessionToken(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(sessionTokenKey).(string)
	return token
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
