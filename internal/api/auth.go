package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/catalogforge/enrichment-engine/internal/db"
)

// claimsKey is the gin context key AuthMiddleware stores the parsed
// claims under, so downstream handlers can read the caller's identity.
const claimsKey = "authClaims"

// userClaims is the bearer-token payload of §6.1: {id, email, name},
// signed HS256, valid 7 days, renewable via POST /auth/refresh.
type userClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

func (h *APIHandler) signToken(u *db.User) (string, error) {
	now := time.Now()
	claims := userClaims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.Deps.Cfg.JWTRefreshWindow)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Deps.Cfg.JWTSecret))
}

func (h *APIHandler) parseToken(raw string) (*userClaims, error) {
	var claims userClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(h.Deps.Cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// AuthMiddleware requires a valid bearer token and stores its claims in
// the request context; absence or invalidity yields 401 (§6.1).
func (h *APIHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondErr(c, http.StatusUnauthorized, "AuthExpired", "missing bearer token")
			c.Abort()
			return
		}
		claims, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondErr(c, http.StatusUnauthorized, "AuthExpired", "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin verifies {email,password} against bcrypt-hashed
// credentials and mints a bearer token (§6.1).
func (h *APIHandler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}

	u, err := h.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondErr(c, http.StatusUnauthorized, "AuthExpired", "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		respondErr(c, http.StatusUnauthorized, "AuthExpired", "invalid email or password")
		return
	}

	token, err := h.signToken(u)
	if err != nil {
		respondErr(c, http.StatusInternalServerError, "Internal", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "email": u.Email, "name": u.Name},
	})
}

// handleRefresh mints a fresh token for an already-authenticated caller,
// extending the 7-day window without requiring credentials again.
func (h *APIHandler) handleRefresh(c *gin.Context) {
	claims, ok := c.MustGet(claimsKey).(*userClaims)
	if !ok {
		respondErr(c, http.StatusUnauthorized, "AuthExpired", "missing claims")
		return
	}
	u, err := h.Users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		respondErr(c, http.StatusUnauthorized, "AuthExpired", "user no longer exists")
		return
	}
	token, err := h.signToken(u)
	if err != nil {
		respondErr(c, http.StatusInternalServerError, "Internal", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// hashPassword is used by operator-provisioning tooling, not by any
// HTTP handler, to produce the password_hash column value.
func hashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

// newUserID mints a fresh user id the same way every other entity in
// the pipeline does.
func newUserID() string { return uuid.NewString() }
