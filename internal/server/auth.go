package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "userID"

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Server) issueToken(user User) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// parseToken returns the user id carried by a valid token.
func (s *Server) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return "", errUnauthorized
	}
	if claims.Subject == "" {
		return "", errUnauthorized
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			writeError(c, http.StatusUnauthorized, errUnauthorized.Error())
			c.Abort()
			return
		}
		userID, err := s.parseToken(raw)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// lookupUser checks memory first and falls back to the database.
func (s *Server) lookupUser(id string) (User, error) {
	if user, ok := s.store.GetUser(id); ok {
		return user, nil
	}
	user, err := s.loadUserFromDB("id = ?", id)
	if errors.Is(err, errUserNotFound) || errors.Is(err, errDatabaseUnavailable) {
		return User{}, errUnauthorized
	}
	return user, err
}

func (s *Server) lookupUserByEmail(email string) (User, error) {
	if user, ok := s.store.FindUserByEmail(email); ok {
		return user, nil
	}
	user, err := s.loadUserFromDB("email = ?", strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, errUserNotFound) || errors.Is(err, errDatabaseUnavailable) {
		return User{}, errInvalidCredentials
	}
	return user, err
}
