// Package main implements a mock Etsy Open API v3 server for local
// development. It runs the OAuth 2.0 authorization code flow with PKCE and
// serves a handful of canned resource endpoints, so etsyctl and the
// keep-alive service can be exercised without a real Etsy app.
package main

import (
	"crypto/sha256"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	mockUserID = 12345678
	mockShopID = 87654321
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	accessTTL := flag.Duration("access-ttl", time.Hour, "lifetime of issued access tokens")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := newServer(newIssuer(*accessTTL), logger)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Etsy server", "addr", addr,
		"auth_url", "http://localhost"+addr+"/oauth/connect",
		"token_url", "http://localhost"+addr+"/v3/public/oauth/token")

	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type pendingCode struct {
	clientID    string
	redirectURI string
	challenge   string
}

// issuer tracks authorization codes and the tokens minted from them.
type issuer struct {
	mu        sync.Mutex
	accessTTL time.Duration
	codes     map[string]pendingCode
	access    map[string]time.Time
	refresh   map[string]bool
}

func newIssuer(accessTTL time.Duration) *issuer {
	return &issuer{
		accessTTL: accessTTL,
		codes:     make(map[string]pendingCode),
		access:    make(map[string]time.Time),
		refresh:   make(map[string]bool),
	}
}

func (s *issuer) newCode(p pendingCode) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := uuid.NewString()
	s.codes[code] = p
	return code
}

// redeem consumes an authorization code. Codes are single use.
func (s *issuer) redeem(code string) (pendingCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.codes[code]
	delete(s.codes, code)
	return p, ok
}

// rotate consumes a refresh token.
func (s *issuer) rotate(refreshToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh[refreshToken] {
		return false
	}
	delete(s.refresh, refreshToken)
	return true
}

func (s *issuer) mint() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strconv.Itoa(mockUserID) + "."
	access := prefix + uuid.NewString()
	refresh := prefix + uuid.NewString()
	s.access[access] = time.Now().Add(s.accessTTL)
	s.refresh[refresh] = true
	return map[string]any{
		"access_token":  access,
		"token_type":    "Bearer",
		"expires_in":    int(s.accessTTL.Seconds()),
		"refresh_token": refresh,
	}
}

func (s *issuer) valid(access string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.access[access]
	return ok && time.Now().Before(exp)
}

func newServer(s *issuer, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(requestLogger(logger))

	e.GET("/oauth/connect", connectHandler(s, logger))
	e.POST("/v3/public/oauth/token", tokenHandler(s, logger))

	e.GET("/v3/application/openapi-ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"application_id": 1})
	}, requireAPIKey)

	g := e.Group("/v3/application", requireAPIKey, requireBearer(s))
	g.GET("/users/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"user_id": mockUserID, "shop_id": mockShopID})
	})
	g.GET("/users/:user_id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"user_id":       mockUserID,
			"primary_email": "seller@example.com",
			"first_name":    "Mock",
		})
	})
	g.GET("/shops/:shop_id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, mockShop())
	})
	g.GET("/shops/:shop_id/receipts", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"count": 1, "results": []any{mockReceipt()}})
	})
	g.GET("/shops/:shop_id/receipts/:receipt_id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, mockReceipt())
	})
	g.GET("/listings/:listing_id", func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("listing_id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "listing_id must be an integer"})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"listing_id": id,
			"shop_id":    mockShopID,
			"title":      "Hand-thrown stoneware mug",
			"state":      "active",
			"quantity":   4,
			"price":      map[string]any{"amount": 3200, "divisor": 100, "currency_code": "USD"},
		})
	})

	return e
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
			return next(c)
		}
	}
}

func oauthError(c echo.Context, status int, code, desc string) error {
	return c.JSON(status, map[string]string{"error": code, "error_description": desc})
}

func connectHandler(s *issuer, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := c.QueryParams()
		redirectURI := q.Get("redirect_uri")
		target, err := url.Parse(redirectURI)
		if err != nil || target.Scheme == "" {
			return oauthError(c, http.StatusBadRequest, "invalid_request", "redirect_uri is required")
		}

		back := target.Query()
		back.Set("state", q.Get("state"))

		switch {
		case q.Get("response_type") != "code":
			back.Set("error", "unsupported_response_type")
		case q.Get("client_id") == "":
			back.Set("error", "invalid_request")
			back.Set("error_description", "client_id is required")
		case q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "":
			back.Set("error", "invalid_request")
			back.Set("error_description", "PKCE with S256 is required")
		default:
			back.Set("code", s.newCode(pendingCode{
				clientID:    q.Get("client_id"),
				redirectURI: redirectURI,
				challenge:   q.Get("code_challenge"),
			}))
			logger.Info("authorized", "client_id", q.Get("client_id"), "scope", q.Get("scope"))
		}

		target.RawQuery = back.Encode()
		return c.Redirect(http.StatusFound, target.String())
	}
}

func tokenHandler(s *issuer, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !strings.HasPrefix(c.Request().Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			return oauthError(c, http.StatusBadRequest, "invalid_request", "form body required")
		}
		if c.FormValue("client_id") == "" {
			return oauthError(c, http.StatusUnauthorized, "invalid_client", "client_id is required")
		}

		switch c.FormValue("grant_type") {
		case "authorization_code":
			p, ok := s.redeem(c.FormValue("code"))
			if !ok {
				return oauthError(c, http.StatusBadRequest, "invalid_grant", "code is invalid or already used")
			}
			if p.clientID != c.FormValue("client_id") || p.redirectURI != c.FormValue("redirect_uri") {
				return oauthError(c, http.StatusBadRequest, "invalid_grant", "client or redirect_uri mismatch")
			}
			if challengeOf(c.FormValue("code_verifier")) != p.challenge {
				return oauthError(c, http.StatusBadRequest, "invalid_grant", "code_verifier does not match")
			}
		case "refresh_token":
			if !s.rotate(c.FormValue("refresh_token")) {
				return oauthError(c, http.StatusBadRequest, "invalid_grant", "refresh token is invalid")
			}
		default:
			return oauthError(c, http.StatusBadRequest, "unsupported_grant_type", "grant_type not supported")
		}

		logger.Info("issued token", "grant_type", c.FormValue("grant_type"))
		return c.JSON(http.StatusOK, s.mint())
	}
}

func challengeOf(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("x-api-key") == "" {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Missing x-api-key header or client_id"})
		}
		return next(c)
	}
}

func requireBearer(s *issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if !ok || !s.valid(token) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			}
			return next(c)
		}
	}
}

func mockShop() map[string]any {
	return map[string]any{
		"shop_id":              mockShopID,
		"user_id":              mockUserID,
		"shop_name":            "MockPottery",
		"currency_code":        "USD",
		"listing_active_count": 12,
	}
}

func mockReceipt() map[string]any {
	return map[string]any{
		"receipt_id":       1000001,
		"seller_user_id":   mockUserID,
		"name":             "Jane Buyer",
		"status":           "Paid",
		"is_shipped":       false,
		"create_timestamp": 1760000000,
		"grandtotal":       map[string]any{"amount": 3200, "divisor": 100, "currency_code": "USD"},
	}
}
