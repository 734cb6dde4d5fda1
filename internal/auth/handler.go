package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"venue-backend/internal/engine"
	"venue-backend/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store  *store.Store
	issuer *Issuer
}

func NewAuthHandler(s *store.Store, iss *Issuer) *AuthHandler {
	return &AuthHandler{store: s, issuer: iss}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body credentials
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return engine.InvalidPayloadError("Cuerpo JSON inválido")
	}
	if body.Email == "" || body.Password == "" {
		return engine.UnauthorizedError("El email y la contraseña son obligatorios")
	}

	ctx := c.Context()

	user, err := h.findUserByEmail(ctx, body.Email)
	if err != nil {
		return engine.UnauthorizedError("Credenciales inválidas")
	}

	if !isActive(user["active"]) {
		return engine.UnauthorizedError("Cuenta deshabilitada")
	}

	passwordHash, _ := user["password_hash"].(string)
	if !passwordMatches(body.Password, passwordHash) {
		return engine.UnauthorizedError("Credenciales inválidas")
	}

	userID, _ := user["id"].(string)
	session, err := h.openSession(ctx, Principal{ID: userID, Roles: extractRoles(user["roles"])})
	if err != nil {
		return err
	}

	return c.JSON(engine.Envelope{Success: true, Data: session, Message: "Sesión iniciada con éxito"})
}

// Refresh handles POST /auth/refresh. The used refresh token is rotated.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var body refreshBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return engine.InvalidPayloadError("Cuerpo JSON inválido")
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("El refresh token es obligatorio")
	}

	ctx := c.Context()
	pb := h.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, h.store.DB,
		fmt.Sprintf(`SELECT rt.id, rt.user_id, rt.expires_at, u.roles, u.active
		 FROM _refresh_tokens rt
		 JOIN _users u ON u.id = rt.user_id
		 WHERE rt.token = %s`, pb.Add(body.RefreshToken)), pb.Params()...)
	if err != nil {
		return engine.UnauthorizedError("Refresh token inválido")
	}

	tokenID, _ := row["id"].(string)
	if err := h.deleteToken(ctx, "id", tokenID); err != nil {
		return err
	}

	if time.Now().Unix() > toUnix(row["expires_at"]) {
		return engine.UnauthorizedError("Refresh token expirado")
	}
	if !isActive(row["active"]) {
		return engine.UnauthorizedError("Cuenta deshabilitada")
	}

	userID, _ := row["user_id"].(string)
	session, err := h.openSession(ctx, Principal{ID: userID, Roles: extractRoles(row["roles"])})
	if err != nil {
		return err
	}

	return c.JSON(engine.Envelope{Success: true, Data: session, Message: "Token renovado con éxito"})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var body refreshBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return engine.InvalidPayloadError("Cuerpo JSON inválido")
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("El refresh token es obligatorio")
	}

	if err := h.deleteToken(c.Context(), "token", body.RefreshToken); err != nil {
		return err
	}

	return c.JSON(engine.Envelope{Success: true, Data: nil, Message: "Sesión cerrada"})
}

// RegisterAuthRoutes registers auth routes on the given router.
func RegisterAuthRoutes(router fiber.Router, h *AuthHandler) {
	auth := router.Group("/auth")
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
}

func (h *AuthHandler) findUserByEmail(ctx context.Context, email string) (map[string]any, error) {
	pb := h.store.Dialect.NewParamBuilder()
	return store.QueryRow(ctx, h.store.DB,
		"SELECT id, email, password_hash, roles, active FROM _users WHERE email = "+pb.Add(email),
		pb.Params()...)
}

func (h *AuthHandler) deleteToken(ctx context.Context, column, value string) error {
	pb := h.store.Dialect.NewParamBuilder()
	_, err := store.Exec(ctx, h.store.DB,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE %s = %s", column, pb.Add(value)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// openSession issues an access token and persists a new refresh token.
func (h *AuthHandler) openSession(ctx context.Context, p Principal) (*Session, error) {
	accessToken, err := h.issuer.Issue(p)
	if err != nil {
		return nil, err
	}

	refreshToken := newRefreshToken()
	expiresAt := time.Now().Add(refreshTokenTTL).Unix()

	pb := h.store.Dialect.NewParamBuilder()
	sql := fmt.Sprintf(`INSERT INTO _refresh_tokens (id, user_id, token, expires_at) VALUES (%s, %s, %s, %s)`,
		pb.Add(uuid.NewString()), pb.Add(p.ID), pb.Add(refreshToken), pb.Add(expiresAt))
	if _, err := store.Exec(ctx, h.store.DB, sql, pb.Params()...); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL / time.Second),
	}, nil
}

// extractRoles decodes the JSON array stored in _users.roles.
func extractRoles(v any) []string {
	s, ok := v.(string)
	if !ok || s == "" {
		return []string{}
	}
	var roles []string
	if err := json.Unmarshal([]byte(s), &roles); err != nil {
		return []string{}
	}
	return roles
}

// isActive accepts the driver representations of a boolean column.
func isActive(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case string:
		return val == "1" || val == "true"
	}
	return false
}

func toUnix(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case string:
		var n int64
		fmt.Sscan(val, &n)
		return n
	}
	return 0
}
