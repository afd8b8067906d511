package middleware

import (
	"errors"
	"slices"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTProtected requires a valid session token in the Authorization header.
// Tokens of another kind are refused even when they share the secret.
func JWTProtected(sessionSecret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(sessionSecret)},
		SuccessHandler: requireAudience(token.KindSession),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func requireAudience(kind token.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := c.Locals("user").(*jwt.Token)
		if !ok || tok == nil {
			return unauthorized(c)
		}
		aud, err := tok.Claims.GetAudience()
		if err != nil || !slices.Contains(aud, string(kind)) {
			return unauthorized(c)
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: "Unauthorized: invalid or expired token",
	})
}

// UserID extracts the signed-in user's ID from the session token in context.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return uuid.Nil, errors.New("invalid token in context")
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}
