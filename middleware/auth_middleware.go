package middleware

import (
	"context"

	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// ActorLoader resolves a token subject to the stored identity.
type ActorLoader interface {
	Actor(ctx context.Context, id uuid.UUID) (policy.Actor, error)
}

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwtware.HS256,
		ErrorHandler:  jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"error": "Invalid or expired JWT"})
}

// LoadActor runs after Protected. It rejects refresh tokens and loads the caller's current
// role from storage, so role changes apply without signing in again.
func LoadActor(loader ActorLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return unauthorized(c, "Missing or malformed JWT")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Invalid or expired JWT")
		}
		if tokenType, _ := claims["token_type"].(string); tokenType != "access" {
			return unauthorized(c, "Access token required")
		}
		rawID, _ := claims["user_id"].(string)
		id, err := uuid.Parse(rawID)
		if err != nil {
			return unauthorized(c, "Invalid or expired JWT")
		}

		actor, err := loader.Actor(c.UserContext(), id)
		if err != nil {
			return unauthorized(c, "User not found or inactive")
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

// CurrentActor returns the actor loaded by LoadActor, or the zero Actor on public routes.
func CurrentActor(c *fiber.Ctx) policy.Actor {
	actor, _ := c.Locals(actorKey).(policy.Actor)
	return actor
}

// OptionalActor loads the actor when a bearer token is present and leaves public
// requests anonymous. A token that is present must still be valid.
func OptionalActor(secret string, loader ActorLoader) fiber.Handler {
	verify := jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		SigningMethod:  jwtware.HS256,
		ErrorHandler:   jwtError,
		SuccessHandler: LoadActor(loader),
	})
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		return verify(c)
	}
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentActor(c).Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}
