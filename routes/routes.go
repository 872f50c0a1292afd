package routes

import (
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/anjiri1684/unimentor/middleware"
	"github.com/gofiber/fiber/v2"
)

// Guards are the authentication chains shared by route groups.
type Guards struct {
	// Auth requires a valid access token and loads the caller.
	Auth []fiber.Handler
	// Optional loads the caller when a token is sent.
	Optional fiber.Handler
	Admin    fiber.Handler
}

func NewGuards(secret string, loader middleware.ActorLoader) Guards {
	return Guards{
		Auth:     []fiber.Handler{middleware.Protected(secret), middleware.LoadActor(loader)},
		Optional: middleware.OptionalActor(secret, loader),
		Admin:    middleware.AdminRequired(),
	}
}

func (g Guards) admin() []fiber.Handler {
	return append(append([]fiber.Handler{}, g.Auth...), g.Admin)
}

// Register mounts every route group. Admin routes go first so fixed paths such as
// /mentors/pending win over /mentors/:id.
func Register(app *fiber.App, h *handlers.Handler, g Guards) {
	PublicRoutes(app)
	AuthRoutes(app, h)
	AdminRoutes(app, h, g)
	UserRoutes(app, h, g)
	MentorRoutes(app, h, g)
	BookingRoutes(app, h, g)
	PaymentRoutes(app, h, g)
	ReviewRoutes(app, h, g)
}

func with(guards []fiber.Handler, h fiber.Handler) []fiber.Handler {
	return append(append([]fiber.Handler{}, guards...), h)
}
