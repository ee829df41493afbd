package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lguibr/pongarena/auth"
	"github.com/lguibr/pongarena/lifecycle"
	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/tournament"
	"github.com/lguibr/pongarena/utils"
)

const userIDKey = "user_id"

// LiveLister lists the matches with a running entry.
type LiveLister interface {
	LiveMatches() ([]string, error)
}

// APIDeps are the services behind the REST routes.
type APIDeps struct {
	Store       *store.Store
	Lifecycle   *lifecycle.Controller
	Tournaments *tournament.Engine
	Live        LiveLister
	Verifier    auth.Verifier
	Logger      zerolog.Logger
}

// API serves the management routes under /api.
type API struct {
	app  *fiber.App
	deps APIDeps
	log  zerolog.Logger
}

func NewAPI(deps APIDeps) *API {
	a := &API{deps: deps, log: deps.Logger.With().Str("component", "api").Logger()}
	a.app = fiber.New(fiber.Config{
		AppName:               "pongarena",
		DisableStartupMessage: true,
		ErrorHandler:          a.handleError,
	})
	a.routes()
	return a
}

// App exposes the fiber app, for Listen and app.Test.
func (a *API) App() *fiber.App { return a.app }

func (a *API) routes() {
	api := a.app.Group("/api", a.requireUser())

	api.Get("/users/:id", a.getUser)

	api.Post("/matches", a.createMatch)
	api.Get("/matches/live", a.liveMatches)
	api.Get("/matches/:id", a.getMatch)
	api.Post("/matches/:id/start", a.startMatch)
	api.Post("/matches/:id/end", a.endMatch)

	api.Post("/tournaments", a.createTournament)
	api.Get("/tournaments/:id", a.getTournament)
	api.Post("/tournaments/:id/join", a.joinTournament)
	api.Post("/tournaments/:id/leave", a.leaveTournament)
	api.Post("/tournaments/:id/bracket", a.createBracket)
	api.Get("/tournaments/:id/bracket", a.getBracket)
	api.Get("/tournaments/:id/matches", a.getTournamentMatches)
	api.Post("/tournaments/:id/matches/:slotId/start", a.startSlot)
	api.Post("/tournaments/:id/matches/:slotId/complete", a.completeSlot)
}

// requireUser resolves the bearer token into the caller's user id.
func (a *API) requireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return utils.NewAuthError(utils.CodeAuthInvalidToken, "missing bearer token")
		}
		userID, err := a.deps.Verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// handleError maps error kinds onto HTTP statuses.
func (a *API) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	appErr, ok := utils.AsAppError(err)
	if !ok {
		a.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(statusFor(appErr)).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
}

func statusFor(e *utils.AppError) int {
	switch e.Kind {
	case utils.KindAuth:
		if e.Code == utils.CodeAuthInvalidToken {
			return fiber.StatusUnauthorized
		}
		return fiber.StatusForbidden
	case utils.KindNotFound:
		return fiber.StatusNotFound
	case utils.KindState:
		if e.Code == utils.CodeInvalidRequest {
			return fiber.StatusBadRequest
		}
		return fiber.StatusConflict
	case utils.KindResource:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func badRequest(format string, args ...interface{}) error {
	return utils.NewStateError(utils.CodeInvalidRequest, format, args...)
}
