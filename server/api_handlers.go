package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

type createMatchRequest struct {
	OpponentID string `json:"opponentId"`
}

type createTournamentRequest struct {
	Name string               `json:"name"`
	Type store.TournamentType `json:"type"`
}

type completeSlotRequest struct {
	WinnerID string `json:"winnerId"`
}

func (a *API) getUser(c *fiber.Ctx) error {
	u, err := a.deps.Store.FindUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// createMatch opens an ad-hoc challenge from the caller to opponentId.
func (a *API) createMatch(c *fiber.Ctx) error {
	var req createMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	m, err := a.deps.Lifecycle.CreateChallenge(c.UserContext(), currentUser(c), req.OpponentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (a *API) liveMatches(c *fiber.Ctx) error {
	ids, err := a.deps.Live.LiveMatches()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"matches": ids})
}

func (a *API) getMatch(c *fiber.Ctx) error {
	m, err := a.deps.Store.FindMatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(m)
}

// playerMatch loads :id and checks the caller plays in it.
func (a *API) playerMatch(c *fiber.Ctx) (*store.Match, error) {
	m, err := a.deps.Store.FindMatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if !m.HasPlayer(currentUser(c)) {
		return nil, utils.NewAuthError(utils.CodeMatchNotAuthorized, "user %s is not a player of match %s", currentUser(c), m.ID)
	}
	return m, nil
}

func (a *API) startMatch(c *fiber.Ctx) error {
	m, err := a.playerMatch(c)
	if err != nil {
		return err
	}
	if err := a.deps.Lifecycle.StartMatch(c.UserContext(), m.ID); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"matchId": m.ID})
}

func (a *API) endMatch(c *fiber.Ctx) error {
	m, err := a.playerMatch(c)
	if err != nil {
		return err
	}
	m, err = a.deps.Lifecycle.EndGame(c.UserContext(), m.ID)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

func (a *API) createTournament(c *fiber.Ctx) error {
	var req createTournamentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	t, err := a.deps.Tournaments.Create(c.UserContext(), req.Name, req.Type, currentUser(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (a *API) getTournament(c *fiber.Ctx) error {
	t, err := a.deps.Store.FindTournament(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (a *API) joinTournament(c *fiber.Ctx) error {
	t, err := a.deps.Tournaments.Join(c.UserContext(), c.Params("id"), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (a *API) leaveTournament(c *fiber.Ctx) error {
	if err := a.deps.Tournaments.Leave(c.UserContext(), c.Params("id"), currentUser(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *API) createBracket(c *fiber.Ctx) error {
	rounds, err := a.deps.Tournaments.CreateBracket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rounds": rounds})
}

func (a *API) getBracket(c *fiber.Ctx) error {
	rounds, err := a.deps.Tournaments.Bracket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rounds": rounds})
}

func (a *API) getTournamentMatches(c *fiber.Ctx) error {
	ms, err := a.deps.Tournaments.Matches(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"matches": ms})
}

// slotParam loads :slotId and checks it belongs to tournament :id.
func (a *API) slotParam(c *fiber.Ctx) (string, error) {
	slotID := c.Params("slotId")
	slot, err := a.deps.Store.FindTournamentMatch(c.UserContext(), slotID)
	if err != nil {
		return "", err
	}
	if slot.TournamentID != c.Params("id") {
		return "", utils.NewNotFoundError(utils.CodeTournamentMatchNotFound, "tournament match %s not found", slotID)
	}
	return slotID, nil
}

func (a *API) startSlot(c *fiber.Ctx) error {
	slotID, err := a.slotParam(c)
	if err != nil {
		return err
	}
	m, err := a.deps.Tournaments.StartTournamentMatch(c.UserContext(), slotID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (a *API) completeSlot(c *fiber.Ctx) error {
	slotID, err := a.slotParam(c)
	if err != nil {
		return err
	}
	var req completeSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	slot, err := a.deps.Tournaments.CompleteTournamentMatch(c.UserContext(), slotID, req.WinnerID)
	if err != nil {
		return err
	}
	return c.JSON(slot)
}
