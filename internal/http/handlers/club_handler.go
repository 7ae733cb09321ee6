package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "cellardoor/internal/log"
	"cellardoor/internal/offer"
	"cellardoor/internal/services"
	"cellardoor/internal/validate"
)

type ClubHandler struct {
	Clubs *services.ClubService
}

// Home lists the shop's clubs. A failed catalog fetch renders the
// empty state, never an error page.
func (h *ClubHandler) Home(c *fiber.Ctx) error {
	clubs := h.Clubs.ListClubs(c.Context())
	return render(c, "clubs", fiber.Map{"Clubs": clubs})
}

// Detail renders one club page. The sign-up offer block only appears
// when the offer evaluates as valid right now.
func (h *ClubHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Warn(c, "validation.fail", map[string]any{"field": "club"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This club is no longer available"})
	}
	d := h.Clubs.GetClubDetails(c.Context(), id)
	if d == nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This club is currently unavailable"})
	}
	data := fiber.Map{"Club": d}
	if offer.IsValid(d.Offer, time.Now()) {
		data["Offer"] = d.Offer
	}
	return render(c, "club", data)
}
