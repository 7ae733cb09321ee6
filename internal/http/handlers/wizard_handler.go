package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cellardoor/internal/cart"
	applog "cellardoor/internal/log"
	"cellardoor/internal/services"
	"cellardoor/internal/validate"
	"cellardoor/internal/wizard"
)

// WizardHandler is the JSON API behind the selection wizard UI. Every
// endpoint is session-scoped via the sid cookie; validation failures
// come back as 200s with the error map in the state, hard failures as
// 4xx/5xx.
type WizardHandler struct {
	Wizards *services.WizardService
}

func (h *WizardHandler) ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{Name: "sid", Value: sid, Path: "/", HTTPOnly: true})
	}
	return sid
}

func stateJSON(c *fiber.Ctx, st wizard.State, ok bool) error {
	return c.JSON(fiber.Map{"ok": ok, "state": st})
}

func (h *WizardHandler) Start(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	clubID, ok := validate.ID(c.FormValue("clubId"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing or invalid clubId"})
	}
	st, err := h.Wizards.Start(c.Context(), sid, clubID)
	switch {
	case errors.Is(err, services.ErrSuperseded):
		// A newer start for this session won; tell the stale caller
		// to do nothing.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "superseded by a newer request"})
	case errors.Is(err, services.ErrClubUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "club is currently unavailable"})
	case err != nil:
		return err
	}
	applog.Info(c, "wizard.start", map[string]any{"club": clubID})
	return stateJSON(c, st, true)
}

func (h *WizardHandler) State(c *fiber.Ctx) error {
	st, err := h.Wizards.State(h.ensureSID(c))
	if err != nil {
		return noSession(c, err)
	}
	return stateJSON(c, st, true)
}

func (h *WizardHandler) SelectCaseSize(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("caseSizeId"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing or invalid caseSizeId"})
	}
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.SelectCaseSize(id) })
}

func (h *WizardHandler) SelectPlan(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("planId"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing or invalid planId"})
	}
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.SelectSellingPlan(id) })
}

func (h *WizardHandler) SetQuantity(c *fiber.Ctx) error {
	variantID, ok := validate.VariantID(c.FormValue("variantId"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing or invalid variantId"})
	}
	qty := validate.Qty(c.FormValue("qty"))
	isAddOn := c.FormValue("addOn") == "true"
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.SetProductQuantity(variantID, qty, isAddOn) })
}

func (h *WizardHandler) Next(c *fiber.Ctx) error {
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.Next() })
}

func (h *WizardHandler) Previous(c *fiber.Ctx) error {
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.Previous() })
}

func (h *WizardHandler) GoToStep(c *fiber.Ctx) error {
	n, ok := validate.Step(c.FormValue("step"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing or invalid step"})
	}
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.GoToStep(n) })
}

func (h *WizardHandler) Validate(c *fiber.Ctx) error {
	return h.mutate(c, func(w *wizard.Wizard) bool { return w.ValidateCurrentStep() })
}

func (h *WizardHandler) Reset(c *fiber.Ctx) error {
	return h.mutate(c, func(w *wizard.Wizard) bool { w.Reset(); return true })
}

// Cart produces the checkout payload from a validated terminal state.
func (h *WizardHandler) Cart(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	payload, st, err := h.Wizards.Cart(sid)
	var verr *cart.ValidationError
	switch {
	case errors.As(err, &verr):
		// Review validation should make this unreachable; log loudly.
		applog.Error(c, "wizard.cart.precondition", err, nil)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": verr.Reason})
	case err != nil:
		return noSession(c, err)
	case payload == nil:
		// Validation failure; details are in the state's error map.
		return stateJSON(c, st, false)
	}
	applog.Info(c, "wizard.cart", map[string]any{"lines": len(payload.Lines)})
	return c.JSON(fiber.Map{"ok": true, "cart": payload, "state": st})
}

// Exit is the navigation guard: leaving with unsaved selections needs
// confirm=true, and a confirmed exit saves before unmounting.
func (h *WizardHandler) Exit(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	err := h.Wizards.Exit(sid, c.FormValue("confirm") == "true")
	if errors.Is(err, services.ErrExitBlocked) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *WizardHandler) mutate(c *fiber.Ctx, op func(w *wizard.Wizard) bool) error {
	st, ok, err := h.Wizards.Mutate(h.ensureSID(c), op)
	if err != nil {
		return noSession(c, err)
	}
	return stateJSON(c, st, ok)
}

func noSession(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNoSession) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active wizard; start one first"})
	}
	return err
}
