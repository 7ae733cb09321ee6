package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"cellardoor/internal/config"
	"cellardoor/internal/http/handlers"
	"cellardoor/internal/repos"
)

const catalogDetailsJSON = `{
	"id": "cellar-club",
	"name": "Cellar Club",
	"description": "<script>alert(1)</script><p>Great wine</p>",
	"caseSizes": [{"id": "cs-6", "title": "6 Bottles", "bottleCount": 6}],
	"sellingPlans": [{"id": "plan-monthly", "name": "Monthly", "interval": "MONTH", "intervalCount": 1}],
	"signUpOffer": {"id": "off-1", "title": "Free corkscrew", "expiryDate": "2099-01-01"},
	"products": [
		{"variant": {"id": "v-shiraz", "title": "Shiraz", "price": 25, "available": true},
		 "caseRestrictions": [{"caseSizeId": "cs-6", "min": 1, "max": 6}]}
	]
}`

// Minimal app setup mirroring the production wiring.
func newWizardApp(t *testing.T) *fiber.App {
	t.Helper()
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/details") {
			_, _ = w.Write([]byte(catalogDetailsJSON))
			return
		}
		_, _ = w.Write([]byte(`[{"id": "cellar-club", "name": "Cellar Club", "position": 1}]`))
	}))
	t.Cleanup(catalog.Close)

	cfg := config.Config{
		DBDSN:            ":memory:",
		CatalogBase:      catalog.URL,
		ShopDomain:       "shop.example.com",
		FetchTimeoutSec:  2,
		SnapshotTTLHours: 1,
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())

	deps := handlers.NewDeps(db, cfg)
	app.Get("/", deps.ClubHandler.Home)
	app.Get("/club/:id", deps.ClubHandler.Detail)
	wz := deps.WizardHandler
	api := app.Group("/api/v1/wizard")
	api.Post("/start", wz.Start)
	api.Get("/", wz.State)
	api.Post("/case-size", wz.SelectCaseSize)
	api.Post("/quantity", wz.SetQuantity)
	api.Post("/exit", wz.Exit)

	return app
}

func formReq(method, target, body, sid string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return req
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

type stateResp struct {
	OK    bool `json:"ok"`
	State struct {
		Step   int               `json:"step"`
		Errors map[string]string `json:"errors"`
	} `json:"state"`
}

func TestClubPageSanitizedAndOfferShown(t *testing.T) {
	app := newWizardApp(t)

	resp, err := app.Test(formReq("GET", "/club/cellar-club", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	s := string(body)
	if strings.Contains(s, "<script>alert(1)") {
		t.Fatal("unsanitized description reached the page")
	}
	if !strings.Contains(s, "Free corkscrew") {
		t.Fatal("valid offer not rendered")
	}
}

func TestWizardAPIFlow(t *testing.T) {
	app := newWizardApp(t)

	resp, err := app.Test(formReq("POST", "/api/v1/wizard/start", "clubId=cellar-club", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	sid := extractCookie(resp, "sid")
	if sid == "" {
		t.Fatal("no session cookie issued")
	}

	resp, err = app.Test(formReq("POST", "/api/v1/wizard/case-size", "caseSizeId=cs-6", sid))
	if err != nil {
		t.Fatal(err)
	}
	var sr stateResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatal(err)
	}
	if !sr.OK {
		t.Fatalf("case size rejected: %+v", sr)
	}

	// Over-capacity quantity: 200 with ok=false, state untouched.
	resp, err = app.Test(formReq("POST", "/api/v1/wizard/quantity", "variantId=v-shiraz&qty=7", sid))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatal(err)
	}
	if sr.OK {
		t.Fatal("out-of-bounds quantity accepted")
	}

	// Dirty exit without confirmation is a 409.
	resp, err = app.Test(formReq("POST", "/api/v1/wizard/exit", "", sid))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("exit: want 409, got %d", resp.StatusCode)
	}
}

func TestWizardStartRejectsBadClubID(t *testing.T) {
	app := newWizardApp(t)
	resp, err := app.Test(formReq("POST", "/api/v1/wizard/start", "clubId=<nope>", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}

func TestHomeEmptyStateOnCatalogFailure(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(catalog.Close)

	cfg := config.Config{DBDSN: ":memory:", CatalogBase: catalog.URL, FetchTimeoutSec: 2, SnapshotTTLHours: 1}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	deps := handlers.NewDeps(db, cfg)
	app.Get("/", deps.ClubHandler.Home)

	resp, err := app.Test(formReq("GET", "/", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("catalog failure leaked as %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "currently unavailable") {
		t.Fatal("empty state message missing")
	}
}
