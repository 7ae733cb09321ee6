package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cellardoor/internal/clubapi"
	"cellardoor/internal/repos"
	"cellardoor/internal/services"
	"cellardoor/internal/wizard"
)

const clubDetailsJSON = `{
	"id": "cellar-club",
	"name": "Cellar Club",
	"movOnly": true,
	"caseSizes": [{"id": "cs-6", "title": "6 Bottles", "bottleCount": 6}],
	"sellingPlans": [{"id": "plan-monthly", "name": "Monthly", "interval": "MONTH", "intervalCount": 1}],
	"minimumOrderValues": [{"caseSizeId": "cs-6", "value": 50}],
	"products": [
		{"variant": {"id": "v-shiraz", "title": "Shiraz", "price": 25, "available": true},
		 "caseRestrictions": [{"caseSizeId": "cs-6", "min": 1, "max": 6}]},
		{"variant": {"id": "v-port", "title": "Vintage Port", "price": 45, "available": true},
		 "addOnOnly": true}
	]
}`

func newWizardService(t *testing.T, catalog http.HandlerFunc) *services.WizardService {
	t.Helper()
	srv := httptest.NewServer(catalog)
	t.Cleanup(srv.Close)

	client := clubapi.NewClient(srv.URL, "shop.example.com", time.Second)
	recovery := services.NewRecoveryService(repos.NewSnapshotRepo(memdb(t)), time.Hour)
	return services.NewWizardService(services.NewClubService(client), recovery, wizard.Config{})
}

func clubCatalog(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/details") {
			_, _ = w.Write([]byte(clubDetailsJSON))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}
}

func TestWizardFlow_StartToCart(t *testing.T) {
	svc := newWizardService(t, clubCatalog(t))
	sid := "test-session"

	st, err := svc.Start(context.Background(), sid, "cellar-club")
	if err != nil {
		t.Fatal(err)
	}
	if st.Step != 1 {
		t.Fatalf("fresh wizard not at step 1: %+v", st)
	}

	mutations := []func(w *wizard.Wizard) bool{
		func(w *wizard.Wizard) bool { return w.SelectCaseSize("cs-6") },
		func(w *wizard.Wizard) bool { return w.Next() },
		func(w *wizard.Wizard) bool { return w.SelectSellingPlan("plan-monthly") },
		func(w *wizard.Wizard) bool { return w.Next() },
		func(w *wizard.Wizard) bool { return w.SetProductQuantity("v-shiraz", 3, false) }, // $75 > MOV $50
		func(w *wizard.Wizard) bool { return w.SetProductQuantity("v-port", 1, true) },
		func(w *wizard.Wizard) bool { return w.Next() },
	}
	for i, op := range mutations {
		var ok bool
		if st, ok, err = svc.Mutate(sid, op); err != nil || !ok {
			t.Fatalf("mutation %d failed: ok=%v err=%v errors=%v", i, ok, err, st.Errors)
		}
	}
	if st.StepKind != wizard.StepReview {
		t.Fatalf("not at review: %+v", st)
	}

	payload, _, err := svc.Cart(sid)
	if err != nil {
		t.Fatal(err)
	}
	if payload == nil || len(payload.Lines) != 2 {
		t.Fatalf("bad payload: %+v", payload)
	}
	if payload.Lines[0].SellingPlanID == "" || payload.Lines[1].SellingPlanID != "" {
		t.Fatalf("selling plan placement wrong: %+v", payload.Lines)
	}
}

func TestWizardFlow_SnapshotSurvivesRemount(t *testing.T) {
	svc := newWizardService(t, clubCatalog(t))
	sid := "test-session"

	if _, err := svc.Start(context.Background(), sid, "cellar-club"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := svc.Mutate(sid, func(w *wizard.Wizard) bool { return w.SelectCaseSize("cs-6") }); err != nil || !ok {
		t.Fatal("case size selection failed")
	}
	if err := svc.Exit(sid, true); err != nil {
		t.Fatal(err)
	}

	// Same session comes back: the confirmed exit saved the selection.
	st, err := svc.Start(context.Background(), sid, "cellar-club")
	if err != nil {
		t.Fatal(err)
	}
	if st.CaseSize == nil || st.CaseSize.ID != "cs-6" {
		t.Fatalf("selection not restored: %+v", st)
	}
}

func TestWizardFlow_ExitGuard(t *testing.T) {
	svc := newWizardService(t, clubCatalog(t))
	sid := "test-session"

	if _, err := svc.Start(context.Background(), sid, "cellar-club"); err != nil {
		t.Fatal(err)
	}
	// Clean wizard: exit is free.
	if err := svc.Exit(sid, false); err != nil {
		t.Fatalf("clean exit blocked: %v", err)
	}

	if _, err := svc.Start(context.Background(), sid, "cellar-club"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Mutate(sid, func(w *wizard.Wizard) bool { return w.SelectCaseSize("cs-6") }); err != nil {
		t.Fatal(err)
	}
	if err := svc.Exit(sid, false); !errors.Is(err, services.ErrExitBlocked) {
		t.Fatalf("dirty unconfirmed exit not blocked: %v", err)
	}
	if err := svc.Exit(sid, true); err != nil {
		t.Fatalf("confirmed exit failed: %v", err)
	}
	if _, err := svc.State(sid); !errors.Is(err, services.ErrNoSession) {
		t.Fatal("wizard still mounted after exit")
	}
}

func TestWizardFlow_ClubUnavailable(t *testing.T) {
	svc := newWizardService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := svc.Start(context.Background(), "sid", "cellar-club")
	if !errors.Is(err, services.ErrClubUnavailable) {
		t.Fatalf("want ErrClubUnavailable, got %v", err)
	}
}

func TestWizardFlow_NoSession(t *testing.T) {
	svc := newWizardService(t, clubCatalog(t))
	if _, err := svc.State("nobody"); !errors.Is(err, services.ErrNoSession) {
		t.Fatalf("want ErrNoSession, got %v", err)
	}
	_, _, err := svc.Mutate("nobody", func(w *wizard.Wizard) bool { return true })
	if !errors.Is(err, services.ErrNoSession) {
		t.Fatalf("want ErrNoSession, got %v", err)
	}
}

func TestClubServiceCachesListing(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[{"id": "c1", "name": "Club One", "position": 1}]`))
	}))
	t.Cleanup(srv.Close)

	svc := services.NewClubService(clubapi.NewClient(srv.URL, "shop.example.com", time.Second))
	if clubs := svc.ListClubs(context.Background()); len(clubs) != 1 {
		t.Fatalf("bad listing: %+v", clubs)
	}
	svc.ListClubs(context.Background())
	if calls != 1 {
		t.Fatalf("listing not cached: %d upstream calls", calls)
	}
}
