package handlers

import (
	"github.com/jmoiron/sqlx"

	"cellardoor/internal/clubapi"
	"cellardoor/internal/config"
	"cellardoor/internal/repos"
	"cellardoor/internal/services"
	"cellardoor/internal/wizard"
)

type Deps struct {
	ClubHandler   *ClubHandler
	WizardHandler *WizardHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	client := clubapi.NewClient(cfg.CatalogBase, cfg.ShopDomain, cfg.FetchTimeout())
	snapRepo := repos.NewSnapshotRepo(db)

	clubSvc := services.NewClubService(client)
	recoverySvc := services.NewRecoveryService(snapRepo, cfg.SnapshotTTL())
	wizardSvc := services.NewWizardService(clubSvc, recoverySvc, wizard.Config{AddOnStep: cfg.AddOnStep})

	return &Deps{
		ClubHandler:   &ClubHandler{Clubs: clubSvc},
		WizardHandler: &WizardHandler{Wizards: wizardSvc},
	}
}
