package services

import (
	"context"
	"errors"
	"sync"

	"cellardoor/internal/cart"
	"cellardoor/internal/wizard"
)

var (
	// ErrClubUnavailable means the catalog could not supply the club.
	ErrClubUnavailable = errors.New("club is currently unavailable")
	// ErrNoSession means no wizard has been started for this session.
	ErrNoSession = errors.New("no active wizard for session")
	// ErrSuperseded means a newer Start for the same session overtook
	// this one; its result was discarded.
	ErrSuperseded = errors.New("wizard start superseded")
	// ErrExitBlocked means unsaved selections exist and the exit was
	// not confirmed.
	ErrExitBlocked = errors.New("unsaved selections; confirm to exit")
)

// WizardService owns at most one live wizard per browser session and
// funnels every mutation through it. Each mutation also feeds the
// recovery store, so the snapshot always tracks the state stream.
type WizardService struct {
	Clubs    *ClubService
	Recovery *RecoveryService
	Cfg      wizard.Config

	mu       sync.Mutex
	sessions map[string]*wizardSession
}

type wizardSession struct {
	clubID string
	seq    uint64 // fetch generation; stale fetch results are dropped
	wiz    *wizard.Wizard
}

func NewWizardService(clubs *ClubService, recovery *RecoveryService, cfg wizard.Config) *WizardService {
	return &WizardService{Clubs: clubs, Recovery: recovery, Cfg: cfg, sessions: map[string]*wizardSession{}}
}

// Start fetches the club and mounts a wizard for the session, restoring
// a saved snapshot when one exists for the same club. If the session
// starts another club before this fetch resolves, the slower result is
// discarded rather than overwriting the newer wizard.
func (s *WizardService) Start(ctx context.Context, sessionID, clubID string) (wizard.State, error) {
	s.mu.Lock()
	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &wizardSession{}
		s.sessions[sessionID] = sess
	}
	sess.clubID = clubID
	sess.seq++
	seq := sess.seq
	s.mu.Unlock()

	// Network fetch happens outside the lock.
	details := s.Clubs.GetClubDetails(ctx, clubID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.seq != seq || sess.clubID != clubID {
		return wizard.State{}, ErrSuperseded
	}
	if details == nil {
		return wizard.State{}, ErrClubUnavailable
	}
	if snap := s.Recovery.Load(sessionID, clubID); snap != nil {
		sess.wiz = wizard.Restore(details, s.Cfg, *snap)
	} else {
		sess.wiz = wizard.New(details, s.Cfg)
	}
	return sess.wiz.State(), nil
}

// State returns the session's current wizard state.
func (s *WizardService) State(sessionID string) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(sessionID)
	if err != nil {
		return wizard.State{}, err
	}
	return sess.wiz.State(), nil
}

// Mutate runs one wizard operation and persists the resulting snapshot.
// The op's boolean is returned alongside the new state; a false op is a
// validation failure, detailed in State.Errors, never a hard error.
func (s *WizardService) Mutate(sessionID string, op func(w *wizard.Wizard) bool) (wizard.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(sessionID)
	if err != nil {
		return wizard.State{}, false, err
	}
	ok := op(sess.wiz)
	s.Recovery.Save(sessionID, sess.clubID, sess.wiz.Snapshot())
	return sess.wiz.State(), ok, nil
}

// Cart validates the terminal state and produces the checkout payload.
// On success the snapshot is cleared; the selection has been handed off.
func (s *WizardService) Cart(sessionID string) (*cart.Payload, wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.active(sessionID)
	if err != nil {
		return nil, wizard.State{}, err
	}
	w := sess.wiz
	if !w.ValidateCurrentStep() {
		return nil, w.State(), nil
	}
	w.SetSubmitting(true)
	payload, err := cart.FormatCart(w.Club(), w.State())
	if err != nil {
		w.SetSubmitting(false)
		return nil, w.State(), err
	}
	if res := cart.ValidateCartData(payload); !res.IsValid {
		w.SetSubmitting(false)
		return nil, w.State(), &cart.ValidationError{Reason: "payload failed structural check"}
	}
	s.Recovery.Clear(sessionID)
	return payload, w.State(), nil
}

// Exit implements the navigation guard. An unconfirmed exit with
// unsaved selections is blocked; a confirmed one saves best-effort and
// unmounts the wizard.
func (s *WizardService) Exit(sessionID string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil || sess.wiz == nil {
		return nil
	}
	if sess.wiz.Dirty() && !confirmed {
		return ErrExitBlocked
	}
	if sess.wiz.Dirty() {
		s.Recovery.Save(sessionID, sess.clubID, sess.wiz.Snapshot())
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *WizardService) active(sessionID string) (*wizardSession, error) {
	sess := s.sessions[sessionID]
	if sess == nil || sess.wiz == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}
