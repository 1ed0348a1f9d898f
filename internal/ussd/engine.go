package ussd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sundayekpa25-ai/WeThrift/internal/complaint"
	"github.com/sundayekpa25-ai/WeThrift/internal/escrow"
	"github.com/sundayekpa25-ai/WeThrift/internal/group"
	"github.com/sundayekpa25-ai/WeThrift/internal/loan"
	"github.com/sundayekpa25-ai/WeThrift/internal/savings"
)

// Response is what goes back to the USSD gateway. ShouldEnd tells the
// gateway to tear the session down; NextMenu is where the dialog will
// resume on the next turn.
type Response struct {
	Message   string `json:"message"`
	ShouldEnd bool   `json:"shouldEnd"`
	NextMenu  Menu   `json:"nextMenu,omitempty"`
}

type Authenticator interface {
	VerifyPIN(ctx context.Context, phone, pin string) (string, error)
}

type GroupLister interface {
	ListByUser(ctx context.Context, userID string) ([]group.Group, error)
}

type ContributionLister interface {
	ListUserContributions(ctx context.Context, userID string) ([]savings.Contribution, error)
}

type LoanLister interface {
	ListByUser(ctx context.Context, userID string) ([]loan.Loan, error)
}

type EscrowLister interface {
	ListByUser(ctx context.Context, userID string) ([]escrow.Transaction, error)
}

type ComplaintLister interface {
	ListByUser(ctx context.Context, userID string) ([]complaint.Complaint, error)
}

// Services are the platform reads the menu screens are rendered from.
type Services struct {
	Auth          Authenticator
	Groups        GroupLister
	Contributions ContributionLister
	Loans         LoanLister
	Escrow        EscrowLister
	Complaints    ComplaintLister
}

type Engine struct {
	store Store
	svcs  Services
}

func NewEngine(store Store, svcs Services) *Engine {
	return &Engine{
		store: store,
		svcs:  svcs,
	}
}

// Process runs one turn of a dialog. It never returns an error to the
// gateway; any failure it cannot absorb locally collapses to a generic
// apology that ends the session.
func (e *Engine) Process(ctx context.Context, sessionID, phoneNumber, input string) (res Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("ussd: panic processing session %s: %v", sessionID, r))

			res = Response{Message: errorText, ShouldEnd: true}
		}
	}()

	ses, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			slog.Error(fmt.Sprintf("ussd: load session: %v", err))
		}

		// First contact, an expired dialog, or a degraded store all
		// restart from the top. Create hands back a usable session
		// even when it cannot persist it.
		ses, err = e.store.Create(ctx, sessionID, phoneNumber)
		if err != nil {
			slog.Error(fmt.Sprintf("ussd: create session: %v", err))
		}
	}

	ses.UserInput = input

	res = e.dispatch(ctx, &ses)

	if !res.ShouldEnd && res.NextMenu != "" {
		ses.MenuLevel = res.NextMenu
	}

	if err := e.store.Update(ctx, ses); err != nil {
		slog.Error(fmt.Sprintf("ussd: save session: %v", err))
	}

	return res
}

func (e *Engine) dispatch(ctx context.Context, ses *Session) Response {
	if ses.MenuLevel == MenuAuth {
		return e.processAuth(ctx, ses)
	}

	// Unknown levels fall back to the main menu rather than trapping
	// the subscriber in a dead state.
	menu := ses.MenuLevel
	if _, ok := menuTransitions[menu]; !ok {
		menu = MenuMain
	}

	if menu == MenuMain && !ses.IsAuthenticated {
		return Response{Message: welcomeText, NextMenu: MenuAuth}
	}

	input := strings.TrimSpace(ses.UserInput)

	tr, ok := menuTransitions[menu][input]
	if !ok {
		return invalidOption(menu)
	}

	if tr.render != nil {
		return tr.render(e, ctx, ses)
	}

	return Response{
		Message:   tr.message,
		ShouldEnd: tr.end,
		NextMenu:  tr.next,
	}
}

// processAuth walks the two-step login: collect a phone number, then a
// PIN, then verify both against the user store. A failed verification
// drops the collected state so the subscriber starts over cleanly.
func (e *Engine) processAuth(ctx context.Context, ses *Session) Response {
	input := strings.TrimSpace(ses.UserInput)

	if ses.Auth == nil || ses.Auth.Step == AuthAwaitPhone {
		phone := stripSpaces(input)
		if !validPhone(phone) {
			return Response{Message: "Please enter a valid phone number:", NextMenu: MenuAuth}
		}

		ses.Auth = &AuthProgress{Step: AuthAwaitPIN, Phone: phone}

		return Response{Message: "Please enter your 6-digit PIN:", NextMenu: MenuAuth}
	}

	if !validPIN(input) {
		return Response{Message: "PIN must be 6 digits. Please try again:", NextMenu: MenuAuth}
	}

	userID, err := e.svcs.Auth.VerifyPIN(ctx, ses.Auth.Phone, input)
	if err != nil {
		slog.Info(fmt.Sprintf("ussd: login failed for session %s: %v", ses.SessionID, err))

		ses.Auth = nil

		return Response{
			Message:  "Invalid credentials. Please try again:\n\n1. Login\n2. Register\n0. Back",
			NextMenu: MenuAuth,
		}
	}

	ses.IsAuthenticated = true
	ses.UserID = userID
	ses.Auth = nil

	return Response{Message: welcomeBackText, NextMenu: MenuMain}
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
