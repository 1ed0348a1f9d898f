package ussd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayekpa25-ai/WeThrift/internal/complaint"
	"github.com/sundayekpa25-ai/WeThrift/internal/escrow"
	"github.com/sundayekpa25-ai/WeThrift/internal/group"
	"github.com/sundayekpa25-ai/WeThrift/internal/loan"
	"github.com/sundayekpa25-ai/WeThrift/internal/savings"
)

type memStore struct {
	sessions  map[string]Session
	getErr    error
	createErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]Session{}}
}

func (m *memStore) Get(ctx context.Context, sessionID string) (Session, error) {
	if m.getErr != nil {
		return Session{}, m.getErr
	}

	ses, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	return ses, nil
}

func (m *memStore) Create(ctx context.Context, sessionID, phoneNumber string) (Session, error) {
	now := time.Now()

	ses := Session{
		SessionID:   sessionID,
		PhoneNumber: phoneNumber,
		MenuLevel:   MenuMain,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if m.createErr != nil {
		return ses, m.createErr
	}

	m.sessions[sessionID] = ses

	return ses, nil
}

func (m *memStore) Update(ctx context.Context, ses Session) error {
	if m.updateErr != nil {
		return m.updateErr
	}

	m.sessions[ses.SessionID] = ses

	return nil
}

type stubAuth struct {
	userID string
	err    error
}

func (s stubAuth) VerifyPIN(ctx context.Context, phone, pin string) (string, error) {
	return s.userID, s.err
}

type stubGroups struct {
	groups []group.Group
	err    error
	panics bool
}

func (s stubGroups) ListByUser(ctx context.Context, userID string) ([]group.Group, error) {
	if s.panics {
		panic("boom")
	}

	return s.groups, s.err
}

type stubContributions struct {
	contributions []savings.Contribution
	err           error
}

func (s stubContributions) ListUserContributions(ctx context.Context, userID string) ([]savings.Contribution, error) {
	return s.contributions, s.err
}

type stubLoans struct {
	loans []loan.Loan
	err   error
}

func (s stubLoans) ListByUser(ctx context.Context, userID string) ([]loan.Loan, error) {
	return s.loans, s.err
}

type stubEscrow struct {
	transactions []escrow.Transaction
	err          error
}

func (s stubEscrow) ListByUser(ctx context.Context, userID string) ([]escrow.Transaction, error) {
	return s.transactions, s.err
}

type stubComplaints struct {
	complaints []complaint.Complaint
	err        error
}

func (s stubComplaints) ListByUser(ctx context.Context, userID string) ([]complaint.Complaint, error) {
	return s.complaints, s.err
}

func newTestEngine(svcs Services) (*Engine, *memStore) {
	store := newMemStore()

	if svcs.Auth == nil {
		svcs.Auth = stubAuth{}
	}
	if svcs.Groups == nil {
		svcs.Groups = stubGroups{}
	}
	if svcs.Contributions == nil {
		svcs.Contributions = stubContributions{}
	}
	if svcs.Loans == nil {
		svcs.Loans = stubLoans{}
	}
	if svcs.Escrow == nil {
		svcs.Escrow = stubEscrow{}
	}
	if svcs.Complaints == nil {
		svcs.Complaints = stubComplaints{}
	}

	return NewEngine(store, svcs), store
}

func seed(store *memStore, ses Session) {
	if ses.SessionID == "" {
		ses.SessionID = "sess-1"
	}

	store.sessions[ses.SessionID] = ses
}

func authedSession(menu Menu) Session {
	return Session{
		SessionID:       "sess-1",
		PhoneNumber:     "08031234567",
		MenuLevel:       menu,
		IsAuthenticated: true,
		UserID:          "user-1",
	}
}

func TestFirstContactShowsWelcome(t *testing.T) {
	engine, store := newTestEngine(Services{})

	res := engine.Process(context.Background(), "abc123", "08031234567", "1")

	assert.Equal(t, welcomeText, res.Message)
	assert.False(t, res.ShouldEnd)
	assert.Equal(t, MenuAuth, res.NextMenu)

	saved := store.sessions["abc123"]
	assert.Equal(t, MenuAuth, saved.MenuLevel)
	assert.False(t, saved.IsAuthenticated)
}

func TestLoginFlow(t *testing.T) {
	engine, store := newTestEngine(Services{
		Auth: stubAuth{userID: "user-42"},
	})
	seed(store, Session{SessionID: "sess-1", PhoneNumber: "08031234567", MenuLevel: MenuAuth})

	res := engine.Process(context.Background(), "sess-1", "08031234567", "0803 123 4567")
	assert.Equal(t, "Please enter your 6-digit PIN:", res.Message)
	assert.Equal(t, MenuAuth, res.NextMenu)

	saved := store.sessions["sess-1"]
	require.NotNil(t, saved.Auth)
	assert.Equal(t, AuthAwaitPIN, saved.Auth.Step)
	assert.Equal(t, "08031234567", saved.Auth.Phone)

	res = engine.Process(context.Background(), "sess-1", "08031234567", "123456")
	assert.Equal(t, welcomeBackText, res.Message)
	assert.Equal(t, MenuMain, res.NextMenu)

	saved = store.sessions["sess-1"]
	assert.True(t, saved.IsAuthenticated)
	assert.Equal(t, "user-42", saved.UserID)
	assert.Nil(t, saved.Auth)
	assert.Equal(t, MenuMain, saved.MenuLevel)
}

func TestLoginInvalidPhoneKeepsState(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, Session{SessionID: "sess-1", MenuLevel: MenuAuth})

	res := engine.Process(context.Background(), "sess-1", "08031234567", "notaphone")

	assert.Equal(t, "Please enter a valid phone number:", res.Message)
	assert.Equal(t, MenuAuth, res.NextMenu)
	assert.Nil(t, store.sessions["sess-1"].Auth)
}

func TestLoginMalformedPIN(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, Session{
		SessionID: "sess-1",
		MenuLevel: MenuAuth,
		Auth:      &AuthProgress{Step: AuthAwaitPIN, Phone: "08031234567"},
	})

	res := engine.Process(context.Background(), "sess-1", "08031234567", "12ab")

	assert.Equal(t, "PIN must be 6 digits. Please try again:", res.Message)
	assert.Equal(t, MenuAuth, res.NextMenu)
}

func TestLoginBadCredentialsRestartsFlow(t *testing.T) {
	engine, store := newTestEngine(Services{
		Auth: stubAuth{err: errors.New("invalid pin")},
	})
	seed(store, Session{
		SessionID: "sess-1",
		MenuLevel: MenuAuth,
		Auth:      &AuthProgress{Step: AuthAwaitPIN, Phone: "08031234567"},
	})

	res := engine.Process(context.Background(), "sess-1", "08031234567", "123456")

	assert.True(t, strings.HasPrefix(res.Message, "Invalid credentials."))
	assert.Equal(t, MenuAuth, res.NextMenu)
	assert.Nil(t, store.sessions["sess-1"].Auth)
	assert.False(t, store.sessions["sess-1"].IsAuthenticated)
}

func TestInvalidOptionKeepsMenu(t *testing.T) {
	menus := []Menu{
		MenuMain,
		MenuDashboard,
		MenuGroups,
		MenuSavings,
		MenuLoans,
		MenuContributions,
		MenuEscrow,
		MenuComplaints,
	}

	for _, menu := range menus {
		engine, store := newTestEngine(Services{})
		seed(store, authedSession(menu))

		res := engine.Process(context.Background(), "sess-1", "08031234567", "99")

		assert.True(t, strings.HasPrefix(res.Message, "Invalid option."), "menu %s", menu)
		assert.Equal(t, menu, res.NextMenu, "menu %s", menu)
		assert.False(t, res.ShouldEnd, "menu %s", menu)
		assert.Equal(t, menu, store.sessions["sess-1"].MenuLevel, "menu %s", menu)
	}
}

func TestDashboardRoutesToLoans(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, authedSession(MenuDashboard))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "3")

	assert.True(t, strings.HasPrefix(res.Message, "Loans"))
	assert.Equal(t, MenuLoans, res.NextMenu)
	assert.Equal(t, MenuLoans, store.sessions["sess-1"].MenuLevel)
}

func TestMainMenuExitEndsSession(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, authedSession(MenuMain))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "0")

	assert.Equal(t, goodbyeText, res.Message)
	assert.True(t, res.ShouldEnd)
	// End of dialog does not advance the stored menu.
	assert.Equal(t, MenuMain, store.sessions["sess-1"].MenuLevel)
}

func TestShowGroups(t *testing.T) {
	engine, store := newTestEngine(Services{
		Groups: stubGroups{groups: []group.Group{{Name: "Alpha Ajo"}, {Name: "Beta Esusu"}}},
	})
	seed(store, authedSession(MenuDashboard))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Contains(t, res.Message, "Your Groups:")
	assert.Contains(t, res.Message, "1. Alpha Ajo")
	assert.Contains(t, res.Message, "2. Beta Esusu")
	assert.Equal(t, MenuGroups, res.NextMenu)
}

func TestShowGroupsEmpty(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, authedSession(MenuDashboard))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.True(t, strings.HasPrefix(res.Message, "You are not a member of any groups."))
	assert.Equal(t, MenuGroups, res.NextMenu)
}

func TestShowGroupsErrorStaysLocal(t *testing.T) {
	engine, store := newTestEngine(Services{
		Groups: stubGroups{err: errors.New("db down")},
	})
	seed(store, authedSession(MenuDashboard))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Equal(t, "Error loading groups. Please try again.", res.Message)
	assert.False(t, res.ShouldEnd)
	assert.Equal(t, MenuGroups, res.NextMenu)
}

func TestShowSavingsSumsCompletedOnly(t *testing.T) {
	engine, store := newTestEngine(Services{
		Contributions: stubContributions{contributions: []savings.Contribution{
			{Amount: 5000, Status: savings.StatusCompleted},
			{Amount: 3000, Status: savings.StatusCompleted},
			{Amount: 1000, Status: savings.StatusPending},
		}},
	})
	seed(store, authedSession(MenuSavings))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Contains(t, res.Message, "Total Savings: ₦8,000")
	assert.Equal(t, MenuSavings, res.NextMenu)
}

func TestShowContributionsTruncates(t *testing.T) {
	contributions := make([]savings.Contribution, 7)
	for i := range contributions {
		contributions[i] = savings.Contribution{Amount: int64(i+1) * 100, Status: savings.StatusCompleted}
	}

	engine, store := newTestEngine(Services{
		Contributions: stubContributions{contributions: contributions},
	})
	seed(store, authedSession(MenuContributions))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Contains(t, res.Message, "5. ₦500")
	assert.NotContains(t, res.Message, "6. ₦600")
	assert.Contains(t, res.Message, "1. View All")
}

func TestShowLoansListsAll(t *testing.T) {
	engine, store := newTestEngine(Services{
		Loans: stubLoans{loans: []loan.Loan{
			{Amount: 50000, Status: loan.StatusActive},
			{Amount: 20000, Status: loan.StatusCompleted},
		}},
	})
	seed(store, authedSession(MenuLoans))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Contains(t, res.Message, "1. ₦50,000 - active")
	assert.Contains(t, res.Message, "2. ₦20,000 - completed")
	assert.Equal(t, MenuLoans, res.NextMenu)
}

func TestShowComplaints(t *testing.T) {
	engine, store := newTestEngine(Services{
		Complaints: stubComplaints{complaints: []complaint.Complaint{
			{Title: "Failed transfer", Status: complaint.StatusOpen},
		}},
	})
	seed(store, authedSession(MenuComplaints))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Contains(t, res.Message, "1. Failed transfer - open")
	assert.Equal(t, MenuComplaints, res.NextMenu)
}

func TestRenderWithoutLoginRedirectsToAuth(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, Session{SessionID: "sess-1", MenuLevel: MenuDashboard, IsAuthenticated: true})

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Equal(t, loginFirstText, res.Message)
	assert.Equal(t, MenuAuth, res.NextMenu)
}

func TestPanicCollapsesToGenericError(t *testing.T) {
	engine, store := newTestEngine(Services{
		Groups: stubGroups{panics: true},
	})
	seed(store, authedSession(MenuDashboard))

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Equal(t, errorText, res.Message)
	assert.True(t, res.ShouldEnd)
}

func TestDegradedStoreStillAnswers(t *testing.T) {
	engine, store := newTestEngine(Services{})
	store.getErr = errors.New("redis down")
	store.createErr = errors.New("redis down")
	store.updateErr = errors.New("redis down")

	res := engine.Process(context.Background(), "sess-1", "08031234567", "1")

	assert.Equal(t, welcomeText, res.Message)
	assert.False(t, res.ShouldEnd)
}

func TestUnknownMenuFallsBackToMain(t *testing.T) {
	engine, store := newTestEngine(Services{})
	seed(store, Session{
		SessionID:       "sess-1",
		MenuLevel:       Menu("bogus"),
		IsAuthenticated: true,
		UserID:          "user-1",
	})

	res := engine.Process(context.Background(), "sess-1", "08031234567", "2")

	assert.True(t, strings.HasPrefix(res.Message, "Groups"))
	assert.Equal(t, MenuGroups, res.NextMenu)
}
