package ussd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sundayekpa25-ai/WeThrift/internal/savings"
)

// The show* screens render live platform data. They all follow the
// same contract: an unauthenticated session is bounced to the login
// flow, and a read failure keeps the subscriber on the current menu
// with a retry message instead of killing the session.

func (e *Engine) showGroups(ctx context.Context, ses *Session) Response {
	if ses.UserID == "" {
		return Response{Message: loginFirstText, NextMenu: MenuAuth}
	}

	groups, err := e.svcs.Groups.ListByUser(ctx, ses.UserID)
	if err != nil {
		slog.Error(fmt.Sprintf("ussd: list groups: %v", err))

		return Response{Message: "Error loading groups. Please try again.", NextMenu: MenuGroups}
	}

	if len(groups) == 0 {
		return Response{
			Message:  "You are not a member of any groups.\n\n1. Join Group\n2. Create Group\n0. Back",
			NextMenu: MenuGroups,
		}
	}

	var sb strings.Builder

	sb.WriteString("Your Groups:\n\n")

	for i, g := range groups {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, g.Name)
	}

	sb.WriteString("\n0. Back")

	return Response{Message: sb.String(), NextMenu: MenuGroups}
}

func (e *Engine) showSavings(ctx context.Context, ses *Session) Response {
	if ses.UserID == "" {
		return Response{Message: loginFirstText, NextMenu: MenuAuth}
	}

	contributions, err := e.svcs.Contributions.ListUserContributions(ctx, ses.UserID)
	if err != nil {
		slog.Error(fmt.Sprintf("ussd: list savings: %v", err))

		return Response{Message: "Error loading savings. Please try again.", NextMenu: MenuSavings}
	}

	if len(contributions) == 0 {
		return Response{
			Message:  "No savings found.\n\n1. Create Savings Goal\n2. Make Contribution\n0. Back",
			NextMenu: MenuSavings,
		}
	}

	var total int64

	for _, c := range contributions {
		if c.Status == savings.StatusCompleted {
			total += c.Amount
		}
	}

	return Response{
		Message:  fmt.Sprintf("Total Savings: %s\n\n1. Create Savings Goal\n2. Make Contribution\n0. Back", naira(total)),
		NextMenu: MenuSavings,
	}
}

func (e *Engine) showLoans(ctx context.Context, ses *Session) Response {
	if ses.UserID == "" {
		return Response{Message: loginFirstText, NextMenu: MenuAuth}
	}

	loans, err := e.svcs.Loans.ListByUser(ctx, ses.UserID)
	if err != nil {
		slog.Error(fmt.Sprintf("ussd: list loans: %v", err))

		return Response{Message: "Error loading loans. Please try again.", NextMenu: MenuLoans}
	}

	if len(loans) == 0 {
		return Response{
			Message:  "No loans found.\n\n1. Apply for Loan\n2. Make Repayment\n0. Back",
			NextMenu: MenuLoans,
		}
	}

	var sb strings.Builder

	sb.WriteString("Your Loans:\n\n")

	for i, l := range loans {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, naira(l.Amount), l.Status)
	}

	sb.WriteString("\n1. Apply for Loan\n2. Make Repayment\n0. Back")

	return Response{Message: sb.String(), NextMenu: MenuLoans}
}

func (e *Engine) showContributions(ctx context.Context, ses *Session) Response {
	if ses.UserID == "" {
		return Response{Message: loginFirstText, NextMenu: MenuAuth}
	}

	contributions, err := e.svcs.Contributions.ListUserContributions(ctx, ses.UserID)
	if err != nil {
		slog.Error(fmt.Sprintf("ussd: list contributions: %v", err))

		return Response{Message: "Error loading contributions. Please try again.", NextMenu: MenuContributions}
	}

	if len(contributions) == 0 {
		return Response{
			Message:  "No contributions found.\n\n1. Schedule Contribution\n2. Make Contribution\n0. Back",
			NextMenu: MenuContributions,
		}
	}

	var sb strings.Builder

	sb.WriteString("Recent Contributions:\n\n")

	for i, c := range truncate(contributions) {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, naira(c.Amount), c.Status)
	}

	sb.WriteString("\n1. View All\n2. Schedule Contribution\n0. Back")

	return Response{Message: sb.String(), NextMenu: MenuContributions}
}

func (e *Engine) showEscrow(ctx context.Context, ses *Session) Response {
	if ses.UserID == "" {
		return Response{Message: loginFirstText, NextMenu: MenuAuth}
	}

	transactions, err := e.svcs.Escrow.ListByUser(ctx, ses.UserID)
	if err != nil {
		slog.Error(fmt.Sprintf("ussd: list escrow transactions: %v", err))

		return Response{Message: "Error loading escrow transactions. Please try again.", NextMenu: MenuEscrow}
	}

	if len(transactions) == 0 {
		return Response{
			Message:  "No escrow transactions found.\n\n1. Create Transaction\n0. Back",
			NextMenu: MenuEscrow,
		}
	}

	var sb strings.Builder

	sb.WriteString("Escrow Transactions:\n\n")

	for i, t := range truncate(transactions) {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, naira(t.Amount), t.Status)
	}

	sb.WriteString("\n1. View All\n2. Create Transaction\n0. Back")

	return Response{Message: sb.String(), NextMenu: MenuEscrow}
}

func (e *Engine) showComplaints(ctx context.Context, ses *Session) Response {
	if ses.UserID == "" {
		return Response{Message: loginFirstText, NextMenu: MenuAuth}
	}

	complaints, err := e.svcs.Complaints.ListByUser(ctx, ses.UserID)
	if err != nil {
		slog.Error(fmt.Sprintf("ussd: list complaints: %v", err))

		return Response{Message: "Error loading complaints. Please try again.", NextMenu: MenuComplaints}
	}

	if len(complaints) == 0 {
		return Response{
			Message:  "No complaints found.\n\n1. Submit Complaint\n0. Back",
			NextMenu: MenuComplaints,
		}
	}

	var sb strings.Builder

	sb.WriteString("Your Complaints:\n\n")

	for i, c := range truncate(complaints) {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, c.Title, c.Status)
	}

	sb.WriteString("\n1. View All\n2. Submit Complaint\n0. Back")

	return Response{Message: sb.String(), NextMenu: MenuComplaints}
}

// listLimit keeps USSD screens inside the 182-character budget most
// gateways enforce.
const listLimit = 5

func truncate[T any](items []T) []T {
	if len(items) > listLimit {
		return items[:listLimit]
	}

	return items
}

// naira formats a whole-naira amount with thousands separators.
func naira(amount int64) string {
	s := strconv.FormatInt(amount, 10)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}

	if neg {
		s = "-" + s
	}

	return "₦" + s
}
