package ussd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every edge of the menu graph, including the empty-state reply of the
// render screens. A typo in the transition table fails here, and an
// edge added to the table without a row below fails the completeness
// check at the bottom.
func TestMenuTransitionTable(t *testing.T) {
	edges := []struct {
		menu       Menu
		input      string
		wantPrefix string
		wantNext   Menu
		wantEnd    bool
	}{
		{MenuMain, "1", "Dashboard\n\n1. My Groups", MenuDashboard, false},
		{MenuMain, "2", "Groups\n\n1. Join Group", MenuGroups, false},
		{MenuMain, "3", "Help\n\nFor support", MenuMain, false},
		{MenuMain, "0", "Thank you for using WeThrift!", "", true},

		{MenuDashboard, "1", "You are not a member of any groups.", MenuGroups, false},
		{MenuDashboard, "2", "Savings\n\n1. View Savings", MenuSavings, false},
		{MenuDashboard, "3", "Loans\n\n1. View Loans", MenuLoans, false},
		{MenuDashboard, "4", "Contributions\n\n1. View History", MenuContributions, false},
		{MenuDashboard, "5", "Escrow\n\n1. View Transactions", MenuEscrow, false},
		{MenuDashboard, "6", "Complaints\n\n1. View Complaints", MenuComplaints, false},
		{MenuDashboard, "0", "1. Dashboard", MenuMain, false},

		{MenuGroups, "1", "Enter group invite code:", MenuGroups, false},
		{MenuGroups, "2", "Create Group\n\nEnter group name:", MenuGroups, false},
		{MenuGroups, "3", "You are not a member of any groups.", MenuGroups, false},
		{MenuGroups, "0", "1. Dashboard", MenuMain, false},

		{MenuSavings, "1", "No savings found.", MenuSavings, false},
		{MenuSavings, "2", "Create Savings Goal\n\nEnter goal name:", MenuSavings, false},
		{MenuSavings, "3", "Make Contribution\n\nEnter amount:", MenuContributions, false},
		{MenuSavings, "0", "1. My Groups", MenuDashboard, false},

		{MenuLoans, "1", "No loans found.", MenuLoans, false},
		{MenuLoans, "2", "Apply for Loan\n\nEnter loan amount:", MenuLoans, false},
		{MenuLoans, "3", "Make Repayment\n\nEnter repayment amount:", MenuLoans, false},
		{MenuLoans, "0", "1. My Groups", MenuDashboard, false},

		{MenuContributions, "1", "No contributions found.", MenuContributions, false},
		{MenuContributions, "2", "Schedule Contribution\n\nEnter amount:", MenuContributions, false},
		{MenuContributions, "0", "1. My Groups", MenuDashboard, false},

		{MenuEscrow, "1", "No escrow transactions found.", MenuEscrow, false},
		{MenuEscrow, "2", "Create Escrow Transaction\n\nEnter seller phone number:", MenuEscrow, false},
		{MenuEscrow, "0", "1. My Groups", MenuDashboard, false},

		{MenuComplaints, "1", "No complaints found.", MenuComplaints, false},
		{MenuComplaints, "2", "Submit Complaint\n\nEnter complaint type:", MenuComplaints, false},
		{MenuComplaints, "0", "1. My Groups", MenuDashboard, false},
	}

	covered := map[Menu]map[string]bool{}

	for _, edge := range edges {
		engine, store := newTestEngine(Services{})
		seed(store, authedSession(edge.menu))

		res := engine.Process(context.Background(), "sess-1", "08031234567", edge.input)

		assert.True(
			t,
			strings.HasPrefix(res.Message, edge.wantPrefix),
			"%s/%s: got %q, want prefix %q", edge.menu, edge.input, res.Message, edge.wantPrefix,
		)
		assert.Equal(t, edge.wantNext, res.NextMenu, "%s/%s next menu", edge.menu, edge.input)
		assert.Equal(t, edge.wantEnd, res.ShouldEnd, "%s/%s should end", edge.menu, edge.input)

		if covered[edge.menu] == nil {
			covered[edge.menu] = map[string]bool{}
		}
		covered[edge.menu][edge.input] = true
	}

	for menu, options := range menuTransitions {
		for input := range options {
			assert.True(t, covered[menu][input], "edge %s/%s has no expectation", menu, input)
		}
	}
}
