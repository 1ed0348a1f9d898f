package ussd

import "context"

const (
	welcomeText     = "Welcome to WeThrift\n\n1. Login\n2. Register\n3. Help\n0. Exit"
	welcomeBackText = "Welcome back!\n\n1. Dashboard\n2. Groups\n3. Help\n0. Exit"
	helpText        = "Help\n\nFor support, call +234-XXX-XXXX\nOr email support@wethrift.com\n\n0. Back"
	goodbyeText     = "Thank you for using WeThrift!"
	errorText       = "Sorry, an error occurred. Please try again later."
	loginFirstText  = "Please login first."
)

// Per-menu option listings, reused verbatim by the menu headers, the
// "0. Back" targets and the invalid-option reprompts.
const (
	mainChoices          = "1. Dashboard\n2. Groups\n3. Help\n0. Exit"
	dashboardChoices     = "1. My Groups\n2. Savings\n3. Loans\n4. Contributions\n5. Escrow\n6. Complaints\n0. Back"
	groupsChoices        = "1. Join Group\n2. Create Group\n3. My Groups\n0. Back"
	savingsChoices       = "1. View Savings\n2. Create Savings Goal\n3. Make Contribution\n0. Back"
	loansChoices         = "1. View Loans\n2. Apply for Loan\n3. Make Repayment\n0. Back"
	contributionsChoices = "1. View History\n2. Schedule Contribution\n0. Back"
	escrowChoices        = "1. View Transactions\n2. Create Transaction\n0. Back"
	complaintsChoices    = "1. View Complaints\n2. Submit Complaint\n0. Back"
)

// transition is one edge of the menu graph. Either message/next/end
// describe a static reply, or render computes the reply (and the next
// menu) from live data.
type transition struct {
	message string
	render  func(*Engine, context.Context, *Session) Response
	next    Menu
	end     bool
}

// menuTransitions maps (current menu, trimmed input) to the edge to
// take. Input absent from a menu's map falls through to that menu's
// invalid-option reprompt. The auth menu is not here; it consumes
// free-form phone and PIN input and is handled by processAuth.
var menuTransitions = map[Menu]map[string]transition{
	MenuMain: {
		"1": {message: "Dashboard\n\n" + dashboardChoices, next: MenuDashboard},
		"2": {message: "Groups\n\n" + groupsChoices, next: MenuGroups},
		"3": {message: helpText, next: MenuMain},
		"0": {message: goodbyeText, end: true},
	},
	MenuDashboard: {
		"1": {render: (*Engine).showGroups},
		"2": {message: "Savings\n\n" + savingsChoices, next: MenuSavings},
		"3": {message: "Loans\n\n" + loansChoices, next: MenuLoans},
		"4": {message: "Contributions\n\n" + contributionsChoices, next: MenuContributions},
		"5": {message: "Escrow\n\n" + escrowChoices, next: MenuEscrow},
		"6": {message: "Complaints\n\n" + complaintsChoices, next: MenuComplaints},
		"0": {message: mainChoices, next: MenuMain},
	},
	MenuGroups: {
		"1": {message: "Enter group invite code:", next: MenuGroups},
		"2": {message: "Create Group\n\nEnter group name:", next: MenuGroups},
		"3": {render: (*Engine).showGroups},
		"0": {message: mainChoices, next: MenuMain},
	},
	MenuSavings: {
		"1": {render: (*Engine).showSavings},
		"2": {message: "Create Savings Goal\n\nEnter goal name:", next: MenuSavings},
		"3": {message: "Make Contribution\n\nEnter amount:", next: MenuContributions},
		"0": {message: dashboardChoices, next: MenuDashboard},
	},
	MenuLoans: {
		"1": {render: (*Engine).showLoans},
		"2": {message: "Apply for Loan\n\nEnter loan amount:", next: MenuLoans},
		"3": {message: "Make Repayment\n\nEnter repayment amount:", next: MenuLoans},
		"0": {message: dashboardChoices, next: MenuDashboard},
	},
	MenuContributions: {
		"1": {render: (*Engine).showContributions},
		"2": {message: "Schedule Contribution\n\nEnter amount:", next: MenuContributions},
		"0": {message: dashboardChoices, next: MenuDashboard},
	},
	MenuEscrow: {
		"1": {render: (*Engine).showEscrow},
		"2": {message: "Create Escrow Transaction\n\nEnter seller phone number:", next: MenuEscrow},
		"0": {message: dashboardChoices, next: MenuDashboard},
	},
	MenuComplaints: {
		"1": {render: (*Engine).showComplaints},
		"2": {message: "Submit Complaint\n\nEnter complaint type:\n1. Transaction\n2. Service\n3. Technical\n4. Other", next: MenuComplaints},
		"0": {message: dashboardChoices, next: MenuDashboard},
	},
}

var menuChoices = map[Menu]string{
	MenuMain:          mainChoices,
	MenuDashboard:     dashboardChoices,
	MenuGroups:        groupsChoices,
	MenuSavings:       savingsChoices,
	MenuLoans:         loansChoices,
	MenuContributions: contributionsChoices,
	MenuEscrow:        escrowChoices,
	MenuComplaints:    complaintsChoices,
}

// invalidOption re-prints the current menu's options so an unknown
// input never moves the dialog.
func invalidOption(menu Menu) Response {
	return Response{
		Message:  "Invalid option. Please try again.\n\n" + menuChoices[menu],
		NextMenu: menu,
	}
}
