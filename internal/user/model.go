package user

import (
	"regexp"
	"strings"
	"time"
)

type Role = string

const (
	Member     Role = "user"
	GroupAdmin Role = "group_admin"
	Admin      Role = "admin"
)

// BasicInfo is the subset of a user other packages embed in their
// responses (loan applicants, escrow parties, group admins).
type BasicInfo struct {
	UserID    string `json:"userId"    db:"user_id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName"  db:"last_name"`
}

type session struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var phonePattern = regexp.MustCompile(`^(\+234|234|0)?[789][01]\d{8}$`)

// ValidPhone reports whether s is a Nigerian MSISDN, with or without
// the +234/234/0 prefix. Whitespace is ignored.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(s, " ", ""))
}

// NormalizePhone converts any accepted MSISDN form to the local
// 0XXXXXXXXXX form, which is what the users table stores. The input
// must already satisfy ValidPhone.
func NormalizePhone(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "+234")
	s = strings.TrimPrefix(s, "234")

	if !strings.HasPrefix(s, "0") {
		s = "0" + s
	}

	return s
}
