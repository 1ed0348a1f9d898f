package ussd

import "regexp"

// Nigerian MSISDNs: optional +234/234/0 prefix, then a mobile prefix
// digit (7, 8 or 9), 0 or 1, and eight more digits.
var phonePattern = regexp.MustCompile(`^(\+234|234|0)?[789][01]\d{8}$`)

var pinPattern = regexp.MustCompile(`^\d{6}$`)

func validPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func validPIN(s string) bool {
	return pinPattern.MatchString(s)
}
