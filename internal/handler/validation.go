package handler

import (
	"net/mail"
	"strings"
)

// IsValidEmail accepts a bare address such as "a@b.com". Display-name forms
// ("A <a@b.com>") are rejected.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
