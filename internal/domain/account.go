package domain

import (
	"fmt"
	"strings"
)

// Account is one configured check-in target. Cookies hold the account's own
// session cookies; APIUser is the value of the service's account-identifying
// request header.
type Account struct {
	Name    string
	APIUser string
	Cookies map[string]string
}

// Label returns the display name for logs and reports. Accounts without a
// configured name are numbered from 1 in input order.
func (a Account) Label(index int) string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("Account %d", index+1)
}

// Validate rejects accounts that must not reach the network.
func (a Account) Validate() error {
	if a.APIUser == "" {
		return ErrMissingAPIUser
	}
	if len(a.Cookies) == 0 {
		return ErrInvalidCookies
	}
	return nil
}

// ParseCookieString parses a ";"-delimited "k=v" cookie string. Pairs without
// "=" are skipped; values keep any "=" after the first.
func ParseCookieString(raw string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		cookies[key] = value
	}
	return cookies
}
