// Package env loads account configuration from the ANYROUTER_ACCOUNTS
// environment variable, the format CI pipelines inject as a repository
// secret.
package env

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

// AccountsKey is the environment variable carrying the account list. When
// set it takes precedence over the accounts file.
const AccountsKey = "ANYROUTER_ACCOUNTS"

// Source reads a JSON array of account objects from the environment.
type Source struct{}

func NewSource() *Source { return &Source{} }

// Load parses ANYROUTER_ACCOUNTS. The value must be a JSON array of objects
// each carrying cookies and api_user; failures name the offending entry so a
// bad secret is diagnosable from the log alone.
func (s *Source) Load(_ context.Context) ([]domain.Account, error) {
	raw := os.Getenv(AccountsKey)
	if raw == "" {
		return nil, fmt.Errorf("%s environment variable not set", AccountsKey)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%s must be a JSON array of account objects: %w", AccountsKey, err)
	}

	accounts := make([]domain.Account, 0, len(entries))
	for i, entry := range entries {
		account, err := parseEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i+1, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func parseEntry(entry json.RawMessage) (domain.Account, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return domain.Account{}, fmt.Errorf("not a JSON object: %w", err)
	}

	cookiesRaw, hasCookies := fields["cookies"]
	apiUserRaw, hasAPIUser := fields["api_user"]
	if !hasCookies || !hasAPIUser {
		return domain.Account{}, errors.New("missing required fields (cookies, api_user)")
	}

	apiUser, err := decodeAPIUser(apiUserRaw)
	if err != nil {
		return domain.Account{}, err
	}

	cookies, err := decodeCookies(cookiesRaw)
	if err != nil {
		return domain.Account{}, err
	}

	var name string
	if nameRaw, ok := fields["name"]; ok {
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return domain.Account{}, fmt.Errorf("name must be a string: %w", err)
		}
	}

	return domain.Account{Name: name, APIUser: apiUser, Cookies: cookies}, nil
}

// decodeAPIUser accepts both string and numeric identifiers; the service's
// console exports them inconsistently.
func decodeAPIUser(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", errors.New("api_user must be a string")
}

func decodeCookies(raw json.RawMessage) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		return m, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.ParseCookieString(s), nil
	}
	return nil, errors.New("cookies must be an object or a cookie header string")
}
