package toml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	Name    string `toml:"name,omitempty"`
	APIUser string `toml:"api_user"`
	Cookies string `toml:"cookies"`
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		Name:    account.Name,
		APIUser: account.APIUser,
		Cookies: cookieString(account.Cookies),
	}
}

func fromSchema(entry accountSchema) domain.Account {
	return domain.Account{
		Name:    entry.Name,
		APIUser: entry.APIUser,
		Cookies: domain.ParseCookieString(entry.Cookies),
	}
}

// cookieString renders a cookie map in header form with stable ordering so
// repeated saves never reshuffle the file.
func cookieString(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}
