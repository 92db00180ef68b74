package domain

import "errors"

var (
	ErrMissingAPIUser    = errors.New("Missing api_user")
	ErrInvalidCookies    = errors.New("Invalid cookies")
	ErrWafCookiesMissing = errors.New("WAF cookies failed")
	ErrNoAccounts        = errors.New("no accounts configured")
)
