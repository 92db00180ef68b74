package domain

// WafCookies is the anti-bot cookie set harvested from a browser session.
type WafCookies map[string]string

// wafCookieNames is the fixed set the service's WAF issues. A harvest is only
// usable when every name is present.
var wafCookieNames = []string{"acw_tc", "cdn_sec_tc", "acw_sc__v2"}

// WafCookieNames returns the required cookie names in a fresh slice.
func WafCookieNames() []string {
	names := make([]string, len(wafCookieNames))
	copy(names, wafCookieNames)
	return names
}

// Complete reports whether all required WAF cookies are present.
func (w WafCookies) Complete() bool {
	return len(w.Missing()) == 0
}

// Missing returns the required cookie names absent from the set.
func (w WafCookies) Missing() []string {
	var missing []string
	for _, name := range wafCookieNames {
		if _, ok := w[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
