package main

import (
	"fmt"
	"strings"
)

// Account is one set of grok.com session cookies.
type Account struct {
	SSO       string
	SSORW     string
	Clearance string // empty means use the configured default
}

// accountSeparators are tried in order; "----" must precede shorter ones
// that could appear inside it.
var accountSeparators = []string{"----", "|", ":"}

// parseAccountLine accepts:
//   - sso:sso_rw[:cf_clearance]
//   - sso|sso_rw[|cf_clearance]
//   - sso----sso_rw[----cf_clearance]
//   - sso=...; sso-rw=...; cf_clearance=... (a Cookie header)
func parseAccountLine(line string) (Account, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Account{}, false
	}

	if strings.Contains(line, "=") {
		return parseCookieLine(line)
	}

	for _, sep := range accountSeparators {
		if !strings.Contains(line, sep) {
			continue
		}
		parts := strings.Split(line, sep)
		if len(parts) < 2 || len(parts) > 3 {
			return Account{}, false
		}
		acc := Account{
			SSO:   strings.TrimSpace(parts[0]),
			SSORW: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			acc.Clearance = strings.TrimSpace(parts[2])
		}
		if acc.SSO == "" || acc.SSORW == "" {
			return Account{}, false
		}
		return acc, true
	}

	return Account{}, false
}

func parseCookieLine(line string) (Account, bool) {
	var acc Account
	for _, part := range strings.Split(line, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(name) {
		case "sso":
			acc.SSO = strings.TrimSpace(value)
		case "sso-rw", "sso_rw":
			acc.SSORW = strings.TrimSpace(value)
		case "cf_clearance":
			acc.Clearance = strings.TrimSpace(value)
		}
	}
	if acc.SSO == "" || acc.SSORW == "" {
		return Account{}, false
	}
	return acc, true
}

// LoadAccounts reads every account in filename. Unparseable lines are
// skipped and their line numbers returned.
func LoadAccounts(filename string) ([]Account, []int, error) {
	accounts, skipped, err := readEntries(filename, parseAccountLine)
	if err != nil {
		return nil, nil, err
	}
	if len(accounts) == 0 {
		return nil, skipped, fmt.Errorf("no valid accounts found in %s", filename)
	}
	return accounts, skipped, nil
}

// Display masks the sso token so logs never carry a usable credential.
func (a Account) Display() string {
	return maskToken(a.SSO)
}

func maskToken(s string) string {
	const keep = 6
	if len(s) <= keep*2 {
		return strings.Repeat("*", len(s))
	}
	return s[:keep] + "..." + s[len(s)-keep:]
}
