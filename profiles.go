package grokflag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bogdanfinn/tls-client/profiles"
)

// DefaultImpersonate is the profile used when a request names none.
const DefaultImpersonate = "chrome120"

// customProfiles holds hand-built profiles that tls-client does not ship.
var customProfiles = map[string]profiles.ClientProfile{
	"chrome143": chrome143Profile,
}

// normalizeProfileName folds "chrome_120", "Chrome-120" and "chrome120" together.
func normalizeProfileName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

// LookupProfile resolves an impersonation name to a TLS client profile.
// Both curl-impersonate style names ("chrome120") and tls-client
// identifiers ("chrome_120") are accepted.
func LookupProfile(name string) (profiles.ClientProfile, error) {
	key := normalizeProfileName(name)
	if p, ok := customProfiles[key]; ok {
		return p, nil
	}
	for id, p := range profiles.MappedTLSClients {
		if normalizeProfileName(id) == key {
			return p, nil
		}
	}
	return profiles.ClientProfile{}, fmt.Errorf("%w: %q", ErrUnsupportedProfile, name)
}

// ProfileNames lists every accepted impersonation name in normalized form.
func ProfileNames() []string {
	seen := make(map[string]struct{}, len(profiles.MappedTLSClients)+len(customProfiles))
	for id := range profiles.MappedTLSClients {
		seen[normalizeProfileName(id)] = struct{}{}
	}
	for id := range customProfiles {
		seen[id] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
