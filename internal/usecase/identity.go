package usecase

import (
	"strings"

	"FeedNotifier/internal/domain"
)

const identitySeparator = "||"

// DeriveIdentity combines the source address with the entry's native identifier.
// Entries with neither guid nor link have no identity and cannot be tracked.
func DeriveIdentity(source string, entry domain.Entry) (domain.Identity, bool) {
	raw := strings.TrimSpace(entry.RawIdentifier)
	if raw == "" {
		raw = strings.TrimSpace(entry.Link)
	}
	if raw == "" {
		return "", false
	}
	return domain.Identity(source + identitySeparator + raw), true
}
