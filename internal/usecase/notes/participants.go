package notes

import (
	"regexp"
	"strings"
)

// emailPattern is deliberately lenient: it finds addresses in free text, it
// does not validate them
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ExtractParticipants returns the email addresses found in text, lower-cased
// and de-duplicated in order of first appearance. It returns nil when the
// text contains no address.
func ExtractParticipants(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	participants := make([]string, 0, len(matches))
	for _, m := range matches {
		email := strings.ToLower(m)
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		participants = append(participants, email)
	}
	return participants
}
