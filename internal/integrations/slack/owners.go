package slackbot

import (
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

const userCacheTTL = 5 * time.Minute

var userCache struct {
	sync.Mutex
	users     []slack.User
	fetchedAt time.Time
}

func getCachedUsers(api *slack.Client) ([]slack.User, error) {
	userCache.Lock()
	defer userCache.Unlock()

	if userCache.users != nil && time.Since(userCache.fetchedAt) < userCacheTTL {
		return userCache.users, nil
	}

	users, err := api.GetUsers()
	if err != nil {
		return nil, err
	}
	userCache.users = users
	userCache.fetchedAt = time.Now()
	return users, nil
}

func resetUserCache() {
	userCache.Lock()
	userCache.users = nil
	userCache.Unlock()
}

// ResolveOwnerMentions maps work-item owner IDs to Slack user IDs. Owners
// that already look like Slack IDs map to themselves; the rest are matched
// against workspace user names, first exactly and then by name tokens.
// Owners with no match are returned as unresolved.
func ResolveOwnerMentions(api *slack.Client, owners []string) (map[string]string, []string, error) {
	out := make(map[string]string)
	var names []string

	for _, raw := range uniqueStrings(owners) {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if isLikelySlackID(val) {
			out[raw] = val
		} else {
			names = append(names, raw)
		}
	}

	if len(names) == 0 {
		log.Printf("resolve owners: ids=%d names=0", len(out))
		return out, nil, nil
	}

	users, err := getCachedUsers(api)
	if err != nil {
		log.Printf("resolve owners: get users error: %v", err)
		return out, names, err
	}

	nameToID := make(map[string]string)
	for _, user := range users {
		if user.Deleted || user.IsBot {
			continue
		}
		for _, n := range userNames(user) {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" {
				continue
			}
			if _, exists := nameToID[n]; !exists {
				nameToID[n] = user.ID
			}
		}
	}

	var unresolved []string
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if id, ok := nameToID[key]; ok {
			out[name] = id
			continue
		}
		if id := matchByTokens(name, users); id != "" {
			out[name] = id
			continue
		}
		unresolved = append(unresolved, name)
	}

	log.Printf("resolve owners: resolved=%d unresolved=%d", len(out), len(unresolved))
	return out, unresolved, nil
}

func userNames(u slack.User) []string {
	return []string{u.Name, u.RealName, u.Profile.DisplayName}
}

// matchByTokens returns the single user whose names match owner by tokens.
// Ambiguous matches return "".
func matchByTokens(owner string, users []slack.User) string {
	match := ""
	for _, user := range users {
		if user.Deleted || user.IsBot {
			continue
		}
		if !anyNameMatches(userNames(user), owner) {
			continue
		}
		if match != "" && match != user.ID {
			return ""
		}
		match = user.ID
	}
	return match
}

func isLikelySlackID(val string) bool {
	if len(val) < 9 {
		return false
	}
	for i, r := range val {
		if i == 0 {
			if r != 'U' && r != 'W' {
				return false
			}
			continue
		}
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func uniqueStrings(vals []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

var parenPattern = regexp.MustCompile(`\([^)]*\)|（[^）]*）`)

func normalizeNameTokens(s string) []string {
	if s == "" {
		return nil
	}
	s = parenPattern.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	parts := strings.Fields(b.String())
	if len(parts) == 0 {
		return nil
	}
	return parts
}

// nameMatches accepts a match in either direction so "alice.smith" finds
// "Alice Smith (Ops)" and "Alice" finds "Alice Smith".
func nameMatches(entry, candidate string) bool {
	entryTokens := normalizeNameTokens(entry)
	candTokens := normalizeNameTokens(candidate)
	if len(entryTokens) == 0 || len(candTokens) == 0 {
		return false
	}
	return allIn(entryTokens, candTokens) || allIn(candTokens, entryTokens)
}

func allIn(needles, haystack []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, t := range haystack {
		set[t] = true
	}
	for _, t := range needles {
		if !set[t] {
			return false
		}
	}
	return true
}

func anyNameMatches(entries []string, candidate string) bool {
	for _, entry := range entries {
		if nameMatches(entry, candidate) {
			return true
		}
	}
	return false
}
