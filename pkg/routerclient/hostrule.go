package routerclient

import (
	"regexp"
	"strings"
)

// hostFuncRegex matches a Host(...) predicate in a router rule and captures
// its raw argument list, e.g. "`a.example.com`,`b.example.com`" out of
// "Host(`a.example.com`,`b.example.com`) && PathPrefix(`/api`)".
var hostFuncRegex = regexp.MustCompile("(?i)Host\\(([^)]*)\\)")

// backtickArgRegex pulls individual backtick-quoted arguments out of a
// Host(...) argument list.
var backtickArgRegex = regexp.MustCompile("`([^`]+)`")

// ExtractHosts returns every hostname named by a router rule, in either the
// modern "Host(`h1`,`h2`)" grammar or the legacy "Host:h1,h2" grammar. Both
// forms may appear in the same rule is not expected, but both are checked.
// An unparseable rule yields a nil slice rather than an error —
// callers treat a router with zero extracted hosts as a no-op.
func ExtractHosts(rule string) []string {
	var hosts []string
	seen := make(map[string]bool)

	for _, m := range hostFuncRegex.FindAllStringSubmatch(rule, -1) {
		for _, arg := range backtickArgRegex.FindAllStringSubmatch(m[1], -1) {
			host := strings.ToLower(strings.TrimSpace(arg[1]))
			if host != "" && !seen[host] {
				seen[host] = true
				hosts = append(hosts, host)
			}
		}
	}

	for _, host := range extractLegacyHosts(rule) {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" && !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}

	return hosts
}

// legacyHostRegex matches the v1-style "Host:h1,h2" predicate.
var legacyHostRegex = regexp.MustCompile(`(?i)Host:\s*([a-zA-Z0-9.,*-]+)`)

func extractLegacyHosts(rule string) []string {
	m := legacyHostRegex.FindStringSubmatch(rule)
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			hosts = append(hosts, p)
		}
	}
	return hosts
}
