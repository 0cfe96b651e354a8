// Package videolink turns loosely formatted links to externally hosted
// videos into an iframe-embeddable URL and a fully qualified URL.
//
// Parsing is literal and case-sensitive substring matching. Nothing here
// returns an error: input that cannot be understood is passed through
// trimmed.
package videolink

import "strings"

// idRule extracts an identifier that follows marker and ends at the first
// of stops (or at a repeat of marker).
type idRule struct {
	marker string
	stops  string
}

// provider is one row of the provider table. The first provider whose host
// markers occur in the input owns it; its rules are tried in order and
// only the first rule whose marker is present is applied.
type provider struct {
	name     string
	hosts    []string
	rules    []idRule
	template string // %s is replaced by the identifier
}

var youtubeRules = []idRule{
	{marker: "watch?v=", stops: "&"},
	{marker: "youtu.be/", stops: "?&"},
	{marker: "embed/", stops: "?&"},
}

var providers = []provider{
	{
		name:     "youtube",
		hosts:    []string{"youtube.com", "youtu.be"},
		rules:    youtubeRules,
		template: "https://www.youtube.com/embed/%s?modestbranding=1&rel=0",
	},
	{
		name:     "vimeo",
		hosts:    []string{"vimeo.com"},
		rules:    []idRule{{marker: "vimeo.com/", stops: "?#"}},
		template: "https://player.vimeo.com/video/%s",
	},
	{
		name:     "drive",
		hosts:    []string{"drive.google.com", "docs.google.com"},
		rules:    []idRule{{marker: "/d/", stops: "/"}},
		template: "https://drive.google.com/file/d/%s/preview",
	},
}

// Embed returns the embeddable form of raw. An empty result means there
// is nothing to embed.
func Embed(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	for _, p := range providers {
		if !containsAny(url, p.hosts) {
			continue
		}
		id := extract(url, p.rules)
		if id == "" {
			return url
		}
		return strings.Replace(p.template, "%s", id, 1)
	}
	return url
}

// Canonical returns raw as an absolute URL, adding https:// when it does
// not already start with "http". An empty result means absent.
func Canonical(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http") {
		return "https://" + url
	}
	return url
}

// YouTubeID returns the YouTube video identifier in raw, or "" when none
// of the YouTube markers yields one. The host is not checked.
func YouTubeID(raw string) string {
	return extract(strings.TrimSpace(raw), youtubeRules)
}

// Provider names the provider that would handle raw, or "" for direct
// links.
func Provider(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	for _, p := range providers {
		if containsAny(url, p.hosts) {
			return p.name
		}
	}
	return ""
}

func extract(url string, rules []idRule) string {
	for _, r := range rules {
		_, rest, ok := strings.Cut(url, r.marker)
		if !ok {
			continue
		}
		if i := strings.Index(rest, r.marker); i >= 0 {
			rest = rest[:i]
		}
		if i := strings.IndexAny(rest, r.stops); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
