// Package links recognizes Twitter/X and YouTube submission URLs in
// free-form message text. Matching is purely syntactic; URLs are never
// fetched or validated against the network.
package links

import (
	"regexp"
	"strings"

	"competition-bot/ledger"
)

var (
	twitterRegex = regexp.MustCompile(`(?i)https?://(?:twitter\.com|x\.com)/[^\s]+`)
	youtubeRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)[^\s&]+`)
	mentionRegex = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)
)

// Match is a recognized submission URL.
type Match struct {
	Platform ledger.Platform
	URL      string
	Handle   string
}

// Classify returns the first recognized submission URL in text, or nil
// if there is none. When both platforms appear, Twitter wins.
func Classify(text string) *Match {
	if url := twitterRegex.FindString(text); url != "" {
		return &Match{
			Platform: ledger.PlatformTwitter,
			URL:      url,
			Handle:   twitterHandle(text, url),
		}
	}

	if url := youtubeRegex.FindString(text); url != "" {
		// YouTube URLs carry no author information.
		return &Match{
			Platform: ledger.PlatformYouTube,
			URL:      url,
		}
	}

	return nil
}

// twitterHandle prefers an @mention in the surrounding text, falling
// back to the username segment of the URL path.
func twitterHandle(text, url string) string {
	if m := mentionRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	parts := strings.Split(url, "/")
	if len(parts) > 3 && parts[3] != "" {
		return parts[3]
	}
	return ""
}
