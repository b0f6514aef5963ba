package services

import (
	"fmt"
	"regexp"
	"strings"
)

// CoverSize is the edge length requested when upgrading artwork URLs.
const CoverSize = 300

// googleCoverSize is the largest square the YouTube Music web client requests.
const googleCoverSize = 544

var (
	// iTunes: .../100x100bb.jpg
	appleArtworkSize = regexp.MustCompile(`/(\d{2,4})x(\d{2,4})(bb|cc|sr)?\.(jpg|jpeg|png|webp)$`)
	// googleusercontent: ...=w60-h60-l90-rj
	googleArtworkSize = regexp.MustCompile(`=w\d+-h\d+`)

	appleCoverToken  = fmt.Sprintf("/%dx%d$3.$4", CoverSize, CoverSize)
	googleCoverToken = fmt.Sprintf("=w%d-h%d", googleCoverSize, googleCoverSize)
)

// NormalizeURL rewrites protocol-relative URLs (//host/path) to https and trims whitespace.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// UpgradeCover swaps a low-resolution size token in known artwork URL shapes for a larger one:
// [CoverSize] for Apple artwork, 544 for googleusercontent thumbnails.
//
// URLs that match no known shape are returned normalized but otherwise unchanged.
func UpgradeCover(u string) string {
	u = NormalizeURL(u)
	if u == "" {
		return ""
	}

	switch {
	case appleArtworkSize.MatchString(u):
		return appleArtworkSize.ReplaceAllString(u, appleCoverToken)
	case strings.Contains(u, "googleusercontent.com") && googleArtworkSize.MatchString(u):
		return googleArtworkSize.ReplaceAllString(u, googleCoverToken)
	}
	return u
}

// firstCover returns the first non-blank candidate, normalized and upgraded.
func firstCover(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return UpgradeCover(c)
		}
	}
	return ""
}

// releaseDate trims provider timestamps to an ISO date or a bare year.
//
// "2004-08-03T07:00:00Z" -> "2004-08-03", "2004-08" -> "2004", "2004" -> "2004".
func releaseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case len(raw) >= 10 && raw[4] == '-' && raw[7] == '-':
		return raw[:10]
	case len(raw) >= 4 && isDigits(raw[:4]):
		return raw[:4]
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
