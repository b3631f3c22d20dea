package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// separatorRun matches runs of characters that are collapsed into a single
// hyphen when deriving a slug.
var separatorRun = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveSlug turns an organization name into a globally unique slug:
// lowercased, non-alphanumeric runs collapsed to single hyphens, leading and
// trailing hyphens trimmed, then a base36 timestamp suffix appended so no
// uniqueness retry loop is needed.
func DeriveSlug(name string, now time.Time) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = separatorRun.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	suffix := strconv.FormatInt(now.UnixMilli(), 36)
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

// SlugBase returns the slug for a name without the disambiguating suffix.
func SlugBase(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = separatorRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
