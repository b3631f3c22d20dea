package validation

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlugBase(t *testing.T) {
	require.Equal(t, "acme", SlugBase("Acme"))
	require.Equal(t, "acme-corp", SlugBase("Acme Corp"))
	require.Equal(t, "acme-corp", SlugBase("  Acme!! Corp  "))
	require.Equal(t, "a-b-c", SlugBase("a@@b##c"))
	require.Equal(t, "", SlugBase("!!!"))
}

func TestDeriveSlug_AppendsTimestampSuffix(t *testing.T) {
	now := time.Now().UTC()
	slug := DeriveSlug("Acme Corp", now)

	suffix := strconv.FormatInt(now.UnixMilli(), 36)
	require.Equal(t, "acme-corp-"+suffix, slug)
}

func TestDeriveSlug_EmptyBase(t *testing.T) {
	now := time.Now().UTC()
	slug := DeriveSlug("!!!", now)

	require.NotEmpty(t, slug)
	require.False(t, strings.HasPrefix(slug, "-"))
}

func TestDeriveSlug_DistinctAcrossTime(t *testing.T) {
	a := DeriveSlug("Acme", time.UnixMilli(1000))
	b := DeriveSlug("Acme", time.UnixMilli(2000))
	require.NotEqual(t, a, b)
}
