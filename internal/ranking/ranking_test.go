package ranking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoth/thoth/internal/models"
)

// lengthMatcher matches candidates containing the query; shorter wins.
type lengthMatcher struct{}

func (lengthMatcher) Name() string { return "length" }

func (lengthMatcher) Score(q, c string) (int, bool) {
	if !strings.Contains(strings.ToLower(c), strings.ToLower(q)) {
		return 0, false
	}
	return 100 - len(c), true
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "skim", "levenshtein", "jaro"} {
		m, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, m)
	}

	_, err := New("soundex")
	assert.ErrorIs(t, err, ErrUnknownMatcher)
}

func TestSkim(t *testing.T) {
	m := Skim{}

	_, ok := m.Score("fire", "Firefox")
	assert.True(t, ok, "case-insensitive subsequence should match")

	_, ok = m.Score("frfx", "Firefox")
	assert.True(t, ok)

	_, ok = m.Score("xof", "Firefox")
	assert.False(t, ok, "out of order characters must not match")

	prefix, _ := m.Score("fire", "Firefox")
	buried, _ := m.Score("fire", "Xfire")
	assert.Greater(t, prefix, buried)
}

func TestLevenshtein(t *testing.T) {
	m := Levenshtein{}

	tests := []struct {
		query     string
		candidate string
		ok        bool
	}{
		{"fire", "Firefox", true},
		{"fox", "Firefox", true},
		{"firfox", "Firefox", true},
		{"frefox", "Firefox", true},
		{"gimp", "Firefox", false},
		{"ab", "xy", false},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.candidate, func(t *testing.T) {
			_, ok := m.Score(tt.query, tt.candidate)
			assert.Equal(t, tt.ok, ok)
		})
	}

	sub, _ := m.Score("fire", "Firefox")
	typo, _ := m.Score("fure", "Firefox")
	assert.Greater(t, sub, typo)
}

func TestLevenshteinSubstringAlwaysBeatsDistance(t *testing.T) {
	m := Levenshtein{}

	long := strings.Repeat("x", 600) + " firefox"
	sub, ok := m.Score("fire", long)
	require.True(t, ok)
	typo, ok := m.Score("fure", "Fire")
	require.True(t, ok)
	assert.Greater(t, sub, typo)

	// offsets count runes, so accented prefixes cost the same as ascii ones
	accented, _ := m.Score("fox", "éé fox")
	plain, _ := m.Score("fox", "ee fox")
	assert.Equal(t, plain, accented)
}

func TestJaro(t *testing.T) {
	m := NewJaro()

	exact, ok := m.Score("firefox", "Firefox")
	require.True(t, ok)
	assert.Equal(t, 1000, exact)

	near, ok := m.Score("firefx", "Firefox")
	require.True(t, ok)
	assert.Less(t, near, exact)

	_, ok = m.Score("zzz", "Firefox")
	assert.False(t, ok)

	_, ok = Jaro{}.Score("fox", "Firefox")
	assert.True(t, ok, "zero value works and substrings always match")
}

func TestRank(t *testing.T) {
	items := []models.Runnable{
		models.NewRunnable("Terminal Emulator", "/a/term-emu"),
		models.NewRunnable("Term", "/b/term"),
		models.NewRunnable("term", "/a/term"),
		models.NewRunnable("Gimp", "/a/gimp"),
		{Exec: "/c/terminal.exe", FileName: "terminal.exe"},
		{Exec: "/c/unnamed"},
	}

	got := Rank("term", items, lengthMatcher{}, 0)
	var execs []string
	for _, s := range got {
		execs = append(execs, s.Item.Exec)
	}
	assert.Equal(t, []string{"/a/term", "/b/term", "/c/terminal.exe", "/a/term-emu"}, execs)
}

func TestRankLimit(t *testing.T) {
	var items []models.Runnable
	for _, n := range []string{"aa", "aaa", "aaaa", "aaaaa"} {
		items = append(items, models.NewRunnable(n, "/"+n))
	}

	got := Items(Rank("a", items, lengthMatcher{}, 2))
	require.Len(t, got, 2)
	assert.Equal(t, "aa", got[0].Name)
	assert.Equal(t, "aaa", got[1].Name)
}

func TestRankNoMatches(t *testing.T) {
	items := []models.Runnable{models.NewRunnable("Gimp", "/gimp")}
	assert.Empty(t, Rank("zzz", items, Skim{}, 10))
}

func TestRankScoresAllBeforeTruncating(t *testing.T) {
	var items []models.Runnable
	for i := 0; i < 20; i++ {
		items = append(items, models.NewRunnable(strings.Repeat("x", 30-i)+"fire", "/x"))
	}
	items = append(items, models.NewRunnable("Firefox", "/usr/bin/firefox"))

	got := Items(Rank("fire", items, Skim{}, 10))
	require.Len(t, got, 10)
	assert.Equal(t, "Firefox", got[0].Name, "best match must survive truncation even when listed last")
}
