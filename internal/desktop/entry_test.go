package desktop

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firefoxEntry = `# comment line
[Desktop Entry]
Version=1.0
Type=Application
Name=Firefox
Name[de]=Firefox Webbrowser
GenericName=Web Browser
Comment=Browse the World Wide Web
Exec=firefox %u
Icon=firefox
Terminal=false
Categories=Network;WebBrowser;
Keywords=internet;www;
StartupWMClass=firefox

[Desktop Action new-window]
Name=New Window
Exec=firefox --new-window %u
`

func noLookPath(string) (string, error) { return "", errors.New("not found") }
func okLookPath(p string) (string, error) { return "/usr/bin/" + p, nil }

func TestParse(t *testing.T) {
	e, err := Parse(strings.NewReader(firefoxEntry), "/usr/share/applications/firefox.desktop", Options{})
	require.NoError(t, err)

	assert.Equal(t, TypeApplication, e.Type)
	assert.Equal(t, "Firefox", e.Name)
	assert.Equal(t, "Web Browser", e.GenericName)
	assert.Equal(t, "firefox %u", e.Exec, "action groups must not override the main Exec")
	assert.Equal(t, "firefox", e.Icon)
	assert.Equal(t, "firefox", e.StartupWMClass)
	assert.False(t, e.Terminal)
	assert.Equal(t, []string{"Network", "WebBrowser"}, e.Categories)
	assert.Equal(t, []string{"internet", "www"}, e.Keywords)
}

func TestParseLocalized(t *testing.T) {
	e, err := Parse(strings.NewReader(firefoxEntry), "firefox.desktop", Options{Locale: "de_DE.UTF-8"})
	require.NoError(t, err)
	assert.Equal(t, "Firefox Webbrowser", e.Name)
}

func TestParseLocalizedPrefersCountry(t *testing.T) {
	data := "[Desktop Entry]\nType=Application\nName=Files\nName[de]=Dateien\nName[de_AT]=Dateien AT\nName[de_CH]=Dateien CH\nExec=nautilus\n"

	tests := []struct {
		locale string
		want   string
	}{
		{"de_AT.UTF-8", "Dateien AT"},
		{"de_AT", "Dateien AT"},
		{"de_DE.UTF-8", "Dateien"},
		{"de", "Dateien"},
		{"fr_FR", "Files"},
		{"", "Files"},
	}

	for _, tt := range tests {
		e, err := Parse(strings.NewReader(data), "files.desktop", Options{Locale: tt.locale})
		require.NoError(t, err)
		assert.Equal(t, tt.want, e.Name, "locale %q", tt.locale)
	}
}

func TestLocaleRank(t *testing.T) {
	want := "sr_RS.UTF-8@latin"
	assert.Equal(t, 4, localeRank("sr_RS@latin", want))
	assert.Equal(t, 3, localeRank("sr_RS", want))
	assert.Equal(t, 2, localeRank("sr@latin", want))
	assert.Equal(t, 1, localeRank("sr", want))
	assert.Equal(t, 0, localeRank("hr", want))
	assert.Equal(t, 0, localeRank("sr", ""))
}

func TestParseFirstKeyWins(t *testing.T) {
	data := "[Desktop Entry]\nType=Application\nName=First\nName=Second\nExec=a\n"
	e, err := Parse(strings.NewReader(data), "x.desktop", Options{})
	require.NoError(t, err)
	assert.Equal(t, "First", e.Name)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts Options
	}{
		{"missing name", "[Desktop Entry]\nType=Application\nExec=foo\n", Options{}},
		{"missing exec", "[Desktop Entry]\nType=Application\nName=Foo\n", Options{}},
		{"link without url", "[Desktop Entry]\nType=Link\nName=Foo\n", Options{}},
		{"directory type", "[Desktop Entry]\nType=Directory\nName=Foo\n", Options{}},
		{"no type", "[Desktop Entry]\nName=Foo\nExec=foo\n", Options{}},
		{"hidden", "[Desktop Entry]\nType=Application\nName=Foo\nExec=foo\nHidden=true\n", Options{}},
		{"no display", "[Desktop Entry]\nType=Application\nName=Foo\nExec=foo\nNoDisplay=true\n", Options{}},
		{"try exec missing", "[Desktop Entry]\nType=Application\nName=Foo\nExec=foo\nTryExec=foo\n", Options{LookPath: noLookPath}},
		{"keys outside group", "[Other]\nType=Application\nName=Foo\nExec=foo\n", Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.data), "x.desktop", tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEntry), "got %v", err)
		})
	}
}

func TestParseTryExecFound(t *testing.T) {
	data := "[Desktop Entry]\nType=Application\nName=Foo\nExec=foo\nTryExec=foo\n"
	_, err := Parse(strings.NewReader(data), "x.desktop", Options{LookPath: okLookPath})
	assert.NoError(t, err)
}

func TestParseLink(t *testing.T) {
	data := "[Desktop Entry]\nType=Link\nName=Docs\nURL=https://example.com/docs\n"
	e, err := Parse(strings.NewReader(data), "docs.desktop", Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", e.URL)
}

func TestParseFileUnreadable(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.desktop"), Options{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestShowIn(t *testing.T) {
	e := &Entry{OnlyShowIn: []string{"GNOME"}, NotShowIn: nil}
	assert.True(t, e.ShowIn("ubuntu:GNOME"))
	assert.False(t, e.ShowIn("KDE"))
	assert.False(t, e.ShowIn(""))

	e = &Entry{NotShowIn: []string{"KDE"}}
	assert.False(t, e.ShowIn("KDE"))
	assert.True(t, e.ShowIn("GNOME"))
	assert.True(t, e.ShowIn(""))
}

func TestID(t *testing.T) {
	assert.Equal(t, "firefox.desktop", ID("/usr/share/applications", "/usr/share/applications/firefox.desktop"))
	assert.Equal(t, "kde-org.kde.dolphin.desktop", ID("/usr/share/applications", "/usr/share/applications/kde/org.kde.dolphin.desktop"))
	assert.Equal(t, "x.desktop", ID("/usr/share/applications", "/elsewhere/x.desktop"))
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b", unescape(`a\sb`))
	assert.Equal(t, `a\b`, unescape(`a\\b`))
	assert.Equal(t, "line\nbreak", unescape(`line\nbreak`))
	assert.Equal(t, "plain", unescape("plain"))
}
