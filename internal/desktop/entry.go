// Package desktop reads freedesktop.org desktop entry files.
package desktop

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	groupDesktopEntry = "[Desktop Entry]"

	TypeApplication = "Application"
	TypeLink        = "Link"
	TypeDirectory   = "Directory"
)

// ErrInvalidEntry marks a file that parsed but cannot be launched or listed.
var ErrInvalidEntry = errors.New("invalid desktop entry")

// Entry is the [Desktop Entry] group of a .desktop file.
type Entry struct {
	Path string

	Type           string
	Name           string
	GenericName    string
	Comment        string
	Exec           string
	TryExec        string
	Icon           string
	WorkDir        string
	URL            string
	StartupWMClass string
	Terminal       bool
	NoDisplay      bool
	Hidden         bool
	OnlyShowIn     []string
	NotShowIn      []string
	Keywords       []string
	Categories     []string
}

// Options tweak parsing.
type Options struct {
	// Locale selects Name[xx] style keys, e.g. "de" or "pt_BR".
	Locale string
	// LookPath resolves TryExec; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// ParseFile reads and validates the desktop entry at path.
func ParseFile(path string, opts Options) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, path, opts)
}

// Parse reads a desktop entry from r. The returned error wraps
// ErrInvalidEntry when required keys are missing or the entry is hidden.
func Parse(r io.Reader, path string, opts Options) (*Entry, error) {
	e := &Entry{Path: path}
	localized := map[string]string{}
	rank := map[string]int{}
	seen := map[string]bool{}
	inDesktopEntry := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			inDesktopEntry = line == groupDesktopEntry
			continue
		}

		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if base, locale, isLocalized := splitLocaleKey(key); isLocalized {
			if r := localeRank(locale, opts.Locale); r > rank[base] {
				rank[base] = r
				localized[base] = unescape(value)
			}
			continue
		}

		if seen[key] {
			continue
		}
		seen[key] = true
		e.set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if name, ok := localized["Name"]; ok {
		e.Name = name
	}
	if comment, ok := localized["Comment"]; ok {
		e.Comment = comment
	}
	if generic, ok := localized["GenericName"]; ok {
		e.GenericName = generic
	}

	if err := e.validate(opts); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Entry) set(key, value string) {
	switch key {
	case "Type":
		e.Type = value
	case "Name":
		e.Name = unescape(value)
	case "GenericName":
		e.GenericName = unescape(value)
	case "Comment":
		e.Comment = unescape(value)
	case "Exec":
		e.Exec = value
	case "TryExec":
		e.TryExec = unescape(value)
	case "Icon":
		e.Icon = unescape(value)
	case "Path":
		e.WorkDir = unescape(value)
	case "URL":
		e.URL = unescape(value)
	case "StartupWMClass":
		e.StartupWMClass = value
	case "Terminal":
		e.Terminal = parseBool(value)
	case "NoDisplay":
		e.NoDisplay = parseBool(value)
	case "Hidden":
		e.Hidden = parseBool(value)
	case "OnlyShowIn":
		e.OnlyShowIn = splitList(value)
	case "NotShowIn":
		e.NotShowIn = splitList(value)
	case "Keywords":
		e.Keywords = splitList(value)
	case "Categories":
		e.Categories = splitList(value)
	}
}

func (e *Entry) validate(opts Options) error {
	if e.Name == "" {
		return fmt.Errorf("%w: %s: missing Name", ErrInvalidEntry, e.Path)
	}

	switch e.Type {
	case TypeApplication:
		if e.Exec == "" {
			return fmt.Errorf("%w: %s: missing Exec", ErrInvalidEntry, e.Path)
		}
	case TypeLink:
		if e.URL == "" {
			return fmt.Errorf("%w: %s: missing URL", ErrInvalidEntry, e.Path)
		}
	default:
		return fmt.Errorf("%w: %s: unsupported type %q", ErrInvalidEntry, e.Path, e.Type)
	}

	if e.Hidden || e.NoDisplay {
		return fmt.Errorf("%w: %s: not displayed", ErrInvalidEntry, e.Path)
	}

	if e.TryExec != "" {
		lookPath := opts.LookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		if _, err := lookPath(e.TryExec); err != nil {
			return fmt.Errorf("%w: %s: TryExec %s not found", ErrInvalidEntry, e.Path, e.TryExec)
		}
	}

	return nil
}

// ShowIn reports whether the entry should be listed on the given desktop
// ($XDG_CURRENT_DESKTOP, colon separated). An empty desktop shows everything
// not restricted by OnlyShowIn.
func (e *Entry) ShowIn(currentDesktop string) bool {
	desktops := splitColon(currentDesktop)

	for _, d := range desktops {
		for _, not := range e.NotShowIn {
			if strings.EqualFold(d, not) {
				return false
			}
		}
	}

	if len(e.OnlyShowIn) == 0 {
		return true
	}
	for _, d := range desktops {
		for _, only := range e.OnlyShowIn {
			if strings.EqualFold(d, only) {
				return true
			}
		}
	}
	return false
}

// ID returns the desktop file ID of path relative to the applications dir
// it was found in: "kde/org.foo.desktop" becomes "kde-org.foo.desktop".
func ID(appsDir, path string) string {
	rel, err := filepath.Rel(appsDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

func splitLocaleKey(key string) (base, locale string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}

// localeRank scores a key's locale against want, higher for a closer match:
// lang_COUNTRY@MODIFIER, then lang_COUNTRY, then lang@MODIFIER, then lang.
// Zero means no match.
func localeRank(keyLocale, want string) int {
	lang, country, modifier := splitLocale(want)
	if lang == "" {
		return 0
	}

	var candidates []string
	if country != "" && modifier != "" {
		candidates = append(candidates, lang+"_"+country+"@"+modifier)
	}
	if country != "" {
		candidates = append(candidates, lang+"_"+country)
	}
	if modifier != "" {
		candidates = append(candidates, lang+"@"+modifier)
	}
	candidates = append(candidates, lang)

	for i, c := range candidates {
		if keyLocale == c {
			return len(candidates) - i
		}
	}
	return 0
}

// splitLocale breaks lang_COUNTRY.ENCODING@MODIFIER into its parts, dropping
// the encoding.
func splitLocale(locale string) (lang, country, modifier string) {
	locale, modifier, _ = strings.Cut(locale, "@")
	locale, _, _ = strings.Cut(locale, ".")
	lang, country, _ = strings.Cut(locale, "_")
	return lang, country, modifier
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, unescape(part))
		}
	}
	return out
}

func splitColon(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ":") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// unescape handles the freedesktop string escapes (\s \n \t \r \\).
func unescape(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i+1 == len(v) {
			b.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
