// Package icons turns the Icon value of an entry into a file path.
package icons

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Sizes are searched largest first.
var Sizes = []string{"scalable", "512x512", "256x256", "128x128", "96x96", "64x64", "48x48", "32x32", "24x24", "16x16"}

var extensions = []string{".png", ".svg", ".xpm"}

type iconCache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, expiration time.Duration)
	Flush()
}

// Resolver looks up icon names in the hicolor theme and pixmaps.
type Resolver struct {
	dataDirs []string
	cache    iconCache
}

// NewResolver searches dataDirs (e.g. /usr/share) in order. Lookups are
// cached for ttl; a zero ttl caches forever.
func NewResolver(dataDirs []string, ttl time.Duration) *Resolver {
	if ttl == 0 {
		ttl = cache.NoExpiration
	}
	return &Resolver{
		dataDirs: dataDirs,
		cache:    cache.New(ttl, 10*time.Minute),
	}
}

// Resolve returns the path of the icon, or "" if none is found. Absolute
// paths are returned unchanged when they exist.
func (r *Resolver) Resolve(icon string) string {
	if icon == "" {
		return ""
	}
	if v, ok := r.cache.Get(icon); ok {
		return v.(string)
	}

	path := r.lookup(icon)
	r.cache.Set(icon, path, 0)
	return path
}

// Flush drops every cached lookup.
func (r *Resolver) Flush() {
	r.cache.Flush()
}

func (r *Resolver) lookup(icon string) string {
	if filepath.IsAbs(icon) {
		if fileExists(icon) {
			return icon
		}
		return ""
	}

	names := []string{icon}
	if !hasKnownExtension(filepath.Ext(icon)) {
		names = names[:0]
		for _, e := range extensions {
			names = append(names, icon+e)
		}
	}

	for _, dir := range r.dataDirs {
		for _, size := range Sizes {
			base := filepath.Join(dir, "icons", "hicolor", size, "apps")
			if p := firstExisting(base, names); p != "" {
				return p
			}
		}
	}
	for _, dir := range r.dataDirs {
		if p := firstExisting(filepath.Join(dir, "pixmaps"), names); p != "" {
			return p
		}
	}
	return ""
}

func hasKnownExtension(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func firstExisting(dir string, names []string) string {
	for _, n := range names {
		p := filepath.Join(dir, n)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SplitIconLocation splits a Windows icon location such as
// `"C:\app.exe",2` or `%SystemRoot%\shell32.dll,-3` into path and index.
func SplitIconLocation(loc string) (string, int) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", 0
	}

	if strings.HasPrefix(loc, `"`) {
		if end := strings.Index(loc[1:], `"`); end != -1 {
			path := loc[1 : end+1]
			rest := strings.TrimSpace(loc[end+2:])
			if strings.HasPrefix(rest, ",") {
				idx, _ := strconv.Atoi(strings.TrimSpace(rest[1:]))
				return path, idx
			}
			return path, 0
		}
	}

	comma := strings.LastIndex(loc, ",")
	if comma == -1 {
		return loc, 0
	}
	path := strings.TrimSpace(loc[:comma])
	idx, err := strconv.Atoi(strings.TrimSpace(loc[comma+1:]))
	if err != nil {
		return path, 0
	}
	return path, idx
}
