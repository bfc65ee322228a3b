// Package assets answers whether a sound id has a playable file in the
// sounds directory.
package assets

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Ext is the file extension sound ids map to.
const Ext = ".mp3"

// existsTTL bounds how long a lookup result is reused.
const existsTTL = 30 * time.Second

// statFile is a package-level var to allow test injection.
var statFile = os.Stat

// Dir is a sounds directory with memoised existence checks.
type Dir struct {
	root string
	memo *cache.Cache
}

// DefaultRoot returns ~/.warhorn/sounds.
func DefaultRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".warhorn", "sounds")
}

// New returns a Dir rooted at root.
func New(root string) *Dir {
	return &Dir{
		root: root,
		memo: cache.New(existsTTL, 2*existsTTL),
	}
}

// FileName returns the file name for a sound id, adding Ext when missing.
func FileName(sound string) string {
	if strings.HasSuffix(sound, Ext) {
		return sound
	}
	return sound + Ext
}

// Path returns the absolute file path for a sound id.
func (d *Dir) Path(sound string) string {
	return filepath.Join(d.root, FileName(sound))
}

// Exists reports whether the sound id has a regular file on disk.
func (d *Dir) Exists(sound string) bool {
	if sound == "" {
		return false
	}
	if v, ok := d.memo.Get(sound); ok {
		return v.(bool)
	}

	info, err := statFile(d.Path(sound))
	found := err == nil && info.Mode().IsRegular()
	d.memo.Set(sound, found, cache.DefaultExpiration)
	return found
}

// Filter returns the sounds that exist, preserving order.
func (d *Dir) Filter(sounds []string) []string {
	out := make([]string, 0, len(sounds))
	for _, s := range sounds {
		if d.Exists(s) {
			out = append(out, s)
		}
	}
	return out
}

// Missing returns the sounds that do not exist, preserving order.
func (d *Dir) Missing(sounds []string) []string {
	var out []string
	for _, s := range sounds {
		if !d.Exists(s) {
			out = append(out, s)
		}
	}
	return out
}

// Forget drops every memoised result.
func (d *Dir) Forget() {
	d.memo.Flush()
}
