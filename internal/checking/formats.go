package checking

import (
	"path/filepath"
	"sort"
	"strings"
)

// AutoFormat lets the server detect the content format.
const AutoFormat = "AUTO"

var defaultContentFormats = map[string]string{
	"markdown":   "MARKDOWN",
	"gfm":        "MARKDOWN",
	"text":       "TEXT",
	"html":       "HTML",
	"xml":        "XML",
	"nxml":       "XML",
	"json":       "JSON",
	"yaml":       "YAML",
	"properties": "PROPERTIES",
	"dita":       "DITA",
}

var defaultExtensionModes = map[string]string{
	".md":         "markdown",
	".markdown":   "markdown",
	".txt":        "text",
	".html":       "html",
	".htm":        "html",
	".xhtml":      "html",
	".xml":        "xml",
	".json":       "json",
	".yaml":       "yaml",
	".yml":        "yaml",
	".properties": "properties",
	".dita":       "dita",
	".ditamap":    "dita",
}

// ContentFormats maps editor modes and file extensions to the content
// format sent with a check.
type ContentFormats struct {
	modes      map[string]string
	extensions map[string]string
}

// NewContentFormats returns the built-in tables with overrides applied.
// Mode keys are case-insensitive; extension keys may omit the dot.
func NewContentFormats(modeOverrides, extensionOverrides map[string]string) ContentFormats {
	f := ContentFormats{
		modes:      make(map[string]string, len(defaultContentFormats)+len(modeOverrides)),
		extensions: make(map[string]string, len(defaultExtensionModes)+len(extensionOverrides)),
	}
	for k, v := range defaultContentFormats {
		f.modes[k] = v
	}
	for k, v := range modeOverrides {
		f.modes[strings.ToLower(k)] = v
	}
	for k, v := range defaultExtensionModes {
		f.extensions[k] = v
	}
	for k, v := range extensionOverrides {
		k = strings.ToLower(k)
		if !strings.HasPrefix(k, ".") {
			k = "." + k
		}
		f.extensions[k] = v
	}
	return f
}

// Lookup returns the content format for mode, or AutoFormat.
func (f ContentFormats) Lookup(mode string) string {
	if v, ok := f.modes[strings.ToLower(strings.TrimSpace(mode))]; ok && v != "" {
		return v
	}
	return AutoFormat
}

// ModeForPath guesses the mode of a file from its extension; "" when unknown.
func (f ContentFormats) ModeForPath(path string) string {
	return f.extensions[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns the known file extensions, sorted, each with its dot.
func (f ContentFormats) Extensions() []string {
	exts := make([]string, 0, len(f.extensions))
	for ext, mode := range f.extensions {
		if mode != "" {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
