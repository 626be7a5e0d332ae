package target

import (
	"strings"
)

// MinPreviewSize is the smallest thumbnail edge, in pixels, of a window that
// is actually rendering.
const MinPreviewSize = 20

// DefaultDenyTitles lists system and self-referential window titles that are
// never offered for capture. Matching is a case-insensitive substring test.
var DefaultDenyTitles = []string{
	"Program Manager",
	"Windows Input Experience",
	"Task Switching",
	"Task View",
	"Notification Center",
	"Control Center",
	"Window Server",
	"StatusIndicator",
	"Desktop Icons",
	"gnome-shell",
	"Screen Recording",
	"lapse record",
}

// DefaultAmbiguousApps are application names short or generic enough to show
// up inside unrelated window titles.
var DefaultAmbiguousApps = []string{
	"Code",
	"Arc",
	"Notion",
	"Zoom",
	"Teams",
}

// Rules configures the window filter pipeline.
type Rules struct {
	DenyTitles    []string
	AmbiguousApps []string
}

// DefaultRules returns the built-in deny-list and ambiguous app names.
func DefaultRules() Rules {
	return Rules{
		DenyTitles:    append([]string(nil), DefaultDenyTitles...),
		AmbiguousApps: append([]string(nil), DefaultAmbiguousApps...),
	}
}

// FilterContext is the state shared by one pass of the pipeline. It is built
// from a pre-pass over every source so that decisions about one window can
// depend on what else is running.
type FilterContext struct {
	rules   Rules
	deny    []string
	running map[string]bool // lower-cased ambiguous app name -> exact title seen
	seen    map[string]bool
}

// NewFilterContext runs the pre-pass over all sources.
func NewFilterContext(rules Rules, sources []Source) *FilterContext {
	fc := &FilterContext{
		rules:   rules,
		running: make(map[string]bool, len(rules.AmbiguousApps)),
		seen:    make(map[string]bool),
	}
	for _, d := range rules.DenyTitles {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			fc.deny = append(fc.deny, d)
		}
	}
	for _, app := range rules.AmbiguousApps {
		name := strings.ToLower(strings.TrimSpace(app))
		if name == "" {
			continue
		}
		fc.running[name] = false
		for _, s := range sources {
			if exactTitleMatch(s.Name, name) {
				fc.running[name] = true
				break
			}
		}
	}
	return fc
}

// exactTitleMatch reports whether title is exactly the app name, ignoring
// surrounding space and case. Substrings and prefixes deliberately do not
// count.
func exactTitleMatch(title, lowerName string) bool {
	return strings.ToLower(strings.TrimSpace(title)) == lowerName
}

// Filter is one named predicate of the window pipeline. Keep returns false to
// drop the source.
type Filter struct {
	Name string
	Keep func(s Source, fc *FilterContext) bool
}

// Pipeline is the ordered list of window filters.
var Pipeline = []Filter{
	{Name: "blank-title", Keep: keepTitled},
	{Name: "deny-list", Keep: keepAllowed},
	{Name: "preview-floor", Keep: keepRendering},
	{Name: "duplicate", Keep: keepFirstSeen},
	{Name: "ambiguous-app", Keep: keepUnambiguous},
}

func keepTitled(s Source, _ *FilterContext) bool {
	return strings.TrimSpace(s.Name) != ""
}

func keepAllowed(s Source, fc *FilterContext) bool {
	title := strings.ToLower(s.Name)
	for _, d := range fc.deny {
		if strings.Contains(title, d) {
			return false
		}
	}
	return true
}

func keepRendering(s Source, _ *FilterContext) bool {
	if s.Preview == nil {
		return false
	}
	b := s.Preview.Bounds()
	return b.Dx() >= MinPreviewSize && b.Dy() >= MinPreviewSize
}

func keepFirstSeen(s Source, fc *FilterContext) bool {
	if fc.seen[s.ID] {
		return false
	}
	fc.seen[s.ID] = true
	return true
}

func keepUnambiguous(s Source, fc *FilterContext) bool {
	title := strings.ToLower(s.Name)
	for name, running := range fc.running {
		if strings.Contains(title, name) && !running {
			return false
		}
	}
	return true
}

// Rejection records which filter dropped a source.
type Rejection struct {
	Source Source
	Filter string
}

// Apply runs the pipeline over sources in order. Each source is checked
// against every filter until one rejects it.
func Apply(filters []Filter, fc *FilterContext, sources []Source) (kept []Source, rejected []Rejection) {
	for _, s := range sources {
		ok := true
		for _, f := range filters {
			if !f.Keep(s, fc) {
				rejected = append(rejected, Rejection{Source: s, Filter: f.Name})
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, s)
		}
	}
	return kept, rejected
}
