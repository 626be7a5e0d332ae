package target

import (
	"image"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func win(id, title string) Source {
	return Source{ID: id, Name: title, Kind: KindWindow, Preview: SizePreview(1600, 1000)}
}

func keptIDs(sources []Source) []string {
	ids := make([]string, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.ID)
	}
	return ids
}

func runPipeline(rules Rules, sources []Source) ([]Source, []Rejection) {
	return Apply(Pipeline, NewFilterContext(rules, sources), sources)
}

func TestPipelineRejections(t *testing.T) {
	tiny := win("w-tiny", "Tiny")
	tiny.Preview = image.Rect(0, 0, 19, 40)
	blind := win("w-blind", "No preview")
	blind.Preview = nil

	sources := []Source{
		win("w-blank", "   "),
		win("w-deny", "Program Manager"),
		win("w-deny-case", "notification center - alerts"),
		tiny,
		blind,
		win("w-ok", "Terminal"),
		win("w-ok", "Terminal (again)"),
		win("w-code", "main.go - Code Review Notes"),
	}

	kept, rejected := runPipeline(DefaultRules(), sources)

	if got := keptIDs(kept); len(got) != 1 || got[0] != "w-ok" {
		t.Fatalf("kept = %v, want [w-ok]", got)
	}
	if kept[0].Name != "Terminal" {
		t.Errorf("duplicate kept %q, want first seen %q", kept[0].Name, "Terminal")
	}

	want := map[string]string{
		"w-blank":     "blank-title",
		"w-deny":      "deny-list",
		"w-deny-case": "deny-list",
		"w-tiny":      "preview-floor",
		"w-blind":     "preview-floor",
		"w-code":      "ambiguous-app",
	}
	for _, r := range rejected {
		if r.Source.ID == "w-ok" {
			if r.Filter != "duplicate" {
				t.Errorf("second w-ok rejected by %q, want duplicate", r.Filter)
			}
			continue
		}
		if want[r.Source.ID] != r.Filter {
			t.Errorf("%s rejected by %q, want %q", r.Source.ID, r.Filter, want[r.Source.ID])
		}
		delete(want, r.Source.ID)
	}
	if len(want) != 0 {
		t.Errorf("not rejected: %v", want)
	}
}

func TestPreviewFloorBoundary(t *testing.T) {
	edge := win("w-edge", "Edge")
	edge.Preview = image.Rect(0, 0, MinPreviewSize, MinPreviewSize)
	kept, _ := runPipeline(DefaultRules(), []Source{edge})
	if len(kept) != 1 {
		t.Errorf("a %dx%d preview should pass the floor", MinPreviewSize, MinPreviewSize)
	}
}

func TestAmbiguousAppAllowedWithExactMatch(t *testing.T) {
	sources := []Source{
		win("w-1", "Code"),
		win("w-2", "lapse - Visual Studio Code"),
		win("w-3", "Zoom Meeting"),
	}
	kept, _ := runPipeline(DefaultRules(), sources)
	got := strings.Join(keptIDs(kept), ",")
	if got != "w-1,w-2" {
		t.Errorf("kept = %s, want w-1,w-2", got)
	}
}

func TestExactMatchIgnoresCaseAndSpace(t *testing.T) {
	sources := []Source{
		win("w-1", "  zoom "),
		win("w-2", "Zoom Meeting"),
	}
	kept, _ := runPipeline(DefaultRules(), sources)
	if len(kept) != 2 {
		t.Errorf("kept = %v, want both windows", keptIDs(kept))
	}
}

func TestExactMatchMayComeFromFilteredSource(t *testing.T) {
	// The pre-pass looks at every source, including ones later rejected.
	hidden := win("w-1", "Teams")
	hidden.Preview = nil
	kept, _ := runPipeline(DefaultRules(), []Source{hidden, win("w-2", "Chat | Microsoft Teams")})
	if got := keptIDs(kept); len(got) != 1 || got[0] != "w-2" {
		t.Errorf("kept = %v, want [w-2]", got)
	}
}

func TestCustomRules(t *testing.T) {
	rules := Rules{DenyTitles: []string{"secret"}, AmbiguousApps: nil}
	kept, _ := runPipeline(rules, []Source{
		win("w-1", "Top SECRET plans"),
		win("w-2", "Program Manager"),
		win("w-3", "Code"),
	})
	if got := strings.Join(keptIDs(kept), ","); got != "w-2,w-3" {
		t.Errorf("kept = %s, want w-2,w-3", got)
	}
}

// Property: a window whose title exactly equals a deny-list entry is never
// kept, whatever else is running.
func TestDenyListedTitleNeverKept(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rules := DefaultRules()
		denied := rapid.SampledFrom(rules.DenyTitles).Draw(t, "denied")
		others := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,15}`), 0, 6).Draw(t, "others")

		sources := []Source{win("w-denied", denied)}
		for i, title := range others {
			sources = append(sources, win("w-"+strings.Repeat("x", i+1), title))
		}
		pos := rapid.IntRange(0, len(sources)-1).Draw(t, "pos")
		sources[0], sources[pos] = sources[pos], sources[0]

		kept, _ := runPipeline(rules, sources)
		for _, s := range kept {
			if s.ID == "w-denied" {
				t.Fatalf("deny-listed title %q was kept", denied)
			}
		}
	})
}

// Property: a title containing an ambiguous app name is kept only when some
// source is titled exactly with that name.
func TestAmbiguousSubstringNeedsExactMatch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		app := rapid.SampledFrom(DefaultAmbiguousApps).Draw(t, "app")
		prefix := rapid.StringMatching(`[bdfghjkl]{1,8} - `).Draw(t, "prefix")
		withExact := rapid.Bool().Draw(t, "withExact")

		sources := []Source{win("w-sub", prefix+app)}
		if withExact {
			sources = append(sources, win("w-exact", strings.ToUpper(app)))
		}

		kept, _ := runPipeline(Rules{AmbiguousApps: DefaultAmbiguousApps}, sources)
		var subKept bool
		for _, s := range kept {
			if s.ID == "w-sub" {
				subKept = true
			}
		}
		if subKept != withExact {
			t.Fatalf("title %q kept=%v, exact match present=%v", prefix+app, subKept, withExact)
		}
	})
}
