package target

import (
	"context"
	"errors"
	"image"
	"testing"

	"pgregory.net/rapid"
)

type fakeProvider struct {
	display    Geometry
	displayErr error
	sources    []Source
	sourcesErr error
	panicMsg   string
	gotThumb   image.Point
}

func (f *fakeProvider) PrimaryDisplay(context.Context) (Geometry, error) {
	return f.display, f.displayErr
}

func (f *fakeProvider) Sources(_ context.Context, thumb image.Point) ([]Source, error) {
	f.gotThumb = thumb
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.sources, f.sourcesErr
}

func TestListScreenFirst(t *testing.T) {
	p := &fakeProvider{
		display: Geometry{Width: 2560, Height: 1440},
		sources: []Source{
			win("w-1", "Terminal"),
			{ID: ScreenID(0), Kind: KindScreen, Preview: image.Rect(0, 0, 640, 360)},
			{ID: ScreenID(1), Name: "Screen 1", Kind: KindScreen},
		},
	}
	targets := NewEnumerator(p, DefaultRules(), nil).List(context.Background())

	if len(targets) != 3 {
		t.Fatalf("got %d targets, want 3", len(targets))
	}
	if targets[0].ID != "screen:0" || targets[0].Kind != KindScreen {
		t.Errorf("first target = %+v, want whole screen", targets[0])
	}
	if targets[0].DisplayName != "Entire screen" {
		t.Errorf("screen name = %q", targets[0].DisplayName)
	}
	if targets[0].Geometry != (Geometry{Width: 2560, Height: 1440}) {
		t.Errorf("screen geometry = %v", targets[0].Geometry)
	}
	if targets[0].Preview == nil {
		t.Error("screen preview not taken from provider")
	}
	if targets[1].ID != "screen:1" || targets[1].Geometry.Width != 2560 {
		t.Errorf("second screen = %+v", targets[1])
	}
	if targets[2].ID != "w-1" || targets[2].Kind != KindWindow {
		t.Errorf("window target = %+v", targets[2])
	}
	if p.gotThumb != image.Pt(640, 360) {
		t.Errorf("thumbnail request = %v, want (640,360)", p.gotThumb)
	}
}

func TestListFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		want     Geometry
	}{
		{"empty", &fakeProvider{display: Geometry{Width: 1280, Height: 800}}, Geometry{Width: 1280, Height: 800}},
		{"sources error", &fakeProvider{display: Geometry{Width: 1280, Height: 800}, sourcesErr: errors.New("denied")}, Geometry{Width: 1280, Height: 800}},
		{"display error", &fakeProvider{displayErr: errors.New("no xrandr")}, FallbackDisplay},
		{"zero display", &fakeProvider{}, FallbackDisplay},
		{"panic", &fakeProvider{display: Geometry{Width: 1280, Height: 800}, panicMsg: "boom"}, Geometry{Width: 1280, Height: 800}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets := NewEnumerator(tt.provider, DefaultRules(), nil).List(context.Background())
			if len(targets) != 1 {
				t.Fatalf("got %d targets, want only the screen", len(targets))
			}
			if targets[0].ID != "screen:0" || targets[0].Geometry != tt.want {
				t.Errorf("target = %+v, want screen:0 at %v", targets[0], tt.want)
			}
		})
	}
}

func TestListDedupesWindows(t *testing.T) {
	p := &fakeProvider{
		display: FallbackDisplay,
		sources: []Source{win("w-1", "Editor"), win("w-1", "Editor copy"), win("w-2", "Browser")},
	}
	targets := NewEnumerator(p, DefaultRules(), nil).List(context.Background())
	if len(targets) != 3 {
		t.Fatalf("got %d targets, want screen + 2 windows", len(targets))
	}
	if targets[1].DisplayName != "Editor" {
		t.Errorf("kept %q, want first occurrence", targets[1].DisplayName)
	}
}

func TestEstimateGeometry(t *testing.T) {
	tests := []struct {
		preview image.Rectangle
		origin  image.Point
		want    Geometry
	}{
		{image.Rect(0, 0, 480, 270), image.Pt(10, 20), Geometry{X: 10, Y: 20, Width: 1920, Height: 1080}},
		{image.Rect(0, 0, 160, 120), image.Point{}, Geometry{Width: 640, Height: 480}},
		{image.Rect(0, 0, 159, 300), image.Point{}, Geometry{Width: 1280, Height: 720}},
		{image.Rect(0, 0, 300, 100), image.Pt(5, 5), Geometry{X: 5, Y: 5, Width: 1280, Height: 720}},
	}
	for _, tt := range tests {
		if got := EstimateGeometry(tt.preview, tt.origin); got != tt.want {
			t.Errorf("EstimateGeometry(%v, %v) = %v, want %v", tt.preview, tt.origin, got, tt.want)
		}
	}
}

// Property: the enumerator never returns an empty list, and the first entry
// is always the whole screen.
func TestListNeverEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		var sources []Source
		for i := 0; i < n; i++ {
			w := rapid.IntRange(0, 200).Draw(t, "w")
			h := rapid.IntRange(0, 200).Draw(t, "h")
			sources = append(sources, Source{
				ID:      rapid.StringMatching(`w-[0-3]`).Draw(t, "id"),
				Name:    rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "name"),
				Kind:    KindWindow,
				Preview: image.Rect(0, 0, w, h),
			})
		}
		p := &fakeProvider{display: FallbackDisplay, sources: sources}
		if rapid.Bool().Draw(t, "fail") {
			p.sourcesErr = errors.New("unavailable")
		}

		targets := NewEnumerator(p, DefaultRules(), nil).List(context.Background())
		if len(targets) == 0 {
			t.Fatal("empty target list")
		}
		if targets[0].ID != "screen:0" {
			t.Fatalf("first target %q, want screen:0", targets[0].ID)
		}
		for _, tg := range targets[1:] {
			if tg.Geometry.Width < 640 || tg.Geometry.Height < 480 {
				t.Fatalf("window %q estimated at %v", tg.ID, tg.Geometry)
			}
		}
	})
}

func TestResolve(t *testing.T) {
	targets := []Target{
		{ID: "screen:0", DisplayName: "Entire screen", Kind: KindScreen, Geometry: Geometry{Width: 2560, Height: 1440}},
		{ID: "x11:0x1", DisplayName: "Terminal", Kind: KindWindow, Geometry: Geometry{Width: 800, Height: 600}},
	}

	got, ok := Resolve(targets, "x11:0x1", "")
	if !ok || got.DisplayName != "Terminal" {
		t.Errorf("known id: %+v %v", got, ok)
	}

	got, ok = Resolve(targets, "x11:0x1", "Terminal - zsh")
	if !ok || got.DisplayName != "Terminal - zsh" || got.Geometry.Width != 800 {
		t.Errorf("hint override: %+v %v", got, ok)
	}
	if targets[1].DisplayName != "Terminal" {
		t.Error("Resolve mutated its input")
	}

	got, ok = Resolve(targets, "screen:2", "")
	if !ok || got.Kind != KindScreen || got.Geometry.Width != 2560 || got.DisplayName != "Screen 2" {
		t.Errorf("synthetic screen: %+v %v", got, ok)
	}

	got, ok = Resolve(targets, "win:0x99", "Slack")
	if !ok || got.Kind != KindWindow || got.Geometry != DefaultWindowGeometry {
		t.Errorf("hinted window: %+v %v", got, ok)
	}

	if _, ok := Resolve(targets, "win:0x99", ""); ok {
		t.Error("unknown id without hint resolved")
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{KindScreen, KindWindow} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Kind
		if err := back.UnmarshalText(b); err != nil || back != k {
			t.Errorf("%v round-tripped to %v (%v)", k, back, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("monitor")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
