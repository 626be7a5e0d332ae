package procstat

import (
	"context"
	"os"
	"testing"
)

func TestAliveSelf(t *testing.T) {
	ctx := context.Background()
	if !Alive(ctx, os.Getpid()) {
		t.Error("the test process should be alive")
	}
	if Alive(ctx, 0) || Alive(ctx, -4) {
		t.Error("non-positive pids are never alive")
	}
}

func TestSampleSelf(t *testing.T) {
	s, err := Sample(context.Background(), os.Getpid())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if int(s.PID) != os.Getpid() {
		t.Errorf("PID = %d, want %d", s.PID, os.Getpid())
	}
	if s.RSSBytes == 0 {
		t.Error("a running process should have resident memory")
	}
}

func TestSampleInvalidPid(t *testing.T) {
	if _, err := Sample(context.Background(), 0); err == nil {
		t.Error("expected an error for pid 0")
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[uint64]string{
		0:                "0 B",
		1023:             "1023 B",
		1024:             "1.0 KiB",
		1536:             "1.5 KiB",
		50 * 1024 * 1024: "50.0 MiB",
		3 << 30:          "3.0 GiB",
	}
	for n, want := range cases {
		if got := HumanBytes(n); got != want {
			t.Errorf("HumanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
