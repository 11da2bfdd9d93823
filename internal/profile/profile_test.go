package profile

import (
	"bytes"
	"testing"

	googlepprof "github.com/google/pprof/profile"
)

func TestSampleValueIndexFindsCPUColumn(t *testing.T) {
	prof := &googlepprof.Profile{
		SampleType: []*googlepprof.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
	}
	if idx := sampleValueIndex(prof); idx != 1 {
		t.Errorf("sampleValueIndex = %d, want 1", idx)
	}
}

// A profile missing a "cpu" sample type (shouldn't happen for a
// runtime/pprof CPU profile, but sampleValueIndex must not panic)
// falls back to column 0.
func TestSampleValueIndexFallsBackWhenMissing(t *testing.T) {
	prof := &googlepprof.Profile{
		SampleType: []*googlepprof.ValueType{{Type: "samples", Unit: "count"}},
	}
	if idx := sampleValueIndex(prof); idx != 0 {
		t.Errorf("sampleValueIndex = %d, want 0", idx)
	}
}

var nextID uint64

func fn(name string) *googlepprof.Function {
	nextID++
	return &googlepprof.Function{ID: nextID, Name: name}
}

func TestTopFrameMatchesPrefix(t *testing.T) {
	sample := &googlepprof.Sample{
		Location: []*googlepprof.Location{
			{Line: []googlepprof.Line{{Function: fn("github.com/rahularya50/lispc/internal/opt.DCE")}}},
		},
	}
	name, ok := topFrame(sample, "github.com/rahularya50/lispc")
	if !ok {
		t.Fatal("expected topFrame to match")
	}
	if name != "github.com/rahularya50/lispc/internal/opt.DCE" {
		t.Errorf("topFrame name = %q", name)
	}
}

func TestTopFrameRejectsOutsidePrefix(t *testing.T) {
	sample := &googlepprof.Sample{
		Location: []*googlepprof.Location{
			{Line: []googlepprof.Line{{Function: fn("runtime.mallocgc")}}},
		},
	}
	if _, ok := topFrame(sample, "github.com/rahularya50/lispc"); ok {
		t.Error("expected topFrame to reject a runtime frame outside the package prefix")
	}
}

func TestTopFrameHandlesEmptyLocation(t *testing.T) {
	sample := &googlepprof.Sample{}
	if _, ok := topFrame(sample, "anything"); ok {
		t.Error("expected topFrame to reject a sample with no location")
	}
}

// topFrame only inspects the innermost frame (index 0); a match deeper
// in the stack must not count.
func TestTopFrameOnlyInspectsInnermostLocation(t *testing.T) {
	sample := &googlepprof.Sample{
		Location: []*googlepprof.Location{
			{Line: []googlepprof.Line{{Function: fn("runtime.mallocgc")}}},
			{Line: []googlepprof.Line{{Function: fn("github.com/rahularya50/lispc/internal/opt.DCE")}}},
		},
	}
	if _, ok := topFrame(sample, "github.com/rahularya50/lispc"); ok {
		t.Error("topFrame must not match a frame beneath the innermost location")
	}
}

func TestNsToDurationFormatsMilliseconds(t *testing.T) {
	if got := nsToDuration(1_500_000); got != "1.500ms" {
		t.Errorf("nsToDuration(1500000) = %q, want %q", got, "1.500ms")
	}
	if got := nsToDuration(0); got != "0.000ms" {
		t.Errorf("nsToDuration(0) = %q, want %q", got, "0.000ms")
	}
}

var nextLocID uint64

// location builds a single-frame Location wrapping fn, registered
// under its own ID the way a real profile.Parse would reconstruct it.
func location(f *googlepprof.Function) *googlepprof.Location {
	nextLocID++
	return &googlepprof.Location{ID: nextLocID, Line: []googlepprof.Line{{Function: f}}}
}

// summarize aggregates self time per matching function, sorted
// descending by time and tie-broken by name. Built as a genuine
// serialize/parse round trip through the same gzip-protobuf wire
// format Summarize reads from disk, not a hand-inspected in-memory
// struct, so it also exercises preEncode/postDecode's ID-based
// location and function linking.
func TestSummarizeAggregatesAndSorts(t *testing.T) {
	dce := fn("github.com/rahularya50/lispc/internal/opt.DCE")
	build := fn("github.com/rahularya50/lispc/internal/ssa.Build")
	gc := fn("runtime.gcBgMarkWorker")

	dceLoc := location(dce)
	buildLoc := location(build)
	gcLoc := location(gc)

	prof := &googlepprof.Profile{
		SampleType: []*googlepprof.ValueType{{Type: "cpu", Unit: "nanoseconds"}},
		Function:   []*googlepprof.Function{dce, build, gc},
		Location:   []*googlepprof.Location{dceLoc, buildLoc, gcLoc},
		Sample: []*googlepprof.Sample{
			{Value: []int64{100}, Location: []*googlepprof.Location{dceLoc}},
			{Value: []int64{50}, Location: []*googlepprof.Location{dceLoc}},
			{Value: []int64{200}, Location: []*googlepprof.Location{buildLoc}},
			{Value: []int64{9999}, Location: []*googlepprof.Location{gcLoc}},
		},
	}

	var buf bytes.Buffer
	if err := prof.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := summarize(&buf, "github.com/rahularya50/lispc")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (runtime frame filtered out): %+v", len(entries), entries)
	}
	if entries[0].Function != "github.com/rahularya50/lispc/internal/ssa.Build" || entries[0].Self != 200 {
		t.Errorf("entries[0] = %+v, want ssa.Build with self 200", entries[0])
	}
	if entries[1].Function != "github.com/rahularya50/lispc/internal/opt.DCE" || entries[1].Self != 150 {
		t.Errorf("entries[1] = %+v, want opt.DCE with self 150 (100+50 aggregated)", entries[1])
	}
}
