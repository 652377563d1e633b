package txd

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/woozymasta/bcn"
)

func TestBuildOrdersDXT1BeforeDXT3(t *testing.T) {
	t.Parallel()

	alpha := map[string]bool{
		"a3": true, "b1": false, "c3": true, "d1": false,
		"e1": false, "f3": true, "g1": false, "h3": true,
	}
	order := []string{"a3", "b1", "c3", "d1", "e1", "f3", "g1", "h3"}
	want := []string{"b1", "d1", "e1", "g1", "a3", "c3", "f3", "h3"}

	for run := 0; run < 5; run++ {
		src := make([]Source, 0, len(order))
		for i, name := range order {
			c := color.NRGBA{R: uint8(i * 20), G: 80, B: 40, A: 255}
			src = append(src, Source{Image: solidImage(name, 8+4*i, 8, c), AlphaRequired: alpha[name]})
		}

		res, err := Build(context.Background(), src, &Options{Workers: MaxWorkers})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if res.DXT1Count != 4 || res.DXT3Count != 4 {
			t.Fatalf("counts = %d+%d, want 4+4", res.DXT1Count, res.DXT3Count)
		}
		for i, n := range res.Dictionary.Natives {
			if n.Name != want[i] {
				t.Fatalf("run %d: native %d = %s, want %s", run, i, n.Name, want[i])
			}
			wantFormat := bcn.FormatDXT1
			if alpha[n.Name] {
				wantFormat = bcn.FormatDXT3
			}
			if n.Format != wantFormat {
				t.Fatalf("native %s format = %v, want %v", n.Name, n.Format, wantFormat)
			}
		}
	}
}

func TestBuildNoLostResultsUnderParallelism(t *testing.T) {
	t.Parallel()

	const count = 64
	src := make([]Source, count)
	for i := range src {
		c := color.NRGBA{R: uint8(i * 3), G: uint8(255 - i), B: 7, A: 255}
		src[i] = Source{Image: solidImage(fmt.Sprintf("tex%02d", i), 16, 16, c), AlphaRequired: i%3 == 0}
	}

	res, err := Build(context.Background(), src, &Options{Workers: MaxWorkers})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Dictionary.Natives) != count {
		t.Fatalf("natives = %d, want %d", len(res.Dictionary.Natives), count)
	}

	seen := make(map[string]bool, count)
	for _, n := range res.Dictionary.Natives {
		if seen[n.Name] {
			t.Fatalf("duplicate native %s", n.Name)
		}
		seen[n.Name] = true
	}
}

func TestBuildSkipsUnalignedTextures(t *testing.T) {
	t.Parallel()

	var logBuf strings.Builder
	src := []Source{
		{Image: solidImage("odd", 6, 6, color.NRGBA{A: 255})},
		{Image: solidImage("good", 8, 8, color.NRGBA{A: 255})},
	}
	res, err := Build(context.Background(), src, &Options{Logger: log.New(&logBuf, "", 0)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Dictionary.Natives) != 1 || res.Dictionary.Natives[0].Name != "good" {
		t.Fatalf("unexpected natives")
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "odd (6x6)" {
		t.Fatalf("skipped = %v, want [odd (6x6)]", res.Skipped)
	}
	if !strings.Contains(res.Status(), "odd (6x6)") {
		t.Fatalf("status %q must report the skipped texture", res.Status())
	}
	if !strings.Contains(logBuf.String(), "odd") {
		t.Fatalf("log %q must mention the skipped texture", logBuf.String())
	}
}

func TestBuildFailsWhenNothingProcessed(t *testing.T) {
	t.Parallel()

	src := []Source{
		{Image: solidImage("odd", 6, 6, color.NRGBA{A: 255})},
		{Image: solidImage("odder", 10, 3, color.NRGBA{A: 255})},
	}
	res, err := Build(context.Background(), src, nil)
	if !errors.Is(err, ErrNoTexturesProcessed) {
		t.Fatalf("expected ErrNoTexturesProcessed, got %v", err)
	}
	if err.Error() != "no textures could be processed" {
		t.Fatalf("message = %q", err.Error())
	}
	if res == nil || res.Dictionary != nil || len(res.Skipped) != 2 {
		t.Fatalf("result must carry the report and no dictionary: %+v", res)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		scope Scope
		want  string
	}{
		{name: "scene", scope: ScopeAll, want: "no textures found in scene"},
		{name: "selected", scope: ScopeSelected, want: "no textures found on selected objects"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Build(context.Background(), nil, &Options{Scope: tc.scope})
			if !errors.Is(err, ErrNoTextures) {
				t.Fatalf("expected ErrNoTextures, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("message = %q, want %q", err.Error(), tc.want)
			}
		})
	}
}

func TestBuildInvalidSources(t *testing.T) {
	t.Parallel()

	src := []Source{
		{Image: nil},
		{Image: &RasterImage{Width: 4, Height: 4, Pix: make([]byte, 64)}},
		{Image: &RasterImage{Name: "short", Width: 4, Height: 4, Pix: make([]byte, 10)}},
		{Image: solidImage("ok", 4, 4, color.NRGBA{A: 255})},
	}
	res, err := Build(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Skipped) != 3 || len(res.Dictionary.Natives) != 1 {
		t.Fatalf("skipped = %v, natives = %d", res.Skipped, len(res.Dictionary.Natives))
	}
}

func TestBuildReportsTransparentImages(t *testing.T) {
	t.Parallel()

	src := []Source{
		{Image: solidImage("glass", 4, 4, color.NRGBA{B: 255, A: 128})},
		{Image: solidImage("brick", 4, 4, color.NRGBA{R: 255, A: 255})},
		{Image: solidImage("fence", 4, 4, color.NRGBA{G: 255, A: 0}), AlphaRequired: true},
	}
	res, err := Build(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Join(res.Transparent, ",") != "glass,fence" {
		t.Fatalf("transparent = %v, want [glass fence]", res.Transparent)
	}
	if got := res.Status(); !strings.HasPrefix(got, "Exported 2 DXT1 + 1 DXT3 (CPU)") {
		t.Fatalf("status = %q", got)
	}
}

func TestBuildCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Build(ctx, []Source{{Image: solidImage("a", 4, 4, color.NRGBA{A: 255})}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Fatalf("canceled build must not return a result")
	}
}

func TestRunPhaseIsolatesFailures(t *testing.T) {
	t.Parallel()

	jobs := make([]*job, 10)
	for i := range jobs {
		jobs[i] = &job{name: fmt.Sprintf("j%d", i), width: 4, height: 4, pix: make([]byte, 64), format: bcn.FormatDXT1}
	}
	compress := func(_ context.Context, j *job) (*TextureNative, error) {
		switch j.name {
		case "j3":
			panic("boom")
		case "j7":
			return nil, errors.New("broken")
		}
		return compressPixels(j.name, j.pix, j.width, j.height, j.format)
	}

	out, errs := runPhase(context.Background(), jobs, 4, compress)
	for i := range jobs {
		switch i {
		case 3:
			if !errors.Is(errs[i], ErrCompressTexture) {
				t.Fatalf("job 3: expected ErrCompressTexture, got %v", errs[i])
			}
		case 7:
			if errs[i] == nil {
				t.Fatalf("job 7: expected error")
			}
		default:
			if errs[i] != nil || out[i] == nil || out[i].Name != jobs[i].name {
				t.Fatalf("job %d: native %v, err %v", i, out[i], errs[i])
			}
		}
	}
}

func TestBuildGPUWithoutToolFallsBackToCPU(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	runner := &fakeRunner{fn: func([]string) error {
		calls.Add(1)
		return nil
	}}

	src := []Source{
		{Image: solidImage("a", 8, 8, color.NRGBA{R: 1, A: 255})},
		{Image: solidImage("b", 8, 8, color.NRGBA{R: 2, A: 255})},
	}
	opts := &Options{Mode: ModeGPU, ToolDir: t.TempDir(), runner: runner}
	res, err := Build(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("external tool invoked %d times", calls.Load())
	}
	if res.Mode != ModeCPU || res.Notice == "" || len(res.Dictionary.Natives) != 2 {
		t.Fatalf("mode = %v, notice = %q, natives = %d", res.Mode, res.Notice, len(res.Dictionary.Natives))
	}
	if !strings.Contains(res.Notice, "nvcompress not found") {
		t.Fatalf("notice = %q", res.Notice)
	}
}

func TestOptionsWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{in: 1, want: 1},
		{in: 3, want: 3},
		{in: 64, want: MaxWorkers},
		{in: -1, want: (&Options{}).workers()},
	}
	for _, tc := range tests {
		if got := (&Options{Workers: tc.in}).workers(); got != tc.want {
			t.Fatalf("workers(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := (&Options{}).workers(); got < 1 || got > MaxWorkers {
		t.Fatalf("default workers = %d", got)
	}
}
