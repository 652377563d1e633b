package txd

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/woozymasta/bcn"
)

// MaxWorkers caps the compression worker pool.
const MaxWorkers = 8

// Mode selects the DXT1 compression path.
type Mode int

const (
	// ModeCPU compresses everything with the built-in encoder.
	ModeCPU Mode = iota
	// ModeGPU compresses DXT1 textures with nvcompress.
	ModeGPU
)

func (m Mode) String() string {
	if m == ModeGPU {
		return "GPU (NVTT)"
	}

	return "CPU"
}

// Scope tells which part of the scene the sources were collected from.
type Scope int

const (
	// ScopeAll means every texture of the scene.
	ScopeAll Scope = iota
	// ScopeSelected means textures of the selected objects only.
	ScopeSelected
)

func (s Scope) String() string {
	if s == ScopeSelected {
		return "selected objects"
	}

	return "scene"
}

// location renders the scope after "found", e.g. "in scene".
func (s Scope) location() string {
	if s == ScopeSelected {
		return "on " + s.String()
	}

	return "in " + s.String()
}

// Options configures Build. Nil options compress on CPU with default workers.
type Options struct {
	// Logger receives per-texture diagnostics. Nil discards them.
	Logger *log.Logger
	// runner replaces process execution in tests.
	runner commandRunner
	// ToolDir is the NVIDIA Texture Tools directory, used in ModeGPU only.
	ToolDir string
	// Workers is the pool size per phase, 0 means min(8, NumCPU).
	Workers int
	// ToolTimeout bounds each nvcompress attempt, 0 means DefaultToolTimeout.
	ToolTimeout time.Duration
	// Mode selects CPU or nvcompress compression for DXT1 textures.
	Mode Mode
	// Scope names where the sources came from in the empty-input error.
	Scope Scope
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}

	return o.Logger
}

func (o *Options) workers() int {
	n := o.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}

	return min(max(n, 1), MaxWorkers)
}

// Result is the outcome of Build.
type Result struct {
	// Dictionary is nil when Build fails.
	Dictionary *Dictionary
	// Notice explains a GPU mode downgrade to CPU.
	Notice string
	// Skipped lists rejected textures as "name (WxH)".
	Skipped []string
	// Failed lists textures whose compression failed.
	Failed []string
	// Transparent lists textures containing any transparent pixel.
	Transparent []string
	DXT1Count   int
	DXT3Count   int
	// Fallbacks counts DXT1 textures that fell back from nvcompress to CPU.
	Fallbacks int
	Mode      Mode
}

// Status returns a human readable summary.
func (r *Result) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exported %d DXT1 + %d DXT3 (%s)", r.DXT1Count, r.DXT3Count, r.Mode)
	if r.Fallbacks > 0 {
		fmt.Fprintf(&b, ", %d fell back to CPU", r.Fallbacks)
	}
	if r.Notice != "" {
		fmt.Fprintf(&b, "\n%s", r.Notice)
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped: %s", strings.Join(r.Skipped, ", "))
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(&b, "\nFailed: %s", strings.Join(r.Failed, ", "))
	}

	return b.String()
}

// job is one texture ready for compression. pix is a bottom-up snapshot
// owned by the job and never written after dispatch.
type job struct {
	name   string
	pix    []byte
	width  int
	height int
	format bcn.Format
}

type compressFunc func(ctx context.Context, j *job) (*TextureNative, error)

// Build validates sources, compresses them and assembles a dictionary with
// all DXT1 natives first and all DXT3 natives second, each in input order.
//
// Unaligned or invalid sources are skipped and failing textures dropped; Build
// fails with ErrNoTexturesProcessed only when nothing is left. The returned
// Result carries the skip and failure report in that case too.
func Build(ctx context.Context, sources []Source, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.logger()

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoTextures, opts.Scope.location())
	}

	res := &Result{Mode: ModeCPU}
	var dxt1Jobs, dxt3Jobs []*job
	for _, src := range sources {
		img := src.Image
		if err := img.validate(); err != nil {
			logger.Printf("txd: skip: %v", err)
			res.Skipped = append(res.Skipped, skippedLabel(img))
			continue
		}
		if HasTransparentPixels(img) {
			res.Transparent = append(res.Transparent, img.Name)
		}
		if img.Width%4 != 0 || img.Height%4 != 0 {
			logger.Printf("txd: skip %s: %v: %dx%d", img.Name, ErrUnalignedSize, img.Width, img.Height)
			res.Skipped = append(res.Skipped, skippedLabel(img))
			continue
		}

		j := &job{name: img.Name, pix: img.flipped(), width: img.Width, height: img.Height}
		if src.AlphaRequired {
			j.format = bcn.FormatDXT3
			dxt3Jobs = append(dxt3Jobs, j)
		} else {
			j.format = bcn.FormatDXT1
			dxt1Jobs = append(dxt1Jobs, j)
		}
	}

	cpu := func(_ context.Context, j *job) (*TextureNative, error) {
		return compressPixels(j.name, j.pix, j.width, j.height, j.format)
	}

	dxt1Compress := cpu
	var fallbacks atomic.Int64
	if opts.Mode == ModeGPU && len(dxt1Jobs) > 0 {
		off, err := NewOffloader(opts.ToolDir)
		if err != nil {
			res.Notice = fmt.Sprintf("GPU mode unavailable, using CPU: %v", err)
			logger.Printf("txd: %s", res.Notice)
		} else {
			if opts.runner != nil {
				off.runner = opts.runner
			}
			if opts.ToolTimeout > 0 {
				off.timeout = opts.ToolTimeout
			}
			res.Mode = ModeGPU
			dxt1Compress = func(ctx context.Context, j *job) (*TextureNative, error) {
				native, err := off.compressPixels(ctx, j.name, j.pix, j.width, j.height)
				if err == nil {
					return native, nil
				}
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Printf("txd: %s: falling back to CPU: %v", j.name, err)
				fallbacks.Add(1)
				return cpu(ctx, j)
			}
		}
	}

	workers := opts.workers()
	natives := make([]*TextureNative, 0, len(dxt1Jobs)+len(dxt3Jobs))
	phases := []struct {
		jobs     []*job
		compress compressFunc
		count    *int
	}{
		{dxt1Jobs, dxt1Compress, &res.DXT1Count},
		{dxt3Jobs, cpu, &res.DXT3Count},
	}
	for _, phase := range phases {
		out, errs := runPhase(ctx, phase.jobs, workers, phase.compress)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, native := range out {
			if errs[i] != nil {
				logger.Printf("txd: %s: %v", phase.jobs[i].name, errs[i])
				res.Failed = append(res.Failed, phase.jobs[i].name)
				continue
			}
			natives = append(natives, native)
			*phase.count++
		}
	}
	res.Fallbacks = int(fallbacks.Load())

	if len(natives) == 0 {
		return res, ErrNoTexturesProcessed
	}
	res.Dictionary = &Dictionary{Natives: natives}

	return res, nil
}

// runPhase compresses jobs on a bounded pool. Results land in the slot of
// their job, so output order follows input order whatever the scheduling.
func runPhase(ctx context.Context, jobs []*job, workers int, compress compressFunc) ([]*TextureNative, []error) {
	out := make([]*TextureNative, len(jobs))
	errs := make([]error, len(jobs))
	if len(jobs) == 0 {
		return out, errs
	}

	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				out[i], errs[i] = runJob(ctx, jobs[i], compress)
			}
		}()
	}
	wg.Wait()

	return out, errs
}

// runJob turns a panic in a job into an error.
func runJob(ctx context.Context, j *job, compress compressFunc) (native *TextureNative, err error) {
	defer func() {
		if r := recover(); r != nil {
			native, err = nil, fmt.Errorf("%w: %q: panic: %v", ErrCompressTexture, j.name, r)
		}
	}()

	return compress(ctx, j)
}

func skippedLabel(img *RasterImage) string {
	if img == nil {
		return "<nil>"
	}
	name := img.Name
	if name == "" {
		name = "<unnamed>"
	}

	return fmt.Sprintf("%s (%dx%d)", name, img.Width, img.Height)
}
