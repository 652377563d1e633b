package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/woozymasta/txd"
)

const version = "0.1.0"

func main() {
	var (
		output   = flag.String("o", "textures.txd", "Output texture dictionary")
		mode     = flag.String("mode", "cpu", "DXT1 compression path: cpu or gpu")
		nvtt     = flag.String("nvtt", "", "NVIDIA Texture Tools directory (gpu mode)")
		scope    = flag.String("scope", "all", "Texture scope: all or selected")
		selected = flag.String("select", "", "Comma separated texture names used with -scope selected")
		opaque   = flag.String("opaque", "", "Comma separated texture names forced to DXT1")
		workers  = flag.Int("workers", 0, "Worker goroutines per phase (0 = min(8, NumCPU))")
		timeout  = flag.Duration("timeout", txd.DefaultToolTimeout, "Timeout of one nvcompress attempt")
		dumpDir  = flag.String("dump-dir", "", "Also export every native as DDS into this directory")
		edds     = flag.Bool("edds", false, "Export previews as LZ4 compressed EDDS instead of DDS")
		inspect  = flag.String("inspect", "", "Print the natives of an existing dictionary and exit")
		verbose  = flag.Bool("v", false, "Log per-texture diagnostics")
		showVer  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("txdpack v%s\n", version)
		fmt.Printf("Built with Go %s\n", runtime.Version())
		return
	}

	if *inspect != "" {
		if err := printDictionary(*inspect); err != nil {
			log.Fatalf("Failed to inspect %s: %v", *inspect, err)
		}
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image|dir>...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := &txd.Options{
		Workers:     *workers,
		ToolDir:     *nvtt,
		ToolTimeout: *timeout,
	}
	if *verbose {
		opts.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	switch strings.ToLower(*mode) {
	case "cpu":
		opts.Mode = txd.ModeCPU
	case "gpu":
		opts.Mode = txd.ModeGPU
	default:
		log.Fatalf("Unknown mode %q", *mode)
	}

	var filter map[string]bool
	switch strings.ToLower(*scope) {
	case "all":
		opts.Scope = txd.ScopeAll
	case "selected":
		opts.Scope = txd.ScopeSelected
		filter = parseList(*selected)
	default:
		log.Fatalf("Unknown scope %q", *scope)
	}

	paths, err := collectPaths(args)
	if err != nil {
		log.Fatalf("Failed to collect images: %v", err)
	}
	sources, err := loadSources(paths, filter, parseList(*opaque))
	if err != nil {
		log.Fatalf("Failed to load images: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := txd.Build(ctx, sources, opts)
	if err != nil {
		if res != nil {
			fmt.Fprintln(os.Stderr, res.Status())
		}
		if errors.Is(err, context.Canceled) {
			log.Fatalf("Canceled")
		}
		log.Fatalf("Export failed: %v", err)
	}

	if err := res.Dictionary.WriteFile(*output); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}

	if *dumpDir != "" {
		if err := dumpNatives(*dumpDir, res.Dictionary, *edds); err != nil {
			log.Fatalf("Failed to dump previews: %v", err)
		}
	}

	fmt.Println(res.Status())
	fmt.Printf("Wrote %s\n", *output)
	if len(res.Transparent) > 0 {
		fmt.Printf("Textures with transparency: %s\n", strings.Join(res.Transparent, ", "))
	}
}

// dumpNatives exports each native as name.dds or name.edds.
func dumpNatives(dir string, d *txd.Dictionary, edds bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	write, ext := txd.WriteDDS, ".dds"
	if edds {
		write, ext = txd.WriteEDDS, ".edds"
	}
	for _, n := range d.Natives {
		if err := write(filepath.Join(dir, n.Name+ext), n); err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
	}

	return nil
}

func printDictionary(path string) error {
	d, err := txd.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d textures\n", path, len(d.Natives))
	for i, n := range d.Natives {
		fmt.Printf("%3d  %-31s  %-4s  %4dx%-4d  %2d bpp  %2d mipmaps\n",
			i, n.Name, n.Format, n.Width, n.Height, n.Depth(), len(n.Mipmaps))
	}

	return nil
}
