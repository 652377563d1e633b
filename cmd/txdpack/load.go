package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/txd"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// parseList splits a comma separated flag value into a set.
func parseList(s string) map[string]bool {
	set := make(map[string]bool)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			set[item] = true
		}
	}

	return set
}

// textureName is the file base name without extension.
func textureName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// collectPaths expands directories into their image files, sorted by name.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}

	return paths, nil
}

// loadSources decodes images into build sources. A nil filter keeps every
// image. Images not listed in opaque need alpha when they have any
// transparent pixel.
func loadSources(paths []string, filter, opaque map[string]bool) ([]txd.Source, error) {
	sources := make([]txd.Source, 0, len(paths))
	for _, path := range paths {
		name := textureName(path)
		if filter != nil && !filter[name] {
			continue
		}

		img, err := decodeImage(path)
		if err != nil {
			return nil, err
		}
		raster := txd.NewRasterImage(name, img)
		sources = append(sources, txd.Source{
			Image:         raster,
			AlphaRequired: !opaque[name] && txd.HasTransparentPixels(raster),
		})
	}

	return sources, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return img, nil
}
