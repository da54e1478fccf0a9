package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// Source represents a discovered input file.
type Source struct {
	// AbsPath is the path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input root, with forward slashes.
	RelPath string
	// Key is the manifest key (relpath without extension).
	Key string
	// Format is the source format (png, jpeg, gif, bmp, tiff, webp).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// imageExtensions maps recognized file extensions to format names.
var imageExtensions = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".webp": "webp",
	".gif":  "gif",
	".bmp":  "bmp",
	".tiff": "tiff",
	".tif":  "tiff",
}

// ScanImages returns the image sources under input. input may be a single
// file, in which case its base name is the relative path. When pngOnly is set
// only .png files are returned.
func ScanImages(input string, pngOnly bool) ([]Source, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		src, ok := newSource(input, filepath.Base(input), info.Size(), pngOnly)
		if !ok {
			return nil, nil
		}
		return []Source{src}, nil
	}

	var sources []Source
	err = filepath.Walk(input, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Skip hidden directories.
			if strings.HasPrefix(info.Name(), ".") && path != input {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(input, path)
		if err != nil {
			return err
		}
		if src, ok := newSource(path, relPath, info.Size(), pngOnly); ok {
			sources = append(sources, src)
		}
		return nil
	})
	return sources, err
}

func newSource(path, relPath string, size int64, pngOnly bool) (Source, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := imageExtensions[ext]
	if !ok || (pngOnly && format != "png") {
		return Source{}, false
	}
	relPath = filepath.ToSlash(relPath)
	return Source{
		AbsPath: path,
		RelPath: relPath,
		Key:     relPath[:len(relPath)-len(ext)],
		Format:  format,
		Size:    size,
	}, true
}

// OutputPath is where src is written under outDir: same relative location,
// always with a .png extension.
func (s Source) OutputPath(outDir string) string {
	return filepath.Join(outDir, filepath.FromSlash(s.Key)+".png")
}
