package cmd

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/pngseal/internal/manifest"
	"github.com/AnyUserName/pngseal/internal/pipeline"
	"github.com/AnyUserName/pngseal/internal/profile"
	"github.com/AnyUserName/pngseal/internal/seal"
	logging "github.com/op/go-logging"
)

func encodeFixture(t *testing.T, key *seal.Key) (string, *manifest.Manifest) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 5))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 13)
	}
	img.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 0})
	f, err := os.Create(filepath.Join(in, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m, err := pipeline.New(pipeline.Config{
		Input: in, OutputDir: out, Profile: profile.Get("balanced"), Key: key,
	}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := manifest.WriteJSON(m, filepath.Join(out, manifest.FileName)); err != nil {
		t.Fatal(err)
	}
	return out, m
}

func TestValidateManifest_Clean(t *testing.T) {
	key := seal.Key{9}
	dir, m := encodeFixture(t, &key)
	if errs := validateManifest(m, dir, true, &key); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateManifest_DetectsTampering(t *testing.T) {
	dir, m := encodeFixture(t, nil)
	path := filepath.Join(dir, m.Files["a.png"].Output)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-5] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	errs := validateManifest(m, dir, false, nil)
	if len(errs) == 0 || !strings.Contains(strings.Join(errs, "\n"), "hash mismatch") {
		t.Errorf("tampering not reported: %v", errs)
	}
}

func TestValidateManifest_WrongKeyDeep(t *testing.T) {
	key, other := seal.Key{9}, seal.Key{10}
	dir, m := encodeFixture(t, &key)
	errs := validateManifest(m, dir, true, &other)
	if len(errs) == 0 || !strings.Contains(errs[0], "decode") {
		t.Errorf("wrong key not reported: %v", errs)
	}
}

func TestValidateManifest_MissingFileAndStats(t *testing.T) {
	dir, m := encodeFixture(t, nil)
	os.Remove(filepath.Join(dir, m.Files["a.png"].Output))
	m.Stats.TotalFiles = 7
	errs := validateManifest(m, dir, false, nil)
	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "file not found") || !strings.Contains(joined, "total_files") {
		t.Errorf("errors = %v", errs)
	}
}

func TestValidateManifest_DeepOnDecodeRun(t *testing.T) {
	key := seal.Key{9}
	sealed, _ := encodeFixture(t, &key)
	plain := t.TempDir()
	m, err := pipeline.New(pipeline.Config{
		Input: sealed, OutputDir: plain, Mode: pipeline.ModeDecode, Key: &key,
	}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.Encrypted {
		t.Fatal("decode run recorded as encrypted")
	}
	if errs := validateManifest(m, plain, true, nil); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestSetupLogging_Verbose(t *testing.T) {
	defer setupLogging(false)
	setupLogging(true)
	if logging.GetLevel("codec") != logging.DEBUG {
		t.Errorf("verbose codec level = %v", logging.GetLevel("codec"))
	}
	setupLogging(false)
	if logging.GetLevel("codec") != logging.WARNING {
		t.Errorf("quiet codec level = %v", logging.GetLevel("codec"))
	}
}
