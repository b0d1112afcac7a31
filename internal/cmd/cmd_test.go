package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WEBTOOLS_CODEC_BACKEND", "native")
	t.Setenv("WEBTOOLS_LOG_LEVEL", "error")

	root := NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIDsCmd(t *testing.T) {
	out, err := run(t, "ids", "--kind", "uuid-v7", "-n", "3")
	require.NoError(t, err)
	lines := strings.Fields(out)
	assert.Len(t, lines, 3)

	_, err = run(t, "ids", "-n", "1000")
	assert.Error(t, err)
}

func TestPasswordCmd(t *testing.T) {
	out, err := run(t, "password", "--length", "16", "--numbers", "--count", "2")
	require.NoError(t, err)
	lines := strings.Fields(out)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Len(t, l, 16)
		assert.Equal(t, "", strings.Trim(l, "0123456789"))
	}
}

func TestHashCmd(t *testing.T) {
	out, err := run(t, "hash", "--text", "abc", "--algorithm", "sha1",
		"--expected", "a9993e364706816aba3e25717850c26c9cd0d89d")
	require.NoError(t, err)
	assert.Contains(t, out, "SHA-1  a9993e364706816aba3e25717850c26c9cd0d89d  input field")
	assert.Contains(t, out, "OK")

	path := filepath.Join(t.TempDir(), "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))
	out, err = run(t, "hash", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")

	_, err = run(t, "hash", "--text", "abc", "--expected", "00")
	assert.ErrorContains(t, err, "checksum mismatch")

	_, err = run(t, "hash")
	assert.Error(t, err)
}

func TestOptimizeCmd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")

	img := image.NewNRGBA(image.Rect(0, 0, 1000, 2000))
	for y := 0; y < 2000; y++ {
		for x := 0; x < 1000; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	outDir := filepath.Join(dir, "out")
	out, err := run(t, "optimize", "--format", "jpeg", "--quality", "80", "--out", outDir, src)
	require.NoError(t, err)
	assert.Contains(t, out, "540x1080")

	written := filepath.Join(outDir, "photo-web-optimized.jpg")
	f, err := os.Open(written)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 540, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)

	raw, err := os.ReadFile(written + ".meta.json")
	require.NoError(t, err)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "jpeg", meta["format"])
	assert.Equal(t, "png", meta["original_format"])
	assert.Equal(t, "1080", meta["height"])
}

func TestOptimizeCmd_SameStem(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var pngBuf, jpgBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))
	require.NoError(t, jpeg.Encode(&jpgBuf, img, nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), pngBuf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.jpg"), jpgBuf.Bytes(), 0o644))

	outDir := filepath.Join(dir, "out")
	_, err := run(t, "optimize", "--format", "png", "--out", outDir,
		filepath.Join(dir, "photo.png"), filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "photo-web-optimized.png"))
	assert.FileExists(t, filepath.Join(outDir, "photo-web-optimized-2.png"))
	assert.FileExists(t, filepath.Join(outDir, "photo-web-optimized-2.png.meta.json"))
}

func TestUniqueName(t *testing.T) {
	taken := map[string]int{}
	assert.Equal(t, "a.webp", uniqueName(taken, "a.webp"))
	assert.Equal(t, "a-2.webp", uniqueName(taken, "a.webp"))
	assert.Equal(t, "a-2-2.webp", uniqueName(taken, "a-2.webp"))
	assert.Equal(t, "a-3.webp", uniqueName(taken, "a.webp"))
	assert.Equal(t, "b.png", uniqueName(taken, "b.png"))
}

func TestOptimizeCmd_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	_, err := run(t, "optimize", "--format", "png", "--out", filepath.Join(dir, "out"), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")

	_, err = run(t, "optimize", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
