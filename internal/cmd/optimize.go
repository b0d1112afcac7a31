package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skryldev/webtools/adapters/storage"
	"github.com/Skryldev/webtools/core"
)

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		format  string
		quality string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "optimize FILE...",
		Short: "Resize and re-encode images for the web",
		Long: `Optimize one or more images the same way the HTTP API does.

Each input is fitted inside 1920x1080 (images up to 800px on both sides
are left alone) and re-encoded to the chosen format. Results are written
to the output directory as <name>-web-optimized.<ext> together with a
.meta.json side-car holding the size report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs := make([]core.OptimizationRequest, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				reqs = append(reqs, core.OptimizationRequest{
					Data:         data,
					ContentType:  contentTypeOf(path, data),
					Filename:     filepath.Base(path),
					TargetFormat: core.ResolveFormat(format),
					Quality:      core.ParseQuality(quality),
				})
			}

			if outDir == "" {
				outDir = a.cfg.Output.Dir
			}
			store, err := storage.NewLocal(outDir, os.FileMode(a.cfg.Output.Permissions))
			if err != nil {
				return err
			}

			opt, release := a.newOptimizer()
			defer release()

			ctx := cmd.Context()
			results, errs := opt.Batch(ctx, reqs)

			out := cmd.OutOrStdout()
			taken := make(map[string]int, len(results))
			var failed []error
			for i, res := range results {
				if errs[i] != nil {
					failed = append(failed, fmt.Errorf("%s: %w", args[i], errs[i]))
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", args[i], errs[i])
					continue
				}
				res.Filename = uniqueName(taken, res.Filename)
				key := core.StorageKey{Path: res.Filename}
				if err := store.Put(ctx, key, bytes.NewReader(res.Data), storage.ResultMeta(res)); err != nil {
					failed = append(failed, fmt.Errorf("%s: %w", args[i], err))
					continue
				}
				fmt.Fprintf(out, "%s -> %s  %dx%d  %d -> %d bytes  %d%%  %s\n",
					args[i], filepath.Join(store.Root(), res.Filename),
					res.Width, res.Height, res.OriginalSize, res.OptimizedSize,
					res.ReductionPercent, res.CompressionRatio)
			}
			return errors.Join(failed...)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "auto", "Output format: auto, webp, avif, jpeg or png")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Encoder quality 1-100 (default 85)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (overrides output.dir)")
	return cmd
}

// uniqueName returns name, or name with a -2, -3, ... suffix before the
// extension when an earlier input of the same run already produced it.
// photo.png and photo.jpg both optimize to photo-web-optimized.<ext>.
func uniqueName(taken map[string]int, name string) string {
	taken[name]++
	n := taken[name]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
	if _, clash := taken[candidate]; clash {
		return uniqueName(taken, name)
	}
	taken[candidate] = 1
	return candidate
}

// contentTypeOf guesses the declared type the browser would send: from the
// extension first, then from the content.
func contentTypeOf(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
