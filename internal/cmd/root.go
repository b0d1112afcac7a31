// Package cmd implements the webtools command line.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	webtools "github.com/Skryldev/webtools"
	"github.com/Skryldev/webtools/adapters/vips"
	"github.com/Skryldev/webtools/config"
	"github.com/Skryldev/webtools/hooks"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	cfg        config.Config
	log        *slog.Logger
}

// NewRootCmd builds the root command and all subcommands.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "webtools",
		Short: "webtools - image optimizer, hash checker and generators",
		Long: `webtools serves and runs a small set of web utilities:

  - serve:    run the HTTP API
  - optimize: resize and re-encode images for the web
  - hash:     compute or verify SHA checksums
  - password: generate random passwords
  - ids:      generate UUIDs`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = hooks.NewSlog(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Config file (yaml, toml or json); WEBTOOLS_* env vars override it")

	groupImages := "images"
	groupUtilities := "utilities"
	rootCmd.AddGroup(&cobra.Group{ID: groupImages, Title: "Image Commands"})
	rootCmd.AddGroup(&cobra.Group{ID: groupUtilities, Title: "Utility Commands"})

	serveCmd := newServeCmd(a)
	optimizeCmd := newOptimizeCmd(a)
	hashCmd := newHashCmd(a)
	passwordCmd := newPasswordCmd(a)
	idsCmd := newIDsCmd(a)

	serveCmd.GroupID = groupImages
	optimizeCmd.GroupID = groupImages
	hashCmd.GroupID = groupUtilities
	passwordCmd.GroupID = groupUtilities
	idsCmd.GroupID = groupUtilities

	rootCmd.AddCommand(serveCmd, optimizeCmd, hashCmd, passwordCmd, idsCmd)
	return rootCmd
}

// newOptimizer builds an Optimizer for the configured codec backend. The
// returned func releases backend resources.
func (a *app) newOptimizer() (*webtools.Optimizer, func()) {
	opt := webtools.New(a.cfg)
	opt.SetLogger(hooks.NewSlogLogger(a.log))

	if a.cfg.Codec.Backend != config.BackendVips {
		a.log.Info("codec.backend", "backend", a.cfg.Codec.Backend, "formats", opt.Formats())
		return opt, func() {}
	}

	backend := vips.NewBackend(vips.BackendConfig{
		DefaultQuality: a.cfg.Optimize.DefaultQuality,
		MaxCacheSize:   a.cfg.Codec.VipsMaxCacheSize,
		MaxWorkers:     a.cfg.Codec.VipsConcurrency,
		ReportLeaks:    a.cfg.Codec.VipsReportLeaks,
		Logger:         hooks.NewSlogLogger(a.log),
	})
	vips.Register(opt.Registry(), backend)
	a.log.Info("codec.backend", "backend", a.cfg.Codec.Backend, "formats", opt.Formats())
	return opt, backend.Shutdown
}
