package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skryldev/webtools/digest"
	"github.com/Skryldev/webtools/ids"
	"github.com/Skryldev/webtools/password"
	"github.com/Skryldev/webtools/utils"
)

func newHashCmd(a *app) *cobra.Command {
	var (
		text      string
		algorithm string
		expected  string
	)

	cmd := &cobra.Command{
		Use:   "hash [FILE]",
		Short: "Compute or verify a SHA checksum",
		Long: `Hash FILE, or the --text value when no file is given, with SHA-1,
SHA-256 (default), SHA-384 or SHA-512. With --expected the command fails
when the digest does not match.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algo, err := digest.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}

			var sum, name string
			switch {
			case len(args) == 1:
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				limited := &utils.LimitedReader{R: f, Max: a.cfg.Limits.MaxUploadBytes}
				if sum, _, err = digest.Sum(cmd.Context(), limited, algo); err != nil {
					return fmt.Errorf("hash %s: %w", args[0], err)
				}
				name = args[0]
			case text != "":
				if sum, err = digest.SumBytes([]byte(text), algo); err != nil {
					return err
				}
				name = "input field"
			default:
				return fmt.Errorf("provide a FILE or --text")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", algo, sum, name)
			if expected == "" {
				return nil
			}
			if !digest.Match(sum, expected) {
				return fmt.Errorf("checksum mismatch: expected %s", strings.ToLower(expected))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Hash this text instead of a file")
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(digest.Default), "SHA-1, SHA-256, SHA-384 or SHA-512")
	cmd.Flags().StringVarP(&expected, "expected", "e", "", "Expected digest to compare against")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	var (
		opts  password.Options
		count int
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Generate random passwords",
		Long: `Generate passwords from crypto/rand. Every selected character set is
represented at least once. With no set flags all four sets are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.Uppercase && !opts.Lowercase && !opts.Numbers && !opts.Symbols {
				opts.Uppercase, opts.Lowercase, opts.Numbers, opts.Symbols = true, true, true, true
			}
			gen := password.Generator{MaxLength: a.cfg.Limits.MaxPasswordLength}
			for i := 0; i < count; i++ {
				pw, err := gen.Generate(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pw)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.Length, "length", "l", password.DefaultLength, "Password length")
	f.BoolVarP(&opts.Uppercase, "upper", "u", false, "Include uppercase letters")
	f.BoolVarP(&opts.Lowercase, "lower", "w", false, "Include lowercase letters")
	f.BoolVarP(&opts.Numbers, "numbers", "n", false, "Include digits")
	f.BoolVarP(&opts.Symbols, "symbols", "s", false, "Include symbols")
	f.BoolVarP(&opts.ExcludeSimilarCharacters, "exclude-similar", "x", false, "Leave out I, O, l, 0 and 1")
	f.IntVar(&count, "count", 1, "Number of passwords")
	return cmd
}

func newIDsCmd(a *app) *cobra.Command {
	var (
		kind  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Generate UUIDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := ids.ParseKind(kind)
			if err != nil {
				return err
			}
			out, err := ids.Generate(k, count, a.cfg.Limits.MaxIDs)
			if err != nil {
				return err
			}
			for _, id := range out {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(ids.DefaultKind), "uuid-v4 or uuid-v7")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of ids (1-100)")
	return cmd
}
