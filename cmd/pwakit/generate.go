package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/provide-io/pwakit/internal/settings"
	"github.com/provide-io/pwakit/pkg"
	"github.com/provide-io/pwakit/pkg/pwa/archive"
	"github.com/provide-io/pwakit/pkg/pwa/bundle"
)

const deployHint = "Extract the zip files to a web site that has https. " +
	"The files must be inside the defined folder and not on the website root."

// stdoutOutput selects writing the archive to standard output.
const stdoutOutput = "-"

type generateFlags struct {
	shortName   string
	name        string
	description string
	folder      string
	output      string
	capacity    int
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.shortName, "short-name", "", "App short name (defaults to the stored value)")
	cmd.Flags().StringVar(&f.name, "name", "", "App name (defaults to the stored value)")
	cmd.Flags().StringVar(&f.description, "description", "", "App description (defaults to the stored value)")
	cmd.Flags().StringVar(&f.folder, "folder", "", "Folder the app is served from (defaults to the stored value)")
	cmd.Flags().StringVarP(&f.output, "output", "o", bundle.DownloadName, `Output archive path, "-" for stdout`)
	cmd.Flags().IntVar(&f.capacity, "capacity", archive.DefaultCapacity, "Archive capacity in bytes")
}

// request merges the stored metadata with the flags the user set.
func (f *generateFlags) request(cmd *cobra.Command, source string, store *settings.Store) (settings.Request, error) {
	meta := store.Load()
	if cmd.Flags().Changed("short-name") {
		meta.ShortName = f.shortName
	}
	if cmd.Flags().Changed("name") {
		meta.Name = f.name
	}
	if cmd.Flags().Changed("description") {
		meta.Description = f.description
	}
	if cmd.Flags().Changed("folder") {
		meta.Folder = f.folder
	}

	req := settings.Request{
		SourcePath: source,
		OutputPath: f.output,
		Capacity:   f.capacity,
		Metadata:   meta,
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return req, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		return nil
	}
}

func newGenerateCmd() *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate IMAGE",
		Short: "Generate the bundle archive from a source image",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			store, err := settings.Open(settingsPath)
			if err != nil {
				return fmt.Errorf("%w: %v", errInvalidArgs, err)
			}
			req, err := flags.request(cmd, args[0], store)
			if err != nil {
				return err
			}
			return generate(cmd.Context(), req, store, logger)
		},
	}
	flags.register(cmd)
	return cmd
}

// generate runs one generation and saves the metadata that produced it.
func generate(_ context.Context, req settings.Request, store *settings.Store, logger hclog.Logger) error {
	bundleReq := pkg.BundleRequest{
		SourcePath: req.SourcePath,
		OutputPath: req.OutputPath,
		Metadata:   req.Metadata,
		Capacity:   req.Capacity,
	}

	if req.OutputPath == stdoutOutput {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("%w: refusing to write a zip archive to a terminal", errInvalidArgs)
		}
		data, err := pkg.BuildBundle(bundleReq, logger)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %v", pkg.ErrOutputUnwritable, err)
		}
	} else {
		out, err := pkg.GenerateBundle(bundleReq, logger)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(os.Stderr, "✅ Bundle written to %s\n", out)
	}

	if err := store.Save(req.Metadata); err != nil {
		logger.Warn("settings not saved", "path", store.Path(), "error", err)
	}
	color.New(color.FgYellow).Fprintln(os.Stderr, deployHint)
	return nil
}
