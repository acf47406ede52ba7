package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provide-io/pwakit/pkg"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "List and verify the entries of a bundle archive",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger().Named("verify")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", pkg.ErrSourceUnreadable, err)
			}

			report, verr := pkg.VerifyArchiveWithLogger(data, logger)
			if report != nil {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SIZE\tCRC32\tMODIFIED\tMETHOD\tPATH")
				for _, e := range report.Entries {
					method := "stored"
					if !e.Stored {
						method = "compressed"
					}
					fmt.Fprintf(tw, "%d\t%08x\t%s\t%s\t%s\n",
						e.Size, e.CRC32, e.Modified.Format("2006-01-02 15:04:05"), method, e.Name)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if verr != nil {
				return verr
			}

			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ %d entries verified\n", len(report.Entries))
			return nil
		},
	}
}
