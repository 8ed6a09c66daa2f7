package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/structur-io/structur/internal/adapter"
	m "github.com/structur-io/structur/internal/model"
)

// codesCmd represents the codes command group.
var codesCmd = newCodesCmd()

func newCodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Inspect and maintain the master code list",
	}

	cmd.AddCommand(newCodesListCmd())
	cmd.AddCommand(newCodesRegenerateCmd())

	return cmd
}

func newCodesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list CODES_FILE",
		Short: "Print the known codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := adapter.NewLocalCodesStore()

			codes, err := store.Load(m.Path(args[0]))
			if err != nil {
				return err
			}

			for _, code := range codes {
				cmd.Println(code)
			}

			cmd.Printf("%d code(s)\n", len(codes))

			return nil
		},
	}
}

func newCodesRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate CODES_FILE CODED_FOLDER",
		Short: "Create an empty output file for every known code",
		Long: `Regenerate reads the master code list and creates a headed, empty file
under CODED_FOLDER for every code that has none yet. Existing files are
left untouched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := adapter.NewLocalCodesStore()

			codes, err := store.Load(m.Path(args[0]))
			if err != nil {
				return err
			}

			if len(codes) == 0 {
				return fmt.Errorf("no codes found in %s", args[0])
			}

			created, err := store.CreateEmptyCodeFiles(m.Path(args[1]), codes)
			if err != nil {
				return err
			}

			cmd.Printf("created %d file(s) for %d code(s)\n", created, len(codes))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(codesCmd)
}
