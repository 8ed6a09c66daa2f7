package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/structur-io/structur/internal/adapter"
	"github.com/structur-io/structur/internal/config"
	"github.com/structur-io/structur/internal/controller"
	"github.com/structur-io/structur/internal/domain"
	m "github.com/structur-io/structur/internal/model"
)

var processNoTTYFlag bool

// processCmd represents the process command.
var processCmd = newProcessCmd()

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process INPUT OUTPUT",
		Short: "Process a folder of coded documents",
		Long: `Process reads every .md and .txt document under INPUT, extracts coded
passages and writes them under OUTPUT, one file per code plus the uncoded,
duplicates, malformed and already_coded buckets.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadRunSettings(cmd.Flags(), args[0], args[1])
			if err != nil {
				return err
			}

			wf, ui, err := buildWorkflow(cmd, settings)
			if err != nil {
				return err
			}
			defer ui.Close()

			_, err = wf.Run(m.Path(settings.InputFolder))

			return err
		},
	}

	registerProcessFlags(cmd)

	return cmd
}

// registerProcessFlags declares the flags LoadSettingsWithFlags binds to.
func registerProcessFlags(cmd *cobra.Command) {
	cmd.Flags().String("coded-folder", "coded", "folder name for per-code output")
	cmd.Flags().String("uncoded-folder", "uncoded", "folder name for uncoded residual")
	cmd.Flags().String("duplicates-folder", "duplicates", "folder name for repeated content")
	cmd.Flags().String("malformed-folder", "malformed", "folder name for broken markup")
	cmd.Flags().String("already-coded-folder", "already_coded", "folder name for content seen in previous runs")
	cmd.Flags().String("originals-folder", "originals", "folder name for unmodified input copies")

	cmd.Flags().Bool("preserve-codes", false, "keep the delimiter markup around extracted passages")
	cmd.Flags().Bool("overwrite", false, "reset output files instead of appending")
	cmd.Flags().Bool("link-source", false, "append a source document reference to each passage")
	cmd.Flags().StringSlice("filter-codes", nil, "process only the named codes")
	cmd.Flags().StringSlice("styles", []string{string(m.StyleBrace), string(m.StyleBracket)}, "bracket styles to scan (brace, bracket)")

	cmd.Flags().String("codes-file", "", "path to the master code list")
	cmd.Flags().Bool("auto-codes-file", false, "append newly discovered codes to the master list")
	cmd.Flags().Bool("regenerate-codes", false, "create an empty output file for every known code")

	cmd.Flags().Bool("no-uncoded", false, "skip the uncoded output")
	cmd.Flags().Bool("no-duplicates", false, "skip the duplicates output")
	cmd.Flags().Bool("no-originals", false, "skip copying originals")
	cmd.Flags().BoolVar(&processNoTTYFlag, "no-tty", false, "force plain text output")
}

// loadRunSettings resolves the configuration for one run.
func loadRunSettings(flags *pflag.FlagSet, input, output string) (*config.Settings, error) {
	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		return nil, err
	}

	settings.InputFolder = input
	settings.OutputBase = output
	settings.Verbose = verboseFlag

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// buildWorkflow wires the adapters, UI and logger for a run.
func buildWorkflow(cmd *cobra.Command, settings *config.Settings) (domain.Workflow, controller.UI, error) {
	runLogger, err := config.NewRunLogger(settings.Verbose, settings.OutputBase)
	if err != nil {
		return nil, nil, err
	}

	logger = runLogger

	useTTY := !processNoTTYFlag && controller.IsTTY(os.Stdout)
	ui := controller.NewUI(cmd, useTTY)

	wf, err := domain.NewWorkflow(
		settings,
		adapter.NewLocalDocumentSource(),
		adapter.NewLocalOutputStore(settings),
		adapter.NewLocalCodesStore(),
		ui,
		runLogger,
	)
	if err != nil {
		return nil, nil, err
	}

	return wf, ui, nil
}

func init() {
	rootCmd.AddCommand(processCmd)
}
