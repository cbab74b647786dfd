// ABOUTME: Root command and global flags for the ragdoc CLI
// ABOUTME: Wires every subcommand and validates verbosity and output format
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
 ┏━┓┏━┓┏━╸╺┳┓┏━┓┏━╸
 ┣┳┛┣━┫┃╺┓ ┃┃┃ ┃┃
 ╹┗╸╹ ╹┗━┛╺┻┛┗━┛┗━╸`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragdoc",
		Short: "Ask questions about a document",
		Long: banner + `

Ask questions about one document at a time. ragdoc splits the document
into overlapping chunks, embeds them, retrieves the passages closest to
your question, and has a language model answer from those passages only.

Without OPENAI_API_KEY, use RAG_EMBEDDER=hash for offline retrieval;
answers then list the retrieved passages instead of generated text.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "text", "json":
				return nil
			default:
				return fmt.Errorf("--format must be auto, text, or json, got %q", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors and print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, or json")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $RAG_CONFIG)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewServeCmd(),
		NewMCPCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
