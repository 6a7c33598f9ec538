// Command embedviz compares texts by their embeddings and plots them with t-SNE.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var osExit = os.Exit

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		osExit(1)
	}
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}
	root := &cobra.Command{
		Use:           "embedviz",
		Short:         "Compare texts by embedding similarity and plot them with t-SNE",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.config, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&a.flags.provider, "provider", "", "Embedding provider (Local, Mistral, OpenAI)")
	pf.StringVar(&a.flags.model, "model", "", "Embedding model")
	pf.StringVar(&a.flags.apiKey, "api-key", "", "Provider API key")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "Override the provider base URL")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newProjectCmd(a))
	root.AddCommand(newSimilarityCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newRunsCmd(a))
	root.AddCommand(newModelsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			v := version
			if v == "dev" {
				if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
					v = info.Main.Version
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "embedviz %s\n", v)
			if commit != "none" {
				fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			}
		},
	}
}
