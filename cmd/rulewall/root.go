package main

import (
	"github.com/spf13/cobra"

	"github.com/triage-ai/rulewall/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "rulewall",
		Short: "Policy-governed content firewall for LLM assistants",
		Long: `rulewall screens user requests before they reach an assistant and audits
the assistant's answers before they reach the user. Decisions are taken by a
classifier grounded in rule fragments retrieved from an indexed policy corpus.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML); RULEWALL_* env vars override it")

	load := func() (*config.Config, error) { return config.Load(cfgFile) }
	root.AddCommand(newServeCmd(load), newIngestCmd(load))
	return root
}
