package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var initOut string

// starterConfig is what `paperscope init` writes. Keys left empty fall
// back to PAPERSCOPE_* environment variables.
const starterConfig = `# paperscope configuration. Every key can also be set through the
# environment, e.g. openai.key as PAPERSCOPE_OPENAI_KEY.

generation:
  provider: openai        # openai or anthropic
  max_tokens: 4096
  temperature: 0.3

openai:
  key: ""
  base_url: https://api.openai.com/v1
  # Any OpenAI-compatible server works, no key needed:
  # base_url: http://localhost:11434/v1
  model: gpt-4o-mini

anthropic:
  key: ""
  model: claude-sonnet-4-5-20250929

analysis:
  language: en            # language of the generated analysis: en or zh

report:
  format: markdown        # markdown, json or html
  language: en

pipeline:
  max_workers: 4
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initOut); err == nil {
			return eris.Errorf("%s already exists, refusing to overwrite", initOut)
		}
		if err := os.WriteFile(initOut, []byte(starterConfig), 0o644); err != nil {
			return eris.Wrap(err, "write config")
		}
		zap.L().Info("starter config written", zap.String("path", initOut))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOut, "output", "o", "config.yaml", "where to write the config")
	rootCmd.AddCommand(initCmd)
}
