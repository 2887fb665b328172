package cmd

import (
	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewCompletionCmd creates the completion command
func NewCompletionCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for debinstall.

To load completions:

Bash:
  $ source <(debinstall completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ debinstall completion bash > /etc/bash_completion.d/debinstall
  # macOS:
  $ debinstall completion bash > $(brew --prefix)/etc/bash_completion.d/debinstall

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ debinstall completion zsh > "${fpath[1]}/_debinstall"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ debinstall completion fish | source

  # To load completions for each session, execute once:
  $ debinstall completion fish > ~/.config/fish/completions/debinstall.fish

PowerShell:
  PS> debinstall completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> debinstall completion powershell > debinstall.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]

			switch shell {
			case "bash":
				if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
					ui.PrintError("Failed to generate bash completion: %v", err)
					return err
				}
			case "zsh":
				if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
					ui.PrintError("Failed to generate zsh completion: %v", err)
					return err
				}
			case "fish":
				if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
					ui.PrintError("Failed to generate fish completion: %v", err)
					return err
				}
			case "powershell":
				if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
					ui.PrintError("Failed to generate powershell completion: %v", err)
					return err
				}
			}

			log.Info().Str("shell", shell).Msg("generated shell completion")
			return nil
		},
	}

	return cmd
}

// completeDebFiles offers .deb files for the package argument
func completeDebFiles(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"deb"}, cobra.ShellCompDirectiveFilterFileExt
}
