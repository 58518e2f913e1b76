package cli

import (
	"context"
	"fmt"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// NewCmdConfig creates the `config` command group: generate and validate.
func NewCmdConfig(defaults *DefaultBunkerOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the bunker configuration file (subcommands available)",
		Long: fmt.Sprintf(`Resolve and display the active bunker configuration.

If no config file is found, the default values are used. The config file
lives at ~/%s unless overridden by %s.`, defaultConfigName, envConfigPathKey),
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), defaults))

			if len(defaults.config.path) == 0 {
				defaults.Infof("no config file found; using default values.\n")
				return
			}

			defaults.Infof("%s\n", defaults.config.path)

			out, err := toml.Marshal(defaults.config)
			clierror.Check(err)

			defaults.Printf("%s", string(out))
		},
	}

	cmd.AddCommand(newGenerateConfigCmd(defaults), newValidateConfigCmd(defaults))

	return cmd
}

type generateConfigOptions struct {
	*genericclioptions.StdioOptions
}

var _ genericclioptions.CmdOptions = &generateConfigOptions{}

func (*generateConfigOptions) Complete() error { return nil }

func (*generateConfigOptions) Validate() error { return nil }

func (o *generateConfigOptions) Run(context.Context, ...string) error {
	out, err := toml.Marshal(newFileConfig())
	if err != nil {
		return err
	}

	o.Printf("%s", string(out))

	return nil
}

func newGenerateConfigCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &generateConfigOptions{StdioOptions: defaults.StdioOptions}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a default config file",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	genericclioptions.MarkFlagsHidden(cmd, "vault", "base-dir")

	return cmd
}

type validateConfigOptions struct {
	*genericclioptions.StdioOptions

	configPath string
}

var _ genericclioptions.CmdOptions = &validateConfigOptions{}

func (*validateConfigOptions) Complete() error { return nil }

func (*validateConfigOptions) Validate() error { return nil }

func (o *validateConfigOptions) Run(context.Context, ...string) error {
	c, err := LoadFileConfig(o.configPath)
	if err != nil {
		return err
	}

	if len(c.path) == 0 {
		o.Infof("no config file found; nothing to validate.\n")
		return nil
	}

	o.Infof("%s: OK\n", c.path)

	return nil
}

func newValidateConfigCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &validateConfigOptions{StdioOptions: defaults.StdioOptions}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file for common errors",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVarP(&o.configPath, "file", "f", "", fmt.Sprintf("path to the configuration file (default: ~/%s)", defaultConfigName))

	genericclioptions.MarkFlagsHidden(cmd, "vault", "base-dir")

	return cmd
}
