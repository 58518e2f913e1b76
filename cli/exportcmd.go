package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/input"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"
	"github.com/ladzaretti/bunker/vltexport"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	*DefaultBunkerOptions

	outPath string
}

var _ genericclioptions.CmdOptions = &exportOptions{}

func (*exportOptions) Complete() error { return nil }

func (o *exportOptions) Validate() error {
	if len(o.outPath) == 0 {
		return fmt.Errorf("%w: --out is required", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *exportOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	if o.NonInteractive {
		return vaulterrors.ErrNonInteractiveUnsupported
	}

	password, err := input.PromptNewPassword(o.Out, int(o.In.Fd()), 8)
	if err != nil {
		return err
	}
	defer vaultcrypto.SecureClear(password)

	// The envelope's own password wrapping always uses the package default
	// cost parameters, independent of the vault's internal encryption
	// config -- so import can decrypt without the envelope carrying params.
	env, err := vltexport.Export(s, password, vaultcrypto.DefaultArgon2Params)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	if err := os.WriteFile(o.outPath, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	o.Infof("exported %q to %s\n", cfg.Name, o.outPath)

	return nil
}

// NewCmdExport creates the `export` command.
func NewCmdExport(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &exportOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active vault to a password-encrypted envelope file",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVarP(&o.outPath, "out", "o", "", "output file path")

	return cmd
}

type importOptions struct {
	*DefaultBunkerOptions

	inPath string
	name   string
}

var _ genericclioptions.CmdOptions = &importOptions{}

func (*importOptions) Complete() error { return nil }

func (o *importOptions) Validate() error {
	if len(o.inPath) == 0 {
		return fmt.Errorf("%w: --in is required", vaulterrors.ErrConfig)
	}

	if len(o.name) == 0 {
		return fmt.Errorf("%w: --name is required", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *importOptions) Run(context.Context, ...string) error {
	if o.NonInteractive {
		return vaulterrors.ErrNonInteractiveUnsupported
	}

	data, err := os.ReadFile(o.inPath)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	var env vltexport.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	password, err := input.PromptPassword(o.Out, int(o.In.Fd()))
	if err != nil {
		return err
	}
	defer vaultcrypto.SecureClear(password)

	s, err := vltexport.Import(env, password, o.reg.VaultPath(o.name), o.name, vaultcrypto.DefaultArgon2Params)
	if err != nil {
		return err
	}

	cfg, err := s.Config()
	if err != nil {
		return err
	}

	o.Infof("imported vault %q (id %s)\n", cfg.Name, cfg.ID)

	return nil
}

// NewCmdImport creates the `import` command.
func NewCmdImport(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &importOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a vault from a password-encrypted envelope file",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVarP(&o.inPath, "in", "i", "", "input envelope file path")
	cmd.Flags().StringVar(&o.name, "name", "", "name for the imported vault")

	return cmd
}
