package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/input"
	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewCmdVault creates the `vault` command group: create, list, delete, use,
// export, import.
func NewCmdVault(defaults *DefaultBunkerOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Create, list, switch, and remove vaults",
	}

	cmd.AddCommand(
		newVaultCreateCmd(defaults),
		newVaultListCmd(defaults),
		newVaultDeleteCmd(defaults),
		newVaultUseCmd(defaults),
		NewCmdExport(defaults),
		NewCmdImport(defaults),
	)

	return cmd
}

type vaultCreateOptions struct {
	*DefaultBunkerOptions

	name string
}

var _ genericclioptions.CmdOptions = &vaultCreateOptions{}

func (o *vaultCreateOptions) Complete() error { return nil }

func (o *vaultCreateOptions) Validate() error {
	if len(o.name) == 0 {
		return fmt.Errorf("%w: vault name is required", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *vaultCreateOptions) Run(context.Context, ...string) error {
	if o.NonInteractive {
		return vaulterrors.ErrNonInteractiveUnsupported
	}

	password, err := input.PromptNewPassword(o.Out, int(o.In.Fd()), 8)
	if err != nil {
		return err
	}
	defer vaultcrypto.SecureClear(password)

	id := uuid.New()
	now := time.Now()

	cfg := vault.VaultConfig{
		ID:         id,
		Name:       o.name,
		CreatedAt:  now,
		UpdatedAt:  now,
		Encryption: vault.DefaultEncryptionConfig,
	}

	if _, err := vault.Init(o.reg.VaultPath(o.name), cfg); err != nil {
		return err
	}

	mk, err := vaultcrypto.DeriveKey(password, id[:], cfg.Encryption.Params)
	if err != nil {
		return err
	}
	defer mk.Clear()

	if err := o.keeper(cfg).CreatePermanent(mk); err != nil {
		o.Debugf("failed to persist session: %v\n", err)
	}

	o.Infof("created vault %q\n", o.name)

	return nil
}

func newVaultCreateCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &vaultCreateOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new vault",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.name = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	return cmd
}

// NewCmdInit is `vault create` plus `vault use`: the top-level entry point
// for starting out with bunker, creating the first (or another) vault and
// making it the default in one step.
func NewCmdInit(defaults *DefaultBunkerOptions) *cobra.Command {
	create := &vaultCreateOptions{DefaultBunkerOptions: defaults}
	use := &vaultUseOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a new vault and set it as the default",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			create.name, use.name = args[0], args[0]

			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), create))
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), use))
		},
	}

	return cmd
}

type vaultListOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &vaultListOptions{}

func (*vaultListOptions) Complete() error { return nil }

func (*vaultListOptions) Validate() error { return nil }

func (o *vaultListOptions) Run(context.Context, ...string) error {
	names, err := o.reg.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		o.Infof("no vaults found\n")
		return nil
	}

	for _, name := range names {
		marker := "  "
		if name == o.vaultName {
			marker = "* "
		}

		o.Printf("%s%s\n", marker, name)
	}

	return nil
}

func newVaultListCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &vaultListOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every vault",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

type vaultDeleteOptions struct {
	*DefaultBunkerOptions

	name    string
	confirm bool
}

var _ genericclioptions.CmdOptions = &vaultDeleteOptions{}

func (*vaultDeleteOptions) Complete() error { return nil }

func (o *vaultDeleteOptions) Validate() error {
	if len(o.name) == 0 {
		return fmt.Errorf("%w: vault name is required", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *vaultDeleteOptions) Run(context.Context, ...string) error {
	if !o.confirm {
		return fmt.Errorf("%w: pass --yes to confirm permanent deletion of vault %q", vaulterrors.ErrConfig, o.name)
	}

	s, err := o.reg.Open(o.name)
	if err != nil {
		return err
	}

	cfg, err := s.Config()
	if err == nil {
		_ = o.keeper(cfg).Lock()
	}

	if err := o.reg.Delete(o.name); err != nil {
		return err
	}

	o.Infof("deleted vault %q\n", o.name)

	return nil
}

func newVaultDeleteCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &vaultDeleteOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Permanently delete a vault",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.name = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().BoolVar(&o.confirm, "yes", false, "confirm deletion")

	return cmd
}

type vaultUseOptions struct {
	*DefaultBunkerOptions

	name string
}

var _ genericclioptions.CmdOptions = &vaultUseOptions{}

func (*vaultUseOptions) Complete() error { return nil }

func (o *vaultUseOptions) Validate() error {
	if !o.reg.Exists(o.name) {
		return vaulterrors.ErrVaultNotFound
	}

	return nil
}

func (o *vaultUseOptions) Run(context.Context, ...string) error {
	o.config.DefaultVault = o.name

	if err := writeFileConfig(o.config); err != nil {
		return err
	}

	o.Infof("default vault set to %q\n", o.name)

	return nil
}

func newVaultUseCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &vaultUseOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Set the default vault",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.name = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	return cmd
}
