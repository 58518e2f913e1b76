package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/input"
	"github.com/ladzaretti/bunker/registry"
	"github.com/ladzaretti/bunker/session"
	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/spf13/cobra"
)

const defaultClipboardTimeout = 20 * time.Second

// DefaultBunkerOptions holds the global flags and resolved state shared by
// every bunker subcommand: the registry root, the active vault name, and
// the IO streams every option struct embeds.
type DefaultBunkerOptions struct {
	*genericclioptions.StdioOptions

	baseDir   string
	vaultName string

	config *FileConfig
	reg    *registry.Registry
}

var _ genericclioptions.CmdOptions = &DefaultBunkerOptions{}

// NewDefaultBunkerOptions constructs the root options struct.
func NewDefaultBunkerOptions(stdio *genericclioptions.StdioOptions) *DefaultBunkerOptions {
	return &DefaultBunkerOptions{StdioOptions: stdio}
}

func (o *DefaultBunkerOptions) Complete() error {
	if err := o.StdioOptions.Complete(); err != nil {
		return err
	}

	c, err := LoadFileConfig("")
	if err != nil {
		return err
	}

	o.config = c

	base := o.baseDir
	if len(base) == 0 {
		base, err = registry.DefaultBase()
		if err != nil {
			return fmt.Errorf("%w: %v", vaulterrors.ErrConfig, err)
		}
	}

	o.reg = registry.New(base)
	if err := o.reg.EnsureLayout(); err != nil {
		return err
	}

	if len(o.vaultName) == 0 {
		o.vaultName = o.config.DefaultVault
	}

	return nil
}

func (*DefaultBunkerOptions) Validate() error { return nil }

func (*DefaultBunkerOptions) Run(context.Context, ...string) error { return nil }

// requireVaultName resolves the active vault name or fails with a clear
// message when none was given and no default_vault is configured.
func (o *DefaultBunkerOptions) requireVaultName() (string, error) {
	if len(o.vaultName) == 0 {
		return "", fmt.Errorf("%w: no vault specified; pass --vault or set default_vault in the config file", vaulterrors.ErrConfig)
	}

	return o.vaultName, nil
}

// openStore resolves the active vault's [vault.Store] and its VaultConfig.
func (o *DefaultBunkerOptions) openStore() (*vault.Store, vault.VaultConfig, error) {
	name, err := o.requireVaultName()
	if err != nil {
		return nil, vault.VaultConfig{}, err
	}

	s, err := o.reg.Open(name)
	if err != nil {
		return nil, vault.VaultConfig{}, err
	}

	cfg, err := s.Config()
	if err != nil {
		return nil, vault.VaultConfig{}, err
	}

	return s, cfg, nil
}

// keeper returns the session keeper for the active vault.
func (o *DefaultBunkerOptions) keeper(cfg vault.VaultConfig) *session.Keeper {
	return session.NewKeeper(o.reg.SessionsDir(), cfg.Name, cfg.ID)
}

// unlock resolves the master key for the active vault: first via a live
// session, falling back to an interactive password prompt that also
// verifies the password by attempting the derivation-and-decrypt path.
// Non-interactive callers that hit the fallback get
// [vaulterrors.ErrNonInteractiveUnsupported] instead of a prompt.
func (o *DefaultBunkerOptions) unlock(s *vault.Store, cfg vault.VaultConfig) (vaultcrypto.MasterKey, error) {
	k := o.keeper(cfg)

	mk, err := k.LoadPermanent()
	if err == nil {
		return mk, nil
	}

	if o.NonInteractive {
		return vaultcrypto.MasterKey{}, vaulterrors.ErrNonInteractiveUnsupported
	}

	password, err := input.PromptPassword(o.Out, int(o.In.Fd()))
	if err != nil {
		return vaultcrypto.MasterKey{}, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}
	defer vaultcrypto.SecureClear(password)

	mk, err = vaultcrypto.DeriveKey(password, cfg.ID[:], cfg.Encryption.Params)
	if err != nil {
		return vaultcrypto.MasterKey{}, err
	}

	if keys, lerr := s.List(); lerr == nil && len(keys) > 0 {
		if _, lerr := s.LoadEntry(keys[0], mk); lerr != nil {
			mk.Clear()
			return vaultcrypto.MasterKey{}, vaulterrors.ErrInvalidPassword
		}
	}

	if err := k.CreatePermanent(mk); err != nil {
		o.Debugf("failed to persist session: %v\n", err)
	}

	return mk, nil
}

// NewDefaultBunkerCommand assembles the full `bunker` command tree.
func NewDefaultBunkerCommand() *cobra.Command {
	streams := genericclioptions.NewDefaultIOStreams()
	stdio := &genericclioptions.StdioOptions{IOStreams: streams}
	o := NewDefaultBunkerOptions(stdio)

	cmd := &cobra.Command{
		Use:           "bunker",
		Short:         "A local, file-backed password manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return genericclioptions.ExecuteCommand(cmd.Context(), o)
		},
	}

	cmd.PersistentFlags().StringVar(&o.baseDir, "base-dir", "", "override the bunker base directory (default: ~/.bunker)")
	cmd.PersistentFlags().StringVar(&o.vaultName, "vault", "", "name of the vault to operate on (default: config default_vault)")
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "enable verbose debug output")
	cmd.PersistentFlags().BoolVar(&o.NonInteractive, "non-interactive", false, "disable interactive prompts; fail instead")

	cmd.AddCommand(
		NewCmdInit(o),
		NewCmdVault(o),
		NewCmdEntry(o),
		NewCmdGenerate(o),
		NewCmdUnlock(o),
		NewCmdLock(o),
		NewCmdStatus(o),
		NewCmdGit(o),
		NewCmdExport(o),
		NewCmdImport(o),
		NewCmdConfig(o),
		NewCmdExec(o),
		NewCmdBackup(o),
		NewCmdRestore(o),
		NewCmdHistory(o),
		NewCmdEnv(o),
		newVersionCommand(o),
	)

	RegisterEntryAliases(cmd, o)

	return cmd
}

// Execute runs the bunker root command, handling errors via [clierror.Check].
func Execute(ctx context.Context) {
	cmd := NewDefaultBunkerCommand()

	if err := cmd.ExecuteContext(ctx); err != nil {
		clierror.Check(err)
	}
}
