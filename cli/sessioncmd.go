package cli

import (
	"context"
	"time"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/input"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/spf13/cobra"
)

type unlockOptions struct {
	*DefaultBunkerOptions

	duration time.Duration
}

var _ genericclioptions.CmdOptions = &unlockOptions{}

func (*unlockOptions) Complete() error { return nil }

func (*unlockOptions) Validate() error { return nil }

func (o *unlockOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	if o.NonInteractive {
		return vaulterrors.ErrNonInteractiveUnsupported
	}

	password, err := input.PromptPassword(o.Out, int(o.In.Fd()))
	if err != nil {
		return err
	}
	defer vaultcrypto.SecureClear(password)

	mk, err := vaultcrypto.DeriveKey(password, cfg.ID[:], cfg.Encryption.Params)
	if err != nil {
		return err
	}
	defer mk.Clear()

	if keys, lerr := s.List(); lerr == nil && len(keys) > 0 {
		if _, lerr := s.LoadEntry(keys[0], mk); lerr != nil {
			return vaulterrors.ErrInvalidPassword
		}
	}

	k := o.keeper(cfg)

	if o.duration > 0 {
		if err := k.CreatePasswordBound(password, mk, o.duration); err != nil {
			return err
		}

		o.Infof("unlocked %q for %s\n", cfg.Name, o.duration)

		return nil
	}

	if err := k.CreatePermanent(mk); err != nil {
		return err
	}

	o.Infof("unlocked %q\n", cfg.Name)

	return nil
}

// NewCmdUnlock creates the `unlock` command.
func NewCmdUnlock(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &unlockOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the active vault, caching its master key for subsequent commands",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().DurationVar(&o.duration, "duration", 0, "lock again after this long (default: permanent, 10 years)")

	return cmd
}

type lockOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &lockOptions{}

func (*lockOptions) Complete() error { return nil }

func (*lockOptions) Validate() error { return nil }

func (o *lockOptions) Run(context.Context, ...string) error {
	_, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	if err := o.keeper(cfg).Lock(); err != nil {
		return err
	}

	o.Infof("locked %q\n", cfg.Name)

	return nil
}

// NewCmdLock creates the `lock` command.
func NewCmdLock(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &lockOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "lock",
		Short: "Drop the cached master key for the active vault",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

type statusOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &statusOptions{}

func (*statusOptions) Complete() error { return nil }

func (*statusOptions) Validate() error { return nil }

func (o *statusOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	k := o.keeper(cfg)

	state := "locked"
	if k.Exists() {
		if _, err := k.LoadPermanent(); err == nil {
			state = "unlocked"
		} else if _, err := k.Load(nil); err == nil {
			state = "unlocked"
		} else {
			state = "expired"
		}
	}

	keys, err := s.List()
	if err != nil {
		return err
	}

	o.Printf("vault:   %s\n", cfg.Name)
	o.Printf("id:      %s\n", cfg.ID)
	o.Printf("session: %s\n", state)
	o.Printf("entries: %d\n", len(keys))

	return nil
}

// NewCmdStatus creates the `status` command.
func NewCmdStatus(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &statusOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "status",
		Short: "Show the active vault's session and entry counts",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}
