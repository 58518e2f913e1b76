package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/history"
	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/spf13/cobra"
)

// NewCmdGit creates the `git` command group, a thin front end over the
// history.Store adaptor for the active vault's directory.
func NewCmdGit(defaults *DefaultBunkerOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git",
		Short: "Track vault changes in a git history store",
	}

	cmd.AddCommand(
		newGitInitCmd(defaults),
		newGitSyncCmd(defaults),
		newGitPullCmd(defaults),
		newGitStatusCmd(defaults),
		newGitLogCmd(defaults),
		newGitRestoreCmd(defaults),
	)

	return cmd
}

func gitStoreFor(o *DefaultBunkerOptions) (history.Store, string, error) {
	s, _, err := o.openStore()
	if err != nil {
		return nil, "", err
	}

	h, err := history.NewGitStore()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	return h, s.Path(), nil
}

// autoCommit implements the history.Store contract's "CommitAll after every
// entry mutation when IsRepo is true, Push additionally when auto-sync is
// configured" rule. It is called from every mutating entry command; a vault
// with no git history (the common case, since history tracking is opt-in
// via `bunker git init`) is a silent no-op, and a push failure degrades to a
// warning rather than failing the mutation that already succeeded.
func autoCommit(o *DefaultBunkerOptions, s *vault.Store, cfg vault.VaultConfig, message string) {
	h, err := history.NewGitStore()
	if err != nil {
		return
	}

	path := s.Path()

	if !h.IsRepo(path) {
		return
	}

	if err := h.CommitAll(path, message); err != nil {
		o.Debugf("auto-commit failed: %v\n", err)
		return
	}

	if cfg.AutoSync || (o.config != nil && o.config.AutoSync) {
		if err := h.Push(path); err != nil {
			o.Errorf("push failed: %v\n", err)
		}
	}
}

type gitInitOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &gitInitOptions{}

func (*gitInitOptions) Complete() error { return nil }
func (*gitInitOptions) Validate() error { return nil }

func (o *gitInitOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	if h.IsRepo(path) {
		o.Infof("%s is already a git repository\n", path)
		return nil
	}

	if err := h.Init(path); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	o.Infof("initialized git history for %s\n", path)

	return nil
}

func newGitInitCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &gitInitOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "init",
		Short: "Start tracking the active vault's directory with git",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

type gitSyncOptions struct {
	*DefaultBunkerOptions

	message string
}

var _ genericclioptions.CmdOptions = &gitSyncOptions{}

func (*gitSyncOptions) Complete() error { return nil }
func (*gitSyncOptions) Validate() error { return nil }

func (o *gitSyncOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	if !h.IsRepo(path) {
		return fmt.Errorf("%w: %s is not a git repository; run 'bunker git init' first", vaulterrors.ErrHistoryStore, path)
	}

	if err := h.CommitAll(path, o.message); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	_, cfg, err := o.openStore()
	if err == nil && (cfg.AutoSync || (o.config != nil && o.config.AutoSync)) {
		if err := h.Push(path); err != nil {
			o.Errorf("push failed: %v\n", err)
		}
	}

	o.Infof("committed vault changes\n")

	return nil
}

func newGitSyncCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &gitSyncOptions{DefaultBunkerOptions: defaults, message: "bunker sync"}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Commit (and, if auto_sync is set, push) the active vault's changes",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVarP(&o.message, "message", "m", o.message, "commit message")

	return cmd
}

type gitPullOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &gitPullOptions{}

func (*gitPullOptions) Complete() error { return nil }
func (*gitPullOptions) Validate() error { return nil }

func (o *gitPullOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	added, err := h.Pull(path)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	if len(added) == 0 {
		o.Infof("already up to date\n")
		return nil
	}

	for _, c := range added {
		o.Printf("%s  %s\n", c.Hash[:min(8, len(c.Hash))], c.Message)
	}

	return nil
}

func newGitPullCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &gitPullOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "pull",
		Short: "Fast-forward pull the active vault's history from its remote",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

type gitStatusOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &gitStatusOptions{}

func (*gitStatusOptions) Complete() error { return nil }
func (*gitStatusOptions) Validate() error { return nil }

func (o *gitStatusOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	changes, err := h.Status(path)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	if len(changes) == 0 {
		o.Infof("clean\n")
		return nil
	}

	for _, c := range changes {
		o.Printf("%c  %s\n", c.Kind, c.Path)
	}

	return nil
}

func newGitStatusCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &gitStatusOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "status",
		Short: "Show uncommitted changes in the active vault's directory",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

type gitLogOptions struct {
	*DefaultBunkerOptions

	limit int
}

var _ genericclioptions.CmdOptions = &gitLogOptions{}

func (*gitLogOptions) Complete() error { return nil }
func (*gitLogOptions) Validate() error { return nil }

func (o *gitLogOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	commits, err := h.Log(path, o.limit)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	for _, c := range commits {
		o.Printf("%s  %s  %s\n", c.Hash[:min(8, len(c.Hash))], c.Time.Format("2006-01-02 15:04"), c.Message)
	}

	return nil
}

func newGitLogCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &gitLogOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the active vault's commit history",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "limit the number of commits shown (0: unlimited)")

	return cmd
}

type gitRestoreOptions struct {
	*DefaultBunkerOptions

	commit string
	file   string
}

var _ genericclioptions.CmdOptions = &gitRestoreOptions{}

func (*gitRestoreOptions) Complete() error { return nil }

func (o *gitRestoreOptions) Validate() error {
	if len(o.commit) == 0 {
		return fmt.Errorf("%w: a commit hash is required", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *gitRestoreOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	if len(o.file) > 0 {
		s, _, err := o.openStore()
		if err != nil {
			return err
		}

		rel, _ := filepath.Rel(path, s.EntryPath(o.file))
		if err := h.RestoreFile(path, o.commit, rel); err != nil {
			return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
		}

		o.Infof("restored %s from %s\n", o.file, o.commit)

		return nil
	}

	if err := h.RestoreAll(path, o.commit); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	o.Infof("restored vault to %s\n", o.commit)

	return nil
}

func newGitRestoreCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &gitRestoreOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "restore <commit>",
		Short: "Restore the active vault (or one file) to a prior commit",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.commit = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVar(&o.file, "file", "", "restore only this entry key's file")

	return cmd
}
