package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/history"
	"github.com/ladzaretti/bunker/util"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/spf13/cobra"
)

// --- exec ---

type execOptions struct {
	*DefaultBunkerOptions

	search  genericclioptions.SearchOptions
	envName string
	args    []string
}

var _ genericclioptions.CmdOptions = &execOptions{}

func (*execOptions) Complete() error { return nil }

func (o *execOptions) Validate() error {
	if len(o.args) == 0 {
		return fmt.Errorf("%w: a command to run is required", vaulterrors.ErrConfig)
	}

	return nil
}

// Run decrypts one entry's value into the environment variable named by
// --env and execs args[0] with it injected, forwarding the child's exit
// code -- bunker never prints the secret to the terminal along this path.
func (o *execOptions) Run(ctx context.Context, args ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	key, err := resolveKey(s, mk, &o.search, nil)
	if err != nil {
		return err
	}

	entry, err := s.LoadEntry(key, mk)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, o.args[0], o.args[1:]...)
	cmd.Env = append(os.Environ(), o.envName+"="+string(entry.PlaintextValue()))
	cmd.Stdin = o.In
	cmd.Stdout = o.Out
	cmd.Stderr = o.ErrOut

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}

		return fmt.Errorf("%w: %v", vaulterrors.ErrOther, err)
	}

	return nil
}

func NewCmdExec(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &execOptions{DefaultBunkerOptions: defaults, envName: "BUNKER_SECRET"}

	cmd := &cobra.Command{
		Use:   "exec [flags] -- <command> [args...]",
		Short: "Run a command with an entry's secret injected as an environment variable",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.args = args
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	addSearchFlags(cmd, &o.search)
	cmd.Flags().StringVar(&o.envName, "env", o.envName, "name of the environment variable to inject")

	return cmd
}

// --- backup / restore ---

type backupOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &backupOptions{}

func (*backupOptions) Complete() error { return nil }
func (*backupOptions) Validate() error { return nil }

// Run copies the active vault's entire directory tree into a timestamped
// subdirectory of the registry's backups/ directory. Session files are
// vault-scoped, not vault-internal, so they are never part of a backup.
func (o *backupOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	dest := filepath.Join(o.reg.BackupsDir(), fmt.Sprintf("%s-%s", cfg.Name, time.Now().UTC().Format("20060102T150405Z")))

	if err := copyTree(s.Path(), dest); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	o.Infof("backed up %q to %s\n", cfg.Name, dest)

	return nil
}

func NewCmdBackup(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &backupOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the active vault's directory tree into the backups/ directory",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

type restoreOptions struct {
	*DefaultBunkerOptions

	backupName string
	yes        bool
}

var _ genericclioptions.CmdOptions = &restoreOptions{}

func (*restoreOptions) Complete() error { return nil }

func (o *restoreOptions) Validate() error {
	if !o.yes {
		return fmt.Errorf("%w: restore overwrites the active vault; pass --yes to confirm", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *restoreOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	src := filepath.Join(o.reg.BackupsDir(), o.backupName)

	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: backup %q not found", vaulterrors.ErrIO, o.backupName)
	}

	if err := copyTree(src, s.Path()); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	o.Infof("restored %q from backup %s\n", cfg.Name, o.backupName)

	return nil
}

func NewCmdRestore(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &restoreOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "restore <backup-name>",
		Short: "Overwrite the active vault from a backup under backups/",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.backupName = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().BoolVar(&o.yes, "yes", false, "confirm the overwrite")

	return cmd
}

// copyTree recursively copies every regular file under src into dest,
// preserving relative paths and permissions.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o700)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return err
		}

		return util.AtomicWriteFile(target, data, info.Mode().Perm())
	})
}

// --- history ---

type historyOptions struct {
	*DefaultBunkerOptions

	file  string
	limit int
}

var _ genericclioptions.CmdOptions = &historyOptions{}

func (*historyOptions) Complete() error { return nil }
func (*historyOptions) Validate() error { return nil }

func (o *historyOptions) Run(context.Context, ...string) error {
	h, path, err := gitStoreFor(o.DefaultBunkerOptions)
	if err != nil {
		return err
	}

	if !h.IsRepo(path) {
		o.Infof("%s is not a git repository; run 'bunker git init' to start tracking history\n", path)
		return nil
	}

	var commits []history.CommitInfo

	if len(o.file) > 0 {
		s, _, openErr := o.openStore()
		if openErr != nil {
			return openErr
		}

		rel, _ := filepath.Rel(path, s.EntryPath(o.file))
		commits, err = h.LogFile(path, rel, o.limit)
	} else {
		commits, err = h.Log(path, o.limit)
	}

	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrHistoryStore, err)
	}

	for _, c := range commits {
		o.Printf("%s  %s  %s  %s\n", c.Hash[:min(8, len(c.Hash))], c.Time.Format("2006-01-02 15:04"), c.Author, c.Message)
	}

	return nil
}

func NewCmdHistory(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &historyOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the active vault's change history (whole vault, or one entry with --file)",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVar(&o.file, "file", "", "limit history to one entry key")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", 0, "limit the number of revisions shown (0: unlimited)")

	return cmd
}

// --- env ---

type envOptions struct {
	*DefaultBunkerOptions
}

var _ genericclioptions.CmdOptions = &envOptions{}

func (*envOptions) Complete() error { return nil }
func (*envOptions) Validate() error { return nil }

// Run prints `export KEY=VALUE` lines describing the resolved environment,
// meant to be sourced by a shell (`eval "$(bunker env)"`).
func (o *envOptions) Run(context.Context, ...string) error {
	name, err := o.requireVaultName()
	if err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "export BUNKER_BASE_DIR=%s\n", o.reg.Base())
	fmt.Fprintf(o.Out, "export BUNKER_VAULT=%s\n", name)

	return nil
}

func NewCmdEnv(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &envOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:   "env",
		Short: "Print shell export lines for the resolved bunker environment",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}
