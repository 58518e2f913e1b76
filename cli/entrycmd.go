package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/input"
	"github.com/ladzaretti/bunker/util"
	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/spf13/cobra"
)

// NewCmdEntry creates the entry-management command group: add, get, edit,
// remove, list, search, grep, copy, peek, mv.
func NewCmdEntry(defaults *DefaultBunkerOptions) *cobra.Command {
	root := &cobra.Command{Use: "entry", Short: "Manage vault entries (also available as top-level aliases)"}

	add := newEntryAddCmd(defaults)
	get := newEntryGetCmd(defaults)
	edit := newEntryEditCmd(defaults)
	remove := newEntryRemoveCmd(defaults)
	list := newEntryListCmd(defaults)
	search := newEntrySearchCmd(defaults)
	grep := newEntryGrepCmd(defaults)
	copyCmd := newEntryCopyCmd(defaults)
	peek := newEntryPeekCmd(defaults)
	mv := newEntryMoveCmd(defaults)

	root.AddCommand(add, get, edit, remove, list, search, grep, copyCmd, peek, mv)

	return root
}

// RegisterEntryAliases adds the entry subcommands directly under the root
// command, so `bunker add`/`bunker get`/... work without the `entry` prefix.
func RegisterEntryAliases(root *cobra.Command, defaults *DefaultBunkerOptions) {
	root.AddCommand(
		newEntryAddCmd(defaults),
		newEntryGetCmd(defaults),
		newEntryEditCmd(defaults),
		newEntryRemoveCmd(defaults),
		newEntryListCmd(defaults),
		newEntrySearchCmd(defaults),
		newEntryGrepCmd(defaults),
		newEntryCopyCmd(defaults),
		newEntryPeekCmd(defaults),
		newEntryMoveCmd(defaults),
	)
}

// resolveKey finds the single entry key matching positional args or the
// search flags. args[0], if present, is taken as the key verbatim.
func resolveKey(s *vault.Store, mk vaultcrypto.MasterKey, so *genericclioptions.SearchOptions, args []string) (string, error) {
	if len(args) > 0 && len(args[0]) > 0 {
		return args[0], nil
	}

	keys, err := s.List()
	if err != nil {
		return "", err
	}

	var matches []string

	for _, key := range keys {
		if len(so.Name) > 0 && key != so.Name {
			continue
		}

		entry, err := s.LoadEntry(key, mk)
		if err != nil {
			return "", err
		}

		if !matchesSearch(entry, so) {
			continue
		}

		matches = append(matches, key)
	}

	switch len(matches) {
	case 0:
		return "", vaulterrors.ErrSearchNoMatch
	case 1:
		return matches[0], nil
	default:
		return "", vaulterrors.ErrAmbiguousMatch
	}
}

func matchesSearch(e vault.Entry, so *genericclioptions.SearchOptions) bool {
	if len(so.IDs) > 0 {
		id := e.ID.String()

		found := false

		for _, prefix := range so.IDs {
			if strings.HasPrefix(id, prefix) {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	if len(so.Labels) > 0 {
		found := false

		for _, label := range so.Labels {
			for _, tag := range e.Tags {
				if tag == label {
					found = true
					break
				}
			}
		}

		if !found {
			return false
		}
	}

	return true
}

func addSearchFlags(cmd *cobra.Command, so *genericclioptions.SearchOptions) {
	cmd.Flags().StringSliceVar(&so.IDs, "id", nil, so.Usage(genericclioptions.ID))
	cmd.Flags().StringVar(&so.Name, "name", "", so.Usage(genericclioptions.NAME))
	cmd.Flags().StringSliceVar(&so.Labels, "label", nil, so.Usage(genericclioptions.LABELS))
}

// --- add ---

type entryAddOptions struct {
	*DefaultBunkerOptions

	key      string
	kind     string
	username string
	notes    string
	url      string
	tags     []string
	fields   []string
}

var _ genericclioptions.CmdOptions = &entryAddOptions{}

func (*entryAddOptions) Complete() error { return nil }

func (o *entryAddOptions) Validate() error {
	if len(o.key) == 0 {
		return fmt.Errorf("%w: entry key is required", vaulterrors.ErrConfig)
	}

	return nil
}

func (o *entryAddOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	var value []byte

	if o.NonInteractive {
		v, err := readAllTrim(o.In)
		if err != nil {
			return err
		}

		value = v
	} else {
		v, err := input.PromptReadSecure(o.Out, int(o.In.Fd()), "Enter secret value: ")
		if err != nil {
			return err
		}

		value = v
	}
	defer vaultcrypto.SecureClear(value)

	if len(value) == 0 {
		return vaulterrors.ErrEmptySecret
	}

	entry := vault.NewEntry(o.key, vault.EntryKind(o.kind), value)
	entry.Username = o.username
	entry.Notes = o.notes
	entry.URL = o.url
	entry.Tags = o.tags
	entry.Fields = parseFields(o.fields)

	if err := s.StoreEntry(entry, mk); err != nil {
		return err
	}

	autoCommit(o.DefaultBunkerOptions, s, cfg, fmt.Sprintf("add %s", o.key))

	o.Infof("stored entry %q\n", o.key)

	return nil
}

func parseFields(raw []string) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	fields := make(map[string]string, len(raw))

	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		fields[k] = v
	}

	return fields
}

func newEntryAddCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryAddOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:     "add <key>",
		Aliases: []string{"save", "set"},
		Short:   "Add a new entry",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.key = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVar(&o.kind, "kind", string(vault.KindPassword), "entry kind (password, note, card, identity, secure-file, api-key, ssh-key, database, custom)")
	cmd.Flags().StringVar(&o.username, "username", "", "associated username")
	cmd.Flags().StringVar(&o.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&o.url, "url", "", "associated URL")
	cmd.Flags().StringSliceVar(&o.tags, "tag", nil, "label to attach (repeatable)")
	cmd.Flags().StringSliceVar(&o.fields, "field", nil, "custom key=value field (repeatable)")

	return cmd
}

// --- get / peek ---

type entryGetOptions struct {
	*DefaultBunkerOptions

	search genericclioptions.SearchOptions
	reveal bool
}

var _ genericclioptions.CmdOptions = &entryGetOptions{}

func (*entryGetOptions) Complete() error { return nil }

func (*entryGetOptions) Validate() error { return nil }

func (o *entryGetOptions) run(ctx context.Context, args []string, reveal bool) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	key, err := resolveKey(s, mk, &o.search, args)
	if err != nil {
		return err
	}

	entry, err := s.LoadEntry(key, mk)
	if err != nil {
		return err
	}

	if reveal {
		o.Printf("%s\n", entry.PlaintextValue())
		return nil
	}

	return copyEntryValue(ctx, o.DefaultBunkerOptions, entry)
}

func (o *entryGetOptions) Run(ctx context.Context, args ...string) error {
	return o.run(ctx, args, o.reveal)
}

func newEntryGetCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryGetOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Copy an entry's secret to the clipboard (or print it with --reveal)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	addSearchFlags(cmd, &o.search)
	cmd.Flags().BoolVar(&o.reveal, "reveal", false, "print the secret instead of copying it")

	return cmd
}

// --- peek ---

// maskSecret replaces every character of s but the first and last show with
// '*'. Secrets too short to mask meaningfully come back fully masked.
func maskSecret(s string, show int) string {
	if len(s) <= show*2 {
		return strings.Repeat("*", len(s))
	}

	return s[:show] + strings.Repeat("*", len(s)-show*2) + s[len(s)-show:]
}

type entryPeekOptions struct {
	*DefaultBunkerOptions

	search genericclioptions.SearchOptions
}

var _ genericclioptions.CmdOptions = &entryPeekOptions{}

func (*entryPeekOptions) Complete() error { return nil }

func (*entryPeekOptions) Validate() error { return nil }

// Run prints a masked preview of an entry's secret -- all but its first and
// last two characters replaced with '*' -- without copying or fully
// revealing it. Use `get --reveal` for the full value.
func (o *entryPeekOptions) Run(_ context.Context, args ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	key, err := resolveKey(s, mk, &o.search, args)
	if err != nil {
		return err
	}

	entry, err := s.LoadEntry(key, mk)
	if err != nil {
		return err
	}

	o.Printf("%s: %s\n", key, maskSecret(string(entry.PlaintextValue()), 2))

	return nil
}

func newEntryPeekCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryPeekOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "peek [key]",
		Short: "Print a masked preview of an entry's secret",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	addSearchFlags(cmd, &o.search)

	return cmd
}

func newEntryCopyCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryGetOptions{DefaultBunkerOptions: defaults, reveal: false}

	cmd := &cobra.Command{
		Use:   "copy [key]",
		Short: "Copy an entry's secret to the clipboard",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	addSearchFlags(cmd, &o.search)

	return cmd
}

// --- edit ---

type entryEditOptions struct {
	*DefaultBunkerOptions

	search genericclioptions.SearchOptions

	usernameRaw string
	notesRaw    string
	urlRaw      string

	username *string
	notes    *string
	url      *string
	tags     []string
	fields   []string
	setValue bool
}

var _ genericclioptions.CmdOptions = &entryEditOptions{}

func (*entryEditOptions) Complete() error { return nil }

func (*entryEditOptions) Validate() error { return nil }

func (o *entryEditOptions) Run(_ context.Context, args ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	key, err := resolveKey(s, mk, &o.search, args)
	if err != nil {
		return err
	}

	entry, err := s.LoadEntry(key, mk)
	if err != nil {
		return err
	}

	if o.username != nil {
		entry.Username = *o.username
	}

	if o.notes != nil {
		entry.Notes = *o.notes
	}

	if o.url != nil {
		entry.URL = *o.url
	}

	if len(o.tags) > 0 {
		entry.Tags = o.tags
	}

	if len(o.fields) > 0 {
		entry.Fields = parseFields(o.fields)
	}

	if o.setValue {
		if o.NonInteractive {
			return vaulterrors.ErrNonInteractiveUnsupported
		}

		value, err := input.PromptReadSecure(o.Out, int(o.In.Fd()), "Enter new secret value: ")
		if err != nil {
			return err
		}
		defer vaultcrypto.SecureClear(value)

		entry.Value = vault.EncryptedValue{Ciphertext: value}
	}

	if err := s.StoreEntry(entry, mk); err != nil {
		return err
	}

	autoCommit(o.DefaultBunkerOptions, s, cfg, fmt.Sprintf("edit %s", key))

	o.Infof("updated entry %q\n", key)

	return nil
}

func newEntryEditCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryEditOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "edit [key]",
		Short: "Edit an existing entry's metadata or value",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("username") {
				o.username = util.Ptr(o.usernameRaw)
			}

			if cmd.Flags().Changed("notes") {
				o.notes = util.Ptr(o.notesRaw)
			}

			if cmd.Flags().Changed("url") {
				o.url = util.Ptr(o.urlRaw)
			}

			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	addSearchFlags(cmd, &o.search)
	cmd.Flags().StringVar(&o.usernameRaw, "username", "", "replace the associated username")
	cmd.Flags().StringVar(&o.notesRaw, "notes", "", "replace the free-form notes")
	cmd.Flags().StringVar(&o.urlRaw, "url", "", "replace the associated URL")
	cmd.Flags().StringSliceVar(&o.tags, "tag", nil, "replace the labels (repeatable)")
	cmd.Flags().StringSliceVar(&o.fields, "field", nil, "replace the custom fields (repeatable key=value)")
	cmd.Flags().BoolVar(&o.setValue, "set-value", false, "prompt for a new secret value")

	return cmd
}

// --- remove ---

type entryRemoveOptions struct {
	*DefaultBunkerOptions

	search genericclioptions.SearchOptions
}

var _ genericclioptions.CmdOptions = &entryRemoveOptions{}

func (*entryRemoveOptions) Complete() error { return nil }

func (*entryRemoveOptions) Validate() error { return nil }

func (o *entryRemoveOptions) Run(_ context.Context, args ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	key, err := resolveKey(s, mk, &o.search, args)
	if err != nil {
		return err
	}

	if err := s.DeleteEntry(key); err != nil {
		return err
	}

	autoCommit(o.DefaultBunkerOptions, s, cfg, fmt.Sprintf("remove %s", key))

	o.Infof("removed entry %q\n", key)

	return nil
}

func newEntryRemoveCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryRemoveOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:     "remove [key]",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove an entry",
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o, args...))
		},
	}

	addSearchFlags(cmd, &o.search)

	return cmd
}

// --- list / search ---

type entryListOptions struct {
	*DefaultBunkerOptions

	query string
}

var _ genericclioptions.CmdOptions = &entryListOptions{}

func (*entryListOptions) Complete() error { return nil }

func (*entryListOptions) Validate() error { return nil }

func (o *entryListOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	if len(o.query) == 0 {
		keys, err := s.List()
		if err != nil {
			return err
		}

		for _, key := range keys {
			o.Printf("%s\n", key)
		}

		return nil
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	entries, err := s.Search(o.query, mk)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		o.Printf("%s\n", entry.Key)
	}

	return nil
}

func newEntryListCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryListOptions{DefaultBunkerOptions: defaults}

	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every entry key",
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}
}

func newEntrySearchCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryListOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"find"},
		Short:   "Search entries by key, value, and metadata (plain substring match)",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.query = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	return cmd
}

// --- grep ---

type entryGrepOptions struct {
	*DefaultBunkerOptions

	pattern         string
	caseInsensitive bool
}

var _ genericclioptions.CmdOptions = &entryGrepOptions{}

func (*entryGrepOptions) Complete() error { return nil }

func (o *entryGrepOptions) Validate() error {
	if len(o.pattern) == 0 {
		return fmt.Errorf("%w: a pattern is required", vaulterrors.ErrConfig)
	}

	return nil
}

// Run matches a regular expression against each entry's key, value,
// username, URL, and notes, unlike search's plain substring match. Each
// match is printed alongside the field it matched in; a matched secret
// value is printed masked, while key, username, URL, and notes are printed
// in full.
func (o *entryGrepOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	mk, err := o.unlock(s, cfg)
	if err != nil {
		return err
	}
	defer mk.Clear()

	pattern := o.pattern
	if o.caseInsensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrConfig, err)
	}

	keys, err := s.List()
	if err != nil {
		return err
	}

	found := 0

	for _, key := range keys {
		entry, err := s.LoadEntry(key, mk)
		if err != nil {
			continue
		}

		var contexts [][2]string

		if re.MatchString(entry.Key) {
			contexts = append(contexts, [2]string{"key", entry.Key})
		}

		if value := string(entry.PlaintextValue()); re.MatchString(value) {
			contexts = append(contexts, [2]string{"value", maskSecret(value, 3)})
		}

		if len(entry.Username) > 0 && re.MatchString(entry.Username) {
			contexts = append(contexts, [2]string{"username", entry.Username})
		}

		if len(entry.URL) > 0 && re.MatchString(entry.URL) {
			contexts = append(contexts, [2]string{"url", entry.URL})
		}

		if len(entry.Notes) > 0 && re.MatchString(entry.Notes) {
			contexts = append(contexts, [2]string{"notes", entry.Notes})
		}

		if len(contexts) == 0 {
			continue
		}

		found++

		o.Printf("%s\n", entry.Key)

		for _, c := range contexts {
			o.Printf("  %s: %s\n", c[0], c[1])
		}
	}

	if found == 0 {
		o.Infof("no matches found for pattern %q\n", o.pattern)
	}

	return nil
}

func newEntryGrepCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryGrepOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "grep <pattern>",
		Short: "Search entries by regular expression, printing masked matches with field context",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			o.pattern = args[0]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().BoolVarP(&o.caseInsensitive, "ignore-case", "i", false, "case-insensitive match")

	return cmd
}

// --- mv ---

type entryMoveOptions struct {
	*DefaultBunkerOptions

	from, to string
}

var _ genericclioptions.CmdOptions = &entryMoveOptions{}

func (*entryMoveOptions) Complete() error { return nil }

func (*entryMoveOptions) Validate() error { return nil }

func (o *entryMoveOptions) Run(context.Context, ...string) error {
	s, cfg, err := o.openStore()
	if err != nil {
		return err
	}

	if err := s.MoveEntry(o.from, o.to); err != nil {
		return err
	}

	autoCommit(o.DefaultBunkerOptions, s, cfg, fmt.Sprintf("mv %s -> %s", o.from, o.to))

	o.Infof("moved %q to %q\n", o.from, o.to)

	return nil
}

func newEntryMoveCmd(defaults *DefaultBunkerOptions) *cobra.Command {
	o := &entryMoveOptions{DefaultBunkerOptions: defaults}

	cmd := &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "Rename an entry's key",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			o.from, o.to = args[0], args[1]
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	return cmd
}
