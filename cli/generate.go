package cli

import (
	"context"
	"fmt"

	"github.com/ladzaretti/bunker/clierror"
	"github.com/ladzaretti/bunker/clipboard"
	"github.com/ladzaretti/bunker/genericclioptions"
	"github.com/ladzaretti/bunker/randstring"

	"github.com/spf13/cobra"
)

// GenerateOptions holds the flags for the `generate` command.
type GenerateOptions struct {
	*genericclioptions.StdioOptions

	opts             randstring.Options
	excludeAmbiguous bool
	copy             bool
}

var _ genericclioptions.CmdOptions = &GenerateOptions{}

// NewGenerateOptions initializes the options struct.
func NewGenerateOptions(stdio *genericclioptions.StdioOptions) *GenerateOptions {
	return &GenerateOptions{
		StdioOptions: stdio,
	}
}

func (o *GenerateOptions) Complete() error {
	o.opts.ExcludeAmbiguous = o.excludeAmbiguous

	if !o.opts.Lowercase && !o.opts.Uppercase && !o.opts.Digits && !o.opts.Symbols && len(o.opts.CustomCharset) == 0 {
		o.opts.Lowercase = randstring.DefaultOptions.Lowercase
		o.opts.Uppercase = randstring.DefaultOptions.Uppercase
		o.opts.Digits = randstring.DefaultOptions.Digits
		o.opts.Symbols = randstring.DefaultOptions.Symbols
	}

	if o.opts.Length == 0 {
		o.opts.Length = randstring.DefaultOptions.Length
	}

	return nil
}

func (*GenerateOptions) Validate() error {
	return nil
}

func (o *GenerateOptions) Run(ctx context.Context, _ ...string) error {
	s, err := randstring.New(o.opts)
	if err != nil {
		return err
	}

	if o.copy {
		o.Debugf("copying generated secret to clipboard\n")
		return clipboard.CopyWithTimeout(ctx, s, defaultClipboardTimeout)
	}

	o.Printf("%s\n", s)

	return nil
}

// NewCmdGenerate creates the generate cobra command.
func NewCmdGenerate(defaults *DefaultBunkerOptions) *cobra.Command {
	o := NewGenerateOptions(defaults.StdioOptions)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "rand"},
		Short:   "Generate a random secret",
		Long: fmt.Sprintf(`Generate a random secret drawn from the selected character classes.

If no class flag is given, every class is enabled (length %d).`,
			randstring.DefaultOptions.Length),
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().BoolVarP(&o.opts.Lowercase, "lower", "l", false, "include lowercase letters")
	cmd.Flags().BoolVarP(&o.opts.Uppercase, "upper", "u", false, "include uppercase letters")
	cmd.Flags().BoolVarP(&o.opts.Digits, "digits", "d", false, "include digits")
	cmd.Flags().BoolVarP(&o.opts.Symbols, "symbols", "s", false, "include symbols")
	cmd.Flags().StringVarP(&o.opts.CustomCharset, "charset", "c", "", "use this exact character set instead of the class flags")
	cmd.Flags().BoolVarP(&o.excludeAmbiguous, "exclude-ambiguous", "a", false, "exclude visually ambiguous characters (0,O,o,1,l,I)")
	cmd.Flags().IntVarP(&o.opts.Length, "length", "n", 0, "length of the generated secret (default 16)")
	cmd.Flags().BoolVar(&o.copy, "copy", false, "copy the generated secret to the clipboard instead of printing it")

	return cmd
}
