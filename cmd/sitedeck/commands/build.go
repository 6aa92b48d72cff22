package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/submission"
)

type buildOptions struct {
	file        string
	structured  bool
	prefs       domain.Preferences
	features    []string
}

// NewBuildCommand creates the build command, which submits a description
// and prints pipeline progress until the site is ready or has failed.
func NewBuildCommand(global *globalOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [description...]",
		Short: "Generate a website and follow its build",
		Long: `Submits a website description and prints each pipeline stage as it changes.

The description is taken from the arguments, from --file, or from stdin when
neither is given.`,
		Example: `  sitedeck build "A landing page for a family bakery with an online order form"
  sitedeck build --structured --business-name "Rosa's" --industry food -f brief.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd.InOrStdin(), opts.file, args)
			if err != nil {
				return err
			}
			return runBuild(cmd, global, opts, prompt)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "read the description from a file")
	flags.BoolVar(&opts.structured, "structured", false, "send business details along with the description")
	flags.StringVar(&opts.prefs.BusinessName, "business-name", "", "business name (structured)")
	flags.StringVar(&opts.prefs.Industry, "industry", "", "industry (structured)")
	flags.StringVar(&opts.prefs.TargetAudience, "audience", "", "target audience (structured)")
	flags.StringVar(&opts.prefs.DomainName, "domain", "", "preferred domain name")
	flags.StringVar(&opts.prefs.Tone, "tone", "", "tone of voice, e.g. friendly or formal")
	flags.StringSliceVar(&opts.features, "features", nil, "comma separated list of features")
	return cmd
}

func runBuild(cmd *cobra.Command, global *globalOptions, opts *buildOptions, prompt string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, global, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	printer := newProgressPrinter(out)
	sess, err := a.newSession("", printer.OnChange)
	if err != nil {
		return err
	}

	in := submission.Input{
		Prompt:      prompt,
		Structured:  opts.structured,
		Preferences: opts.preferences(),
	}

	project, err := a.newFlow(sess).Submit(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created project %s (%s)\n", project.Name, project.ID)
	return printer.wait(ctx, sess)
}

// preferences returns the flag values, or nil when none was set.
func (o *buildOptions) preferences() *domain.Preferences {
	p := o.prefs
	p.Features = o.features
	if p.BusinessName == "" && p.Industry == "" && p.TargetAudience == "" &&
		p.DomainName == "" && p.Tone == "" && len(p.Features) == 0 {
		return nil
	}
	return &p
}

// readPrompt joins args, or reads the file, or falls back to stdin.
func readPrompt(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass the description as arguments or with --file, not both")
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file == "-":
		// stdin
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading description: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading description from stdin: %w", err)
	}
	return string(b), nil
}
