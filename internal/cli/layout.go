package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forkline/pkg/errors"
	"github.com/matzehuels/forkline/pkg/graph"
	"github.com/matzehuels/forkline/pkg/pipeline"
	"github.com/matzehuels/forkline/pkg/session"
	"github.com/matzehuels/forkline/pkg/source"
	gitsrc "github.com/matzehuels/forkline/pkg/source/git"
	ghsrc "github.com/matzehuels/forkline/pkg/source/github"
)

// Input formats for file arguments.
const (
	inputHistory = "history"
	inputGitHub  = "github"
)

type layoutFlags struct {
	output   string
	format   string
	noCache  bool
	watch    bool
	maxPages int

	inputFormat string
	repo        string
	ref         string
	tipFromRef  bool
	branches    string
	runs        string
	artifacts   string
	headBranch  string

	tip        string
	seed       uint64
	trunkColor string
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	f := layoutFlags{format: graph.FormatJSON, inputFormat: inputHistory}

	cmd := &cobra.Command{
		Use:   "layout [history.json]",
		Short: "Compute the layout of a commit history",
		Long: `Compute the layout of a commit history.

The history comes from one of:
  - a history document (JSON with commits, branches, runs and artifacts)
  - saved GitHub API responses (--input-format github), e.g.
      gh api --paginate repos/OWNER/REPO/commits > commits.json
  - a local repository (--repo DIR), read page by page

The layout is written after every loaded page, so large repositories show
progress in the output file. Results are cached locally.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			if (input == "") == (f.repo == "") {
				return errors.New(errors.ErrCodeInvalidInput, "pass either a history file or --repo")
			}
			if f.watch && input == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--watch needs an input file")
			}
			if err := pipeline.ValidateFormat(f.format); err != nil {
				return err
			}
			f.tipFromRef = f.ref != "" && !cmd.Flags().Changed("tip")
			return c.runLayout(cmd, input, f, c.layoutOptions(cmd, f))
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output file (default: <input>.layout.<format>)")
	fl.StringVarP(&f.format, "format", "f", f.format, "output format: json, bson, dot")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVarP(&f.watch, "watch", "w", false, "recompute when the input file changes")
	fl.IntVar(&f.maxPages, "max-pages", 0, "stop after this many pages (0: all)")

	fl.StringVar(&f.inputFormat, "input-format", f.inputFormat, "input file format: history, github")
	fl.StringVar(&f.repo, "repo", "", "read a local git repository instead of a file")
	fl.StringVar(&f.ref, "ref", "", "revision to start reading --repo from (default: HEAD)")
	fl.StringVar(&f.branches, "branches", "", "GitHub branches response (with --input-format github)")
	fl.StringVar(&f.runs, "runs", "", "GitHub workflow runs response (with --input-format github)")
	fl.StringVar(&f.artifacts, "artifacts", "", "GitHub artifacts response (with --input-format github)")
	fl.StringVar(&f.headBranch, "head-branch", "", "branch labeled HEAD (with --input-format github)")

	fl.StringVar(&f.tip, "tip", "", "branch or commit the main line starts from (default: --ref, else HEAD)")
	fl.Uint64Var(&f.seed, "seed", 0, "seed for loop colors (0 selects the default seed 42)")
	fl.StringVar(&f.trunkColor, "trunk-color", "", "main line color (#rrggbb)")

	return cmd
}

// layoutOptions merges the config file with the flags set on cmd.
func (c *CLI) layoutOptions(cmd *cobra.Command, f layoutFlags) pipeline.Options {
	opts := c.Config.Options()
	fl := cmd.Flags()
	if fl.Changed("tip") {
		opts.Tip = f.tip
	}
	if fl.Changed("seed") {
		opts.Seed = f.seed
	}
	if fl.Changed("trunk-color") {
		opts.TrunkColor = f.trunkColor
	}
	opts.NoCache = f.noCache
	opts.Logger = c.Logger
	return opts
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, f layoutFlags, opts pipeline.Options) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	output := f.output
	if output == "" {
		output = defaultOutput(input, f.repo, f.format)
	}

	once := func(ctx context.Context) error {
		return c.layoutOnce(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), runner, input, f, opts, output)
	}
	if f.watch {
		return watchFile(ctx, input, once)
	}
	return once(ctx)
}

// layoutOnce streams the input page by page through a session whose
// surface is the output file.
func (c *CLI) layoutOnce(ctx context.Context, w, errw io.Writer, runner *pipeline.Runner, input string, f layoutFlags, opts pipeline.Options, output string) error {
	src, closeSrc, err := c.openSource(input, f)
	if err != nil {
		return err
	}
	defer closeSrc()
	if gs, ok := src.(*gitsrc.Source); ok && f.tipFromRef {
		opts.Tip = gs.Start()
	}

	spinner := newSpinner(ctx, errw, "Loading "+src.Name())
	spinner.Start()
	prog := newProgress(c.Logger)

	s := session.New(runner, opts)
	surf := &fileSurface{path: output, format: f.format, spinner: spinner}
	s.Attach(surf)

	if err := s.Run(ctx, source.Limit(src, f.maxPages)); err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("layout %s: %w", src.Name(), err)
	}
	spinner.Stop()

	res := s.Last()
	if res == nil {
		return errors.New(errors.ErrCodeNotFound, "%s has no commits", src.Name())
	}
	prog.done("layout written", "source", src.Name(), "pages", s.Generation(), "commits", s.Graph().Len())

	for _, e := range res.BackEdges {
		printWarning(w, "Ignored parent link %s (closes a cycle)", e)
	}
	for _, sk := range res.Skipped {
		printWarning(w, "Skipped %s", sk.Error())
	}
	printSuccess(w, "Layout complete")
	printFile(w, output)
	printStats(w, layoutStats{
		commits: len(res.Layout.Commits),
		columns: res.Layout.Columns,
		loops:   len(res.Layout.Loops),
		cached:  res.CacheHit,
	})
	if err := pipeline.UnresolvedParents(res.Layout); err != nil {
		printDetail(w, "%s", errors.UserMessage(err))
	}
	if f.format != graph.FormatDOT {
		printNextStep(w, "Graphviz export", appName+" layout "+sourceArg(input, f)+" --format dot")
	}
	return nil
}

// openSource opens the history named by the arguments. The returned
// function releases it.
func (c *CLI) openSource(input string, f layoutFlags) (source.Source, func() error, error) {
	noop := func() error { return nil }
	pageSize := c.Config.Layout.PageSize

	if f.repo != "" {
		src, err := gitsrc.Open(f.repo, gitsrc.Options{Ref: f.ref, PageSize: pageSize})
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}

	switch f.inputFormat {
	case inputGitHub:
		src, err := ghsrc.Open(ghsrc.Files{
			Commits:   input,
			Branches:  f.branches,
			Runs:      f.runs,
			Artifacts: f.artifacts,
		}, ghsrc.Options{HeadBranch: f.headBranch, PageSize: pageSize})
		if err != nil {
			return nil, nil, err
		}
		return src, noop, nil
	case inputHistory:
		h, err := graph.ReadHistoryFile(input)
		if err != nil {
			return nil, nil, err
		}
		return source.FromHistory(input, h, max(len(h.Commits), 1)), noop, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "unknown input format %q (want history or github)", f.inputFormat)
	}
}

func defaultOutput(input, repo, format string) string {
	base := input
	if base == "" {
		abs, err := filepath.Abs(repo)
		if err != nil {
			abs = repo
		}
		base = filepath.Base(abs)
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + ".layout." + format
}

func sourceArg(input string, f layoutFlags) string {
	if f.repo != "" {
		return "--repo " + f.repo
	}
	return input
}

// =============================================================================
// File Surface
// =============================================================================

// fileSurface writes every applied layout to path, replacing the previous
// one atomically.
type fileSurface struct {
	path    string
	format  string
	spinner *Spinner
}

func (s *fileSurface) Apply(_ context.Context, l graph.Layout) error {
	data, err := pipeline.Encode(l, s.format)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write output %s: %w", s.path, err)
	}
	if s.spinner != nil {
		s.spinner.SetMessage(fmt.Sprintf("Laid out %d commits", len(l.Commits)))
	}
	return nil
}

var _ session.Surface = (*fileSurface)(nil)
