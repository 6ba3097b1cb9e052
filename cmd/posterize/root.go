package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/csheth/posterize/internal/arxiv"
	"github.com/csheth/posterize/internal/gemini"
	"github.com/csheth/posterize/internal/pipeline"
)

const (
	summaryWrapWidth   = 78
	sourceHTTPTimeout  = 90 * time.Second
	serviceHTTPTimeout = 5 * time.Minute
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

var (
	flagOrientation string
	flagOutputDir   string
	flagOutput      string
	flagModel       string
	flagResolution  string
	flagLanguage    string
	flagSidePanel   string
	flagWhatIf      string
	flagAPIKey      string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "posterize [identifiers...]",
	Short: "Generate poster images from arXiv papers",
	Long: `Posterize downloads arXiv papers, caches their PDFs, and turns them into
poster images via the Gemini image-generation API. Multiple identifiers are
processed in sequence; each paper gets a deterministic output filename, and
the --whatif flow revises an existing poster into a numbered variant.`,
	Example: `  posterize 1706.03762
  posterize 1706.03762 2301.12345 cs.CV/2401.12345
  posterize 1706.03762 --orientation portrait --language Korean
  posterize 1706.03762 --model flash
  posterize 1706.03762 --side-panel qa --resolution 4K
  posterize 1706.03762 --whatif "What if we apply this to medical imaging?"`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagOrientation, "orientation", "o", "landscape", "poster orientation: landscape or portrait")
	flags.StringVarP(&flagOutputDir, "output-dir", "d", "outputs", "directory for generated posters")
	flags.StringVar(&flagOutput, "output", "", "explicit output filename (single paper only)")
	flags.StringVarP(&flagModel, "model", "m", "pro", "generation model: pro or flash")
	flags.StringVarP(&flagResolution, "resolution", "r", "", "image resolution: 1K, 2K, or 4K (pro only, default 2K)")
	flags.StringVarP(&flagLanguage, "language", "l", "English", "poster language, full name (e.g. Korean)")
	flags.StringVar(&flagSidePanel, "side-panel", "", "side panel kind: qa or history")
	flags.StringVar(&flagWhatIf, "whatif", "", "revise an existing poster with a what-if idea (single paper only)")
	flags.StringVar(&flagAPIKey, "api-key", "", "Gemini API key (or GEMINI_API_KEY/GOOGLE_API_KEY)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "verbose progress output")
}

func run(cmd *cobra.Command, args []string) error {
	opts := pipeline.Options{
		PaperIDs:    args,
		Model:       flagModel,
		Orientation: flagOrientation,
		SidePanel:   flagSidePanel,
		Resolution:  flagResolution,
		Language:    flagLanguage,
		OutputDir:   flagOutputDir,
		OutputFile:  flagOutput,
		WhatIf:      flagWhatIf,
	}
	// Options and credential are checked before anything touches the disk or
	// the network.
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failureStyle.Render("error: ")+err.Error())
		return err
	}
	client, err := gemini.NewClient(flagAPIKey, &http.Client{Timeout: serviceHTTPTimeout})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failureStyle.Render("error: ")+err.Error())
		return err
	}
	cache, err := arxiv.NewCache(&http.Client{Timeout: sourceHTTPTimeout})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failureStyle.Render("error: ")+err.Error())
		return err
	}

	runner := &pipeline.Runner{
		Source:  cache,
		Service: &gemini.Invoker{Client: client},
	}
	if flagVerbose {
		runner.Logf = func(format string, a ...any) {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf(format, a...)))
		}
	}

	results, runErr := runner.Run(cmd.Context(), opts)
	if runErr != nil && len(results) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), failureStyle.Render("error: ")+runErr.Error())
		return runErr
	}

	failed := printResults(cmd, results)
	if runErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failureStyle.Render("interrupted: ")+runErr.Error())
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d posters failed", failed, len(results))
	}
	return nil
}

func printResults(cmd *cobra.Command, results []pipeline.Result) (failed int) {
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Err == nil {
			fmt.Fprintf(out, "%s %s → %s\n", successStyle.Render("✓"), res.ID, res.Path)
			continue
		}
		failed++
		fmt.Fprintf(out, "%s %s (%s)\n", failureStyle.Render("✗"), res.ID, res.Reason())
		fmt.Fprintln(out, mutedStyle.Render(wordwrap.String("  "+res.Err.Error(), summaryWrapWidth)))
	}
	if len(results) > 1 {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d/%d posters generated", len(results)-failed, len(results))))
	}
	return failed
}
