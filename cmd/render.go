package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/compose"
	"github.com/zjrosen/quill/internal/surface"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Decorate a file once and print it to stdout",
	Long: `Runs the decoration pipeline headlessly: tokenize, apply markers
and theme colors, and print the styled result as ANSI text. Useful for
previewing a theme or stylesheet without the playground.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	text := string(data)

	lang := language
	if lang == "" {
		lang = languageForFile(args[0])
	}

	hostDark := lipgloss.HasDarkBackground()
	themes := theme.Builtin(settings.Preset())
	if settings.Theme.DarkStylesheet != "" || settings.Theme.LightStylesheet != "" {
		if fromCSS, cssErr := theme.FromCSS(settings.Theme.DarkStylesheet, settings.Theme.LightStylesheet); cssErr == nil {
			themes = fromCSS
		}
	}
	th := theme.Resolve(themes, settings.Variant(), hostDark)

	tok := tokenizer.NewChroma(tokenizer.StyleForTheme(th))

	var spans []tokenizer.Span
	mode := compose.ModeFor(lang)
	if mode == compose.ModeCode {
		langID, _ := tokenizer.Resolve(lang)
		if spans, err = tok.Highlight(cmd.Context(), text, langID); err != nil {
			spans = nil
		}
	}

	buf := surface.NewBuffer(text)
	set := settings
	set.HighlightCurrentLine = false
	compose.Compose(context.Background(), buf, spans, th, set, mode, tok)

	fmt.Fprintln(cmd.OutOrStdout(), buf.Render())
	return nil
}
