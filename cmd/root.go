package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
	"github.com/zjrosen/quill/internal/tracing"
	"github.com/zjrosen/quill/internal/ui/editor"
	"github.com/zjrosen/quill/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version  = "dev"
	cfgFile  string
	debug    bool
	language string
	settings config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "quill [file]",
	Short: "A rich-text decoration playground",
	Long: `Quill decorates plain text with syntax highlighting, markdown
formatting, list markers, clickable links, and current-line styling.
The root command opens an interactive playground; pass a file to load it
as the initial document.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runPlayground,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/quill/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write a debug log to quill.log")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "",
		"initial language (markdown, go, plain, ...)")
	rootCmd.PersistentFlags().String("dark-stylesheet", "",
		"highlight.js CSS file for the dark theme")
	rootCmd.PersistentFlags().String("light-stylesheet", "",
		"highlight.js CSS file for the light theme")
	rootCmd.PersistentFlags().Bool("trace", false,
		"export decoration job traces to ~/.config/quill/traces")

	_ = viper.BindPFlag("theme.dark_stylesheet", rootCmd.PersistentFlags().Lookup("dark-stylesheet"))
	_ = viper.BindPFlag("theme.light_stylesheet", rootCmd.PersistentFlags().Lookup("light-stylesheet"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("show_line_numbers", defaults.ShowLineNumbers)
	viper.SetDefault("word_wrap", defaults.WordWrap)
	viper.SetDefault("highlight_current_line", defaults.HighlightCurrentLine)
	viper.SetDefault("indent_using_spaces", defaults.IndentUsingSpaces)
	viper.SetDefault("tab_width", defaults.TabWidth)
	viper.SetDefault("bullet_lists", defaults.BulletLists)
	viper.SetDefault("numbered_lists", defaults.NumberedLists)
	viper.SetDefault("checklists", defaults.Checklists)
	viper.SetDefault("clickable_links", defaults.ClickableLinks)
	viper.SetDefault("theme.appearance", defaults.Theme.Appearance)
	viper.SetDefault("theme.preset", defaults.Theme.Preset)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .quill/config.yaml (current directory)
		// 2. ~/.config/quill/config.yaml (user config)
		if _, err := os.Stat(".quill/config.yaml"); err == nil {
			viper.SetConfigFile(".quill/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "quill"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine, defaults apply.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&settings)
	settings = settings.Normalize()
}

func runPlayground(cmd *cobra.Command, args []string) error {
	if debug || os.Getenv("QUILL_DEBUG") != "" {
		cleanup, err := log.InitWithTeaLog("quill.log", "quill")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer cleanup()
	}

	traceCfg := tracing.DefaultConfig()
	if traceOn, _ := cmd.Flags().GetBool("trace"); traceOn {
		home, _ := os.UserHomeDir()
		traceCfg.Enabled = true
		traceCfg.FilePath = filepath.Join(home, ".config", "quill", "traces", "traces.jsonl")
	}
	provider, err := tracing.NewProvider(traceCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	text := defaultDocument
	lang := language
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		text = string(data)
		if lang == "" {
			lang = languageForFile(args[0])
		}
	}

	store := config.NewStore(settings)
	defer store.Close()

	hostDark := lipgloss.HasDarkBackground()
	themes := theme.Builtin(store.Get().Preset())
	tok := tokenizer.NewChroma(tokenizer.StyleForTheme(
		theme.Resolve(themes, store.Get().Variant(), hostDark)))

	var reloads <-chan struct{}
	set := store.Get()
	if set.Theme.DarkStylesheet != "" || set.Theme.LightStylesheet != "" {
		w, err := watcher.New(watcher.Config{
			DarkStylesheet:  set.Theme.DarkStylesheet,
			LightStylesheet: set.Theme.LightStylesheet,
		})
		if err == nil {
			if ch, startErr := w.Start(); startErr == nil {
				reloads = ch
				defer func() { _ = w.Stop() }()
			}
		}
	}

	model := editor.New(editor.Options{
		Store:     store,
		Tokenizer: tok,
		Themes:    themes,
		HostDark:  hostDark,
		Text:      text,
		Language:  lang,
		Reloads:   reloads,
		Tracer:    provider.Tracer(),
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// languageForFile guesses a language name from a file extension.
func languageForFile(path string) string {
	switch filepath.Ext(path) {
	case ".md", ".markdown":
		return "markdown"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".rs":
		return "rust"
	case ".sh":
		return "bash"
	default:
		return ""
	}
}

const defaultDocument = `# Quill

- [x] decorate checklists
- [ ] *emphasize* things
- regular bullet

1. ordered item

Some **bold**, some ~~struck~~, some ` + "`inline code`" + `.

` + "```go" + `
func main() {
	fmt.Println("fenced code")
}
` + "```" + `

https://github.com/zjrosen/quill
`

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
