package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage judolscan configuration",
	Long: `Manage the judolscan configuration file.

Settings are layered, later sources winning:
  defaults < ~/.judolscan/config.yaml < JUDOLSCAN_* env < --profile/--config flags

API keys are read from the environment only (OPENAI_API_KEY,
JUDOLSCAN_CLASSIFIER_API_KEY, JUDOLSCAN_ASR_API_KEY).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration and collaborator status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(os.Stderr, "Config file: %s\n", f)
		} else {
			fmt.Fprintf(os.Stderr, "Config file: none (defaults)\n")
		}
		fmt.Fprintf(os.Stderr, "Profile:     %s\n", cfg.Profile)
		if cfg.LexiconFile != "" {
			fmt.Fprintf(os.Stderr, "Lexicon:     %s\n", cfg.LexiconFile)
		}
		fmt.Fprintln(os.Stderr)

		out := cmd.OutOrStdout()
		if err := writeSections(out, cfg, false); err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "\nCollaborators:")
		for _, c := range collaborators(cfg) {
			fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.status)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config file to ~/.judolscan/config.yaml",
	Long: `Write the default configuration, grouped by concern, to
~/.judolscan/config.yaml (or the --config path). --profile selects the
detection profile written to the file. The file lists which external
collaborators (tesseract, ffmpeg, yt-dlp, classifier, speech recognition)
were found so missing ones can be installed or disabled.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		path, err := configPath()
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil && !forceInit {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}

		cfg := model.DefaultConfig()
		if profile != "" {
			cfg.Profile = profile
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		if err := writeDefaultConfig(f, cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (profile %s)\n", path, cfg.Profile)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// configPath returns --config or ~/.judolscan/config.yaml
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".judolscan", "config.yaml"), nil
}

// configSection is one top-level block of the config file
type configSection struct {
	key     string
	comment string
	value   interface{}
}

func sections(cfg *model.Config) []configSection {
	return []configSection{
		{"http", "Page fetching. timeout 0 uses the profile's page timeout.", cfg.HTTP},
		{"rate_limiting", "Per-domain throttle for batch runs.", cfg.RateLimiting},
		{"concurrency", "Batch workers; the --concurrency flag overrides this.", cfg.Concurrency},
		{"cache", "Fetched pages stay in memory; remote media metadata also goes to disk_dir when set.", cfg.Cache},
		{"classifier", "Gambling-text classifier. backend: tfserving, openai or none.", cfg.Classifier},
		{"ocr", "Tesseract OCR for images and video frames.", cfg.OCR},
		{"asr", "Speech recognition for video audio tracks.", cfg.ASR},
		{"media", "ffmpeg/ffprobe for local video, yt-dlp for remote media.", cfg.Media},
		{"server", "HTTP API (judolscan serve).", cfg.Server},
	}
}

// writeDefaultConfig writes cfg as a commented YAML file
func writeDefaultConfig(w io.Writer, cfg *model.Config) error {
	var b strings.Builder
	b.WriteString("# judolscan configuration\n")
	b.WriteString("# Env vars override these keys as JUDOLSCAN_<SECTION>_<KEY>, e.g. JUDOLSCAN_HTTP_TIMEOUT=45s\n\n")

	b.WriteString("# Detection profile: general (recall) or precision (classifier-gated)\n")
	fmt.Fprintf(&b, "profile: %s\n\n", cfg.Profile)

	b.WriteString("# Optional YAML file overriding keywords, tiers and OCR corrections\n")
	if cfg.LexiconFile != "" {
		fmt.Fprintf(&b, "lexicon_file: %s\n\n", cfg.LexiconFile)
	} else {
		b.WriteString("# lexicon_file: ~/.judolscan/lexicon.yaml\n\n")
	}

	b.WriteString("# Collaborators found when this file was written:\n")
	for _, c := range collaborators(cfg) {
		fmt.Fprintf(&b, "#   %-10s %s\n", c.name, c.status)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return writeSections(w, cfg, true)
}

// writeSections marshals each section, optionally preceded by its comment
func writeSections(w io.Writer, cfg *model.Config, comments bool) error {
	for _, s := range sections(cfg) {
		data, err := yaml.Marshal(map[string]interface{}{s.key: s.value})
		if err != nil {
			return fmt.Errorf("marshal %s: %w", s.key, err)
		}
		if comments {
			if _, err := fmt.Fprintf(w, "# %s\n", s.comment); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	}
	return nil
}

type collaborator struct {
	name   string
	status string
}

// collaborators reports which external tools and backends cfg can reach
func collaborators(cfg *model.Config) []collaborator {
	binary := func(name string) string {
		if path, err := exec.LookPath(name); err == nil {
			return "found at " + path
		}
		return fmt.Sprintf("%s not on PATH, steps needing it are skipped", name)
	}

	classifier := "backend " + cfg.Classifier.Backend
	switch {
	case cfg.Classifier.Backend == "" || cfg.Classifier.Backend == "none":
		classifier = "none, scores degrade to keyword rules"
	case cfg.Classifier.Backend == "tfserving" && cfg.Classifier.ModelURL == "":
		classifier = "tfserving without model_url, scores degrade to keyword rules"
	case cfg.Classifier.Backend == "openai" && cfg.Classifier.APIKey == "":
		classifier = "openai without API key, scores degrade to keyword rules"
	}

	asr := "disabled"
	if cfg.ASR.Enabled {
		asr = "model " + cfg.ASR.Model
		if cfg.ASR.APIKey == "" {
			asr = "enabled without API key, audio is skipped"
		}
	}

	return []collaborator{
		{"classifier", classifier},
		{"ocr", binary(cfg.OCR.Binary)},
		{"asr", asr},
		{"ffmpeg", binary(cfg.Media.FFmpeg)},
		{"ffprobe", binary(cfg.Media.FFprobe)},
		{"yt-dlp", binary(cfg.Media.YTDLP)},
	}
}
