package cli

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time with -ldflags "-X ...cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	profile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "judolscan",
	Short: "judolscan - online gambling ad detector for text, images, video and web pages",
	Long: `judolscan detects online gambling ("judi online") promotion in free text,
banner images, short video clips, web pages and remote videos.

Every check extracts text (OCR, speech recognition, visible page text or
video metadata), matches it against a gambling lexicon and scores the hits
with keyword tiers, an optional statistical classifier, or both depending
on the active profile.

Profiles:
  general     keyword tiers first, classifier fallback when nothing matches
  precision   classifier gated on keywords, density scoring for web pages`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of judolscan.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("judolscan " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.judolscan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "detection profile (general, precision)")

	bindFlags()

	rootCmd.AddCommand(versionCmd)
}

// bindFlags binds global flags to viper. --profile is applied by loadConfig
// instead, so an unset flag never hides the config file or env value.
func bindFlags() {
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.judolscan")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// JUDOLSCAN_HTTP_TIMEOUT overrides http.timeout
	viper.SetEnvPrefix("JUDOLSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv registers every config key so env overrides reach Unmarshal.
// Secrets have no yaml key and also fall back to the OpenAI variable.
func bindEnv() {
	for _, key := range configKeys(reflect.TypeOf(model.Config{}), "") {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("classifier.api_key", "JUDOLSCAN_CLASSIFIER_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("asr.api_key", "JUDOLSCAN_ASR_API_KEY", "OPENAI_API_KEY")
}

// configKeys lists the dotted mapstructure keys of a config struct type
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, configKeys(f.Type, prefix+name+".")...)
			continue
		}
		keys = append(keys, prefix+name)
	}
	return keys
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
