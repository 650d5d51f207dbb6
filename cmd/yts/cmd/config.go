package cmd

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/config"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/bytesize"
	"github.com/w7-mgfcode/youtube-transcription-service-v1/pkg/duration"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing yts configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
You can redirect this output to a file to create a configuration template:

  yts config dump > config.yaml

Configuration can be set via:
  - Config file (config.yaml, /etc/yts/config.yaml, $HOME/.yts/config.yaml)
  - Environment variables (YTS_SERVER_PORT, YTS_GENAI_API_KEY, etc.)
  - Command-line flags (for some options)

Environment variables use the YTS_ prefix and underscores for nesting.
Example: speech.language_code -> YTS_SPEECH_LANGUAGE_CODE`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a config struct to a map, formatting durations and sizes
// for human readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = strings.ToLower(fieldType.Name)
		}

		switch v := field.Interface().(type) {
		case time.Duration:
			result[key] = duration.Format(v)
		case config.Duration:
			result[key] = duration.Format(v.Duration())
		case config.ByteSize:
			result[key] = bytesize.Format(bytesize.Size(v))
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	// Defaults only, no file
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfgMap := toMap(cfg)

	yamlData, err := yaml.Marshal(cfgMap)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# yts Configuration File")
	fmt.Println("# ======================")
	fmt.Println("#")
	fmt.Println("# All values shown below are defaults.")
	fmt.Println("# Duration format: 30s, 5m, 1h, 7d, 2w")
	fmt.Println("# Size format: 5MB, 1GB")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides:")
	fmt.Println("#   YTS_SERVER_HOST, YTS_SERVER_PORT")
	fmt.Println("#   YTS_DATABASE_DRIVER, YTS_DATABASE_DSN")
	fmt.Println("#   YTS_SPEECH_LANGUAGE_CODE, YTS_SPEECH_API_KEY")
	fmt.Println("#   YTS_GENAI_API_KEY, YTS_TTS_GOOGLE_API_KEY")
	fmt.Println("#   YTS_LOGGING_LEVEL, YTS_LOGGING_FORMAT")
	fmt.Println("#   etc.")
	fmt.Println("#")
	fmt.Println("")
	fmt.Print(string(yamlData))

	return nil
}
