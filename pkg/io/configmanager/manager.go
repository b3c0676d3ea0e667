package configmanager

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConfigFileName is the base name of the configuration file looked up in the working directory.
const ConfigFileName = "coderev"

// EnvPrefix prefixes the environment overrides, e.g. CODEREV_CLUSTER_NAME.
const EnvPrefix = "CODEREV"

// ErrInvalidConfig is returned when the loaded Environment fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// envBindings maps config keys to the environment variables that override them, in order of
// precedence. The unprefixed names are the ones the make targets export.
func envBindings() map[string][]string {
	return map[string][]string{
		"spec.cluster.name":           {EnvPrefix + "_CLUSTER_NAME", "CLUSTER_NAME"},
		"spec.cluster.kubeconfig":     {EnvPrefix + "_KUBECONFIG", "KUBECONFIG"},
		"spec.namespace":              {EnvPrefix + "_NAMESPACE", "NAMESPACE"},
		"spec.teardown.deletecluster": {EnvPrefix + "_DELETE_CLUSTER", "DELETE_CLUSTER"},
		"spec.infra.region":           {EnvPrefix + "_REGION", "AWS_REGION", "AWS_DEFAULT_REGION"},
	}
}

// LoadOptions configures a single Load call.
type LoadOptions struct {
	// Timer enables the timing block on the success message.
	Timer timer.Timer
	// Silent suppresses all notifications.
	Silent bool
}

// ConfigManager loads and caches the Environment for one command invocation.
type ConfigManager struct {
	Viper  *viper.Viper
	Config *v1alpha1.Environment
	Writer io.Writer

	selectors  []FieldSelector
	flagValues *v1alpha1.Environment
	command    *cobra.Command
	loaded     bool
	fileFound  bool
}

// InitializeViper returns a viper instance reading coderev.yaml from the working directory,
// or configFile when set, with the environment overrides bound.
func InitializeViper(configFile string) *viper.Viper {
	viperInstance := viper.New()

	if configFile != "" {
		viperInstance.SetConfigFile(configFile)
	} else {
		viperInstance.SetConfigName(ConfigFileName)
		viperInstance.SetConfigType("yaml")
		viperInstance.AddConfigPath(".")
	}

	for key, names := range envBindings() {
		_ = viperInstance.BindEnv(append([]string{key}, names...)...)
	}

	return viperInstance
}

// NewConfigManager creates a manager seeded with the Environment defaults.
func NewConfigManager(writer io.Writer, configFile string, selectors ...FieldSelector) *ConfigManager {
	return &ConfigManager{
		Viper:      InitializeViper(configFile),
		Config:     v1alpha1.NewEnvironment(),
		Writer:     writer,
		selectors:  selectors,
		flagValues: v1alpha1.NewEnvironment(),
	}
}

// NewCommandConfigManager creates a manager bound to cmd and registers one flag per selector.
// The config file comes from the persistent --config flag when present.
func NewCommandConfigManager(cmd *cobra.Command, selectors ...FieldSelector) *ConfigManager {
	manager := NewConfigManager(cmd.OutOrStdout(), "", selectors...)
	manager.command = cmd
	manager.AddFlagsFromFields(cmd)

	return manager
}

// AddFlagsFromFields registers a flag for every selector on cmd, defaulting to the Environment
// default of the field.
func (m *ConfigManager) AddFlagsFromFields(cmd *cobra.Command) {
	flags := cmd.Flags()

	for _, selector := range m.selectors {
		if flags.Lookup(selector.Flag) != nil {
			continue
		}

		registerFlag(flags, selector, selector.Selector(m.flagValues))
	}
}

func registerFlag(flags *pflag.FlagSet, selector FieldSelector, field any) {
	switch ptr := field.(type) {
	case pflag.Value:
		flags.Var(ptr, selector.Flag, selector.Description)
	case *string:
		flags.StringVar(ptr, selector.Flag, *ptr, selector.Description)
	case *bool:
		flags.BoolVar(ptr, selector.Flag, *ptr, selector.Description)
	case *int32:
		flags.Int32Var(ptr, selector.Flag, *ptr, selector.Description)
	case *int:
		flags.IntVar(ptr, selector.Flag, *ptr, selector.Description)
	case *[]string:
		flags.StringSliceVar(ptr, selector.Flag, *ptr, selector.Description)
	case *metav1.Duration:
		flags.DurationVar(&ptr.Duration, selector.Flag, ptr.Duration, selector.Description)
	}
}

// Load resolves the Environment. Subsequent calls return the cached result.
func (m *ConfigManager) Load(opts LoadOptions) (*v1alpha1.Environment, error) {
	if m.loaded {
		return m.Config, nil
	}

	if !opts.Silent {
		notify.Titlef(m.Writer, "⏳", "Load config...")
	}

	m.applyConfigFileFlag()

	err := m.readConfig(opts.Silent)
	if err != nil {
		return nil, err
	}

	if m.fileFound {
		m.Config.APIVersion = ""
		m.Config.Kind = ""
	}

	err = m.Viper.Unmarshal(m.Config, decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	m.applyFlagOverrides()

	err = m.validate()
	if err != nil {
		return nil, err
	}

	if !opts.Silent {
		notify.SuccessWithTimerf(m.Writer, opts.Timer, "config loaded")
	}

	m.loaded = true

	return m.Config, nil
}

func (m *ConfigManager) applyConfigFileFlag() {
	if m.command == nil {
		return
	}

	flag := m.command.Flag("config")
	if flag == nil || flag.Value.String() == "" {
		return
	}

	m.Viper.SetConfigFile(flag.Value.String())
}

func (m *ConfigManager) readConfig(silent bool) error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		if !silent {
			notify.Activityf(m.Writer, "using default config")
		}

		return nil
	}

	m.fileFound = true

	if !silent {
		notify.Activityf(m.Writer, "'%s' found", m.Viper.ConfigFileUsed())
	}

	return nil
}

// applyFlagOverrides copies every changed flag value over the loaded config.
func (m *ConfigManager) applyFlagOverrides() {
	if m.command == nil {
		return
	}

	flags := m.command.Flags()

	for _, selector := range m.selectors {
		if !flags.Changed(selector.Flag) {
			continue
		}

		src := reflect.ValueOf(selector.Selector(m.flagValues)).Elem()
		reflect.ValueOf(selector.Selector(m.Config)).Elem().Set(src)
	}
}

func (m *ConfigManager) validate() error {
	err := m.Config.Validate()
	if err == nil {
		return nil
	}

	var joined interface{ Unwrap() []error }

	problems := []error{err}
	if errors.As(err, &joined) {
		problems = joined.Unwrap()
	}

	lines := make([]string, 0, len(problems))
	for _, problem := range problems {
		lines = append(lines, problem.Error())
	}

	notify.Errorf(m.Writer, "%s", strings.Join(lines, "\n"))

	return fmt.Errorf("%w: %d error(s) found: %w", ErrInvalidConfig, len(problems), err)
}
