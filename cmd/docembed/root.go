package main

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docembed/internal/config"
	"docembed/internal/embedding"
	_ "docembed/internal/embedding/providers"
	"docembed/internal/logging"
	"docembed/internal/service"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfgFile  string
	logLevel string

	cfg     *config.AppConfig
	cfgPath string
	logger  *slog.Logger
	svc     *service.EmbedService
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "docembed",
		Short: "Embed documents with pluggable embedding providers",
		Long: `docembed resolves an embedding provider by module and type name and
returns one vector per document.

Built-in modules: openai, huggingface, ollama, tfidf. Run "docembed providers"
to list every type and whether it can be constructed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./config.yaml, then ~/.config/docembed/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")

	root.AddCommand(
		newEmbedCmd(a),
		newProvidersCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newTUICmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	_ = godotenv.Load()

	var err error
	if a.cfgFile == "" {
		a.cfg, a.cfgPath, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgFile)
		a.cfgPath = a.cfgFile
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := a.cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger, err = logging.New(cmd.ErrOrStderr(), level, a.cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(a.logger)
	a.logger.Debug("Loaded config", "path", a.cfgPath)

	a.svc = service.New(embedding.Default(), service.Config{
		Provider:   a.cfg.Provider,
		Extensions: a.cfg.Watch.Extensions,
	}, a.logger)
	return nil
}

// providerFlags are shared by commands that embed.
type providerFlags struct {
	module  string
	typ     string
	options []string
	async   bool
}

func (p *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.module, "module", "", "provider module (default from config)")
	cmd.Flags().StringVar(&p.typ, "type", "", "provider type within the module (default from config)")
	cmd.Flags().StringArrayVarP(&p.options, "option", "o", nil, "provider option as key=value (repeatable)")
	cmd.Flags().BoolVar(&p.async, "async", false, "use the asynchronous invoker")
}

func (p *providerFlags) request() (service.Request, error) {
	opts, err := embedding.ParseOptions(p.options)
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{Module: p.module, Type: p.typ, Options: opts, Async: p.async}, nil
}
