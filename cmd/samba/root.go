package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/samba/assets"
	"github.com/jbweber/homelab/samba/internal/compose"
	"github.com/jbweber/homelab/samba/internal/config"
	"github.com/jbweber/homelab/samba/internal/document"
	"github.com/jbweber/homelab/samba/internal/domain"
)

// app carries what every command needs
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	out       io.Writer
	errOut    io.Writer
	lookupEnv func(string) (string, bool)
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		cfg:       config.NewConfig(),
		logger:    slog.New(slog.NewTextHandler(errOut, nil)),
		out:       out,
		errOut:    errOut,
		lookupEnv: os.LookupEnv,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "samba",
		Short: "Validate and compose a samba file-server deployment",
		Long: `samba turns a deployment description (YAML, JSON with comments, or HCL)
into the Proxmox virtual machine, cloud-init snippet and DNS record that
realise a samba file server.

EXAMPLES:
  samba validate Pulumi.dev.yaml --key config.samba:config
  samba plan samba.hcl --env prod --save
  samba serve samba.yaml --port 8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return &usageError{err: err}
			}
			a.cfg.ResolveEnvironment(cmd.Flags().Changed("env"), a.lookupEnv)
			a.logger = a.cfg.NewLogger(a.errOut)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.DBPath, "db", a.cfg.DBPath, "path of the plan journal database")
	flags.StringVar(&a.cfg.Environment, "env", a.cfg.Environment, "deployment environment (default from "+config.EnvironmentVar+")")
	flags.StringVar(&a.cfg.TemplatePath, "template", "", "boot-config template to use instead of the embedded one")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: text or json")

	root.AddCommand(
		newValidateCmd(a),
		newPlanCmd(a),
		newServeCmd(a),
		newPlansCmd(a),
		newDBCmd(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s accepts %d argument(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// loadComponent reads, selects and validates the deployment description
func (a *app) loadComponent(path, key string) (*domain.ComponentConfig, error) {
	raw, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	raw, err = document.Select(raw, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg, err := domain.Validate(raw)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("validated configuration", "path", path, "vm", cfg.VM.Name)
	return cfg, nil
}

// composer builds a Composer from the tool settings
func (a *app) composer(enableDNS bool) (*compose.Composer, error) {
	tmpl, err := a.cfg.LoadTemplate(assets.CloudConfig)
	if err != nil {
		return nil, err
	}
	return compose.NewComposer(tmpl, compose.Options{
		Environment: a.cfg.Environment,
		EnableDNS:   enableDNS,
		LookupEnv:   a.lookupEnv,
		Logger:      a.logger,
	}), nil
}
