package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/samba/internal/compose"
	"github.com/jbweber/homelab/samba/internal/domain"
	"github.com/jbweber/homelab/samba/internal/repository"
)

type planOptions struct {
	key    string
	noDNS  bool
	save   bool
	output string
}

func newPlanCmd(a *app) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Compose the resources for a deployment description and print them",
		Long: `plan validates FILE, resolves its secret references from the environment
and prints the composed providers, resources and outputs as JSON. Sensitive
values are always printed as [sensitive].`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.key, "key", "", "dotted path of the configuration object inside the file")
	cmd.Flags().BoolVar(&opts.noDNS, "no-dns", false, "skip the DNS record and its provider")
	cmd.Flags().BoolVar(&opts.save, "save", false, "record the plan in the plan journal")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the plan to this file instead of stdout")
	return cmd
}

func (a *app) composePlan(path, key string, enableDNS bool) (*domain.ComponentConfig, *compose.Plan, error) {
	cfg, err := a.loadComponent(path, key)
	if err != nil {
		return nil, nil, err
	}
	composer, err := a.composer(enableDNS)
	if err != nil {
		return nil, nil, err
	}
	plan, err := composer.Compose(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, plan, nil
}

func (a *app) runPlan(ctx context.Context, path string, opts *planOptions) error {
	cfg, plan, err := a.composePlan(path, opts.key, !opts.noDNS)
	if err != nil {
		return err
	}

	doc, err := plan.RedactedJSON()
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	if opts.save {
		record, err := a.savePlan(ctx, cfg, plan, doc)
		if err != nil {
			return err
		}
		a.logger.Info("saved plan", "id", record.ID, "vm", record.VMName, "environment", record.Environment)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, append(doc, '\n'), 0o600); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintf(a.out, "%s\n", doc)
	return err
}

func (a *app) savePlan(ctx context.Context, cfg *domain.ComponentConfig, plan *compose.Plan, doc []byte) (domain.PlanRecord, error) {
	db, err := a.cfg.InitializeDatabase()
	if err != nil {
		return domain.PlanRecord{}, err
	}
	defer db.Close()

	repo := repository.NewPlanRepository(db)
	defer repo.Close()

	record := domain.PlanRecord{
		Environment: plan.Environment,
		VMName:      cfg.VM.Name,
		VMID:        cfg.VM.VMID,
		Document:    string(doc),
	}
	if fqdn, ok := plan.Outputs[compose.OutputFQDN]; ok {
		record.FQDN, _ = fqdn.Value.(string)
	}
	saved, err := repo.Save(ctx, record)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("failed to save plan: %w", err)
	}
	return saved, nil
}
