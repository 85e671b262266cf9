package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/samba/internal/repository"
)

func newPlansCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect the plan journal",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recorded plans",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withPlans(cmd.Context(), a.listPlans)
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Print a recorded plan",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withPlans(cmd.Context(), func(ctx context.Context, repo repository.PlanRepository) error {
					plan, err := repo.FindByID(ctx, id)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(a.out, plan.Document)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Remove a recorded plan",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.withPlans(cmd.Context(), func(ctx context.Context, repo repository.PlanRepository) error {
					if err := repo.DeleteByID(ctx, id); err != nil {
						return err
					}
					_, err := fmt.Fprintf(a.out, "deleted plan %d\n", id)
					return err
				})
			},
		},
	)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("invalid plan ID %q", s)
	}
	return id, nil
}

func (a *app) withPlans(ctx context.Context, fn func(context.Context, repository.PlanRepository) error) error {
	db, err := a.cfg.InitializeDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPlanRepository(db)
	defer repo.Close()
	return fn(ctx, repo)
}

func (a *app) listPlans(ctx context.Context, repo repository.PlanRepository) error {
	plans, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENVIRONMENT\tVM\tVMID\tFQDN\tCREATED")
	for _, p := range plans {
		fqdn := p.FQDN
		if fqdn == "" {
			fqdn = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.Environment, p.VMName, p.VMID, fqdn, p.CreatedAt)
	}
	return tw.Flush()
}
