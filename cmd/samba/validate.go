package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a deployment description against the configuration schema",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadComponent(args[0], key)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: valid (vm %s, vmid %d, %d share(s))\n", args[0], cfg.VM.Name, cfg.VM.VMID, len(cfg.Smb.Shares))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "dotted path of the configuration object inside the file")
	return cmd
}
