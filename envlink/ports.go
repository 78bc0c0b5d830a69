package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itohio/envlink/pkg/uart"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := uart.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
				return nil
			}
			for _, p := range ports {
				if p.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Description)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), p.Name)
				}
			}
			return nil
		},
	}
}
