package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"seatsathi-workers/pkg/registry"
)

func newRegistryCmd(root *rootOptions) *cobra.Command {
	var path string

	load := func() (*registry.ActivityRegistry, string, error) {
		p := path
		if p == "" {
			cfg, err := root.loadConfig()
			if err != nil {
				return nil, "", err
			}
			p = cfg.Registry.Path
		}
		reg, err := registry.LoadRegistry(p)
		return reg, p, err
	}

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and maintain the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "registry", "", "registry file (default: registry.path from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := load()
			if err != nil {
				return err
			}
			if root.asJSON {
				return writeJSON(cmd.OutOrStdout(), reg.Activities)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTASK TYPE\tSTATUS\tTIMEOUT\tRETRIES")
			for _, a := range reg.Activities {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.ID, a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the registry for missing fields and duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, p, err := load()
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d activities OK\n", p, len(reg.Activities))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Update one field of an activity (status, version, displayName, description, timeout, retries)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, p, err := load()
			if err != nil {
				return err
			}
			if err := reg.Update(args[0], args[1], args[2]); err != nil {
				return err
			}
			if err := reg.Save(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s.%s in %s\n", args[0], args[1], p)
			return nil
		},
	})

	var inputFile string
	check := &cobra.Command{
		Use:   "check <task-type>",
		Short: "Validate job variables against a task type's input schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := load()
			if err != nil {
				return err
			}

			in, err := openInput(inputFile)
			if err != nil {
				return err
			}
			defer in.Close()

			var vars map[string]interface{}
			if err := json.NewDecoder(in).Decode(&vars); err != nil {
				return fmt.Errorf("parse %s: %w", inputFile, err)
			}

			result, err := reg.ValidateInput(args[0], vars)
			if err != nil {
				return err
			}
			if root.asJSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				for _, msg := range result.GetErrorMessages() {
					fmt.Fprintln(cmd.OutOrStdout(), msg)
				}
			}
			if !result.Valid {
				return fmt.Errorf("%s: %d validation error(s)", args[0], len(result.Errors))
			}
			if !root.asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
			}
			return nil
		},
	}
	check.Flags().StringVarP(&inputFile, "input", "i", "-", "JSON file of job variables, or - for stdin")
	cmd.AddCommand(check)

	return cmd
}
