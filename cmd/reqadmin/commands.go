package main

import (
	"fmt"
	"path/filepath"

	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/bitfantasy/nimo-req/internal/requirement/service"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed the default requirement types",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := repository.AutoMigrate(a.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			seed, _ := cmd.Flags().GetBool("seed")
			if seed {
				if err := a.services.Type.SeedDefaults(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete")
			return nil
		},
	}

	cmd.Flags().Bool("seed", true, "Insert the default requirement types")

	return cmd
}

func typesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage requirement types",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List requirement types",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			types, err := a.services.Type.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range types {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", t.ID, t.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [name]",
		Short: "Register a requirement type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.services.Type.Add(cmd.Context(), &service.CreateTypeRequest{Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added type %d\t%s\n", t.ID, t.Name)
			return nil
		},
	})

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all requirements to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			f, filename, err := a.services.Export.Export(cmd.Context())
			if err != nil {
				return err
			}
			defer f.Close()

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = filename
			} else if filepath.Ext(out) == "" {
				out = filepath.Join(out, filename)
			}
			if err := f.SaveAs(out); err != nil {
				return fmt.Errorf("save workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "", "Output file or directory (default ./requirements_YYYYMMDD.xlsx)")

	return cmd
}
