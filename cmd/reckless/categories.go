package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/reckless-spender/internal/cli"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE:  runCategoriesList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom category",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCategoriesAdd,
	})

	return cmd
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	client, err := newStoreClient()
	if err != nil {
		return err
	}
	cats, err := client.ListCategories(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCUSTOM")
	for _, cat := range cats {
		custom := ""
		if cat.IsCustom {
			custom = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, cat.Name, custom)
	}
	return w.Flush()
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("category name cannot be empty")
	}

	client, err := newStoreClient()
	if err != nil {
		return err
	}
	cat, err := client.CreateCategory(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Category %q (id %d)", cat.Name, cat.ID)))
	return nil
}
