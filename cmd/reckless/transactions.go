package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/reckless-spender/internal/cli"
	"github.com/Veraticus/reckless-spender/internal/directory"
	"github.com/Veraticus/reckless-spender/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List and edit transactions",
	}

	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(reconcileCmd())
	cmd.AddCommand(categorizeCmd())

	return cmd
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE:  runTransactionsList,
	}

	cmd.Flags().Bool("uncategorized", false, "only show transactions without a category")
	cmd.Flags().Bool("unreconciled", false, "only show transactions not yet reconciled")

	return cmd
}

func runTransactionsList(cmd *cobra.Command, _ []string) error {
	uncategorized, _ := cmd.Flags().GetBool("uncategorized")
	unreconciled, _ := cmd.Flags().GetBool("unreconciled")

	c, err := newCore()
	if err != nil {
		return err
	}
	if err := c.load(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tREC")

	shown := 0
	for _, txn := range c.cache.List() {
		if uncategorized && txn.CategoryID != nil {
			continue
		}
		if unreconciled && txn.Reconciled {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			txn.ID,
			txn.Date.String(),
			txn.DisplayDescription(),
			txn.Amount.StringFixed(2),
			c.directory.DisplayName(txn.CategoryID),
			cli.FormatReconciled(txn.Reconciled),
		)
		shown++
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}

	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d of %d transactions", shown, c.cache.Len())))
	return nil
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <id>",
		Short: "Mark a transaction as reconciled",
		Args:  cobra.ExactArgs(1),
		RunE:  runReconcile,
	}

	cmd.Flags().Bool("unset", false, "clear the reconciled flag instead")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	id, err := parseTransactionID(args[0])
	if err != nil {
		return err
	}
	unset, _ := cmd.Flags().GetBool("unset")

	c, err := newCore()
	if err != nil {
		return err
	}
	if err := c.load(cmd.Context()); err != nil {
		return err
	}

	if err := c.coordinator.SubmitEdit(cmd.Context(), id, model.FieldReconciled, model.ReconciledValue(!unset)); err != nil {
		return err
	}

	state := "reconciled"
	if unset {
		state = "unreconciled"
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Transaction %d marked %s", id, state)))
	return nil
}

func categorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <id> <category>",
		Short: "Set a transaction's category",
		Long: `Set a transaction's category by id or by name. Use "none" to clear it.

Examples:
  reckless transactions categorize 42 Groceries
  reckless transactions categorize 42 7
  reckless transactions categorize 42 none`,
		Args: cobra.ExactArgs(2),
		RunE: runCategorize,
	}
}

func runCategorize(cmd *cobra.Command, args []string) error {
	id, err := parseTransactionID(args[0])
	if err != nil {
		return err
	}

	c, err := newCore()
	if err != nil {
		return err
	}
	if err := c.load(cmd.Context()); err != nil {
		return err
	}

	categoryID, err := resolveCategory(c.directory, args[1])
	if err != nil {
		return err
	}

	if err := c.coordinator.SubmitEdit(cmd.Context(), id, model.FieldCategory, model.CategoryValue(categoryID)); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Transaction %d categorized as %s", id, c.directory.DisplayName(categoryID))))
	return nil
}

func parseTransactionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", arg)
	}
	return id, nil
}

// resolveCategory accepts "none", a numeric id, or a case-insensitive name.
// Numeric ids are passed through unchecked so the store has the final say.
func resolveCategory(dir *directory.Directory, arg string) (*int64, error) {
	if strings.EqualFold(arg, "none") {
		return nil, nil
	}
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return &id, nil
	}
	for _, cat := range dir.List() {
		if strings.EqualFold(cat.Name, arg) {
			return model.IDPtr(cat.ID), nil
		}
	}
	return nil, fmt.Errorf("unknown category %q", arg)
}
