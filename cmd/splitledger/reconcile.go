package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/cli"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
)

var flagPersist bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Fix expenses whose contributions do not add up to the total",
	Long: "Drops contributions from payers who are not participants and spreads " +
		"any remaining shortfall or excess. Without --persist the fixes are only shown.",
	RunE: runReconcile,
}

func init() {
	addRangeFlags(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&flagPersist, "persist", false, "Save the fixed expenses")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	from, to, err := parseRange()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	category, err := resolveCategory(ctx, store, flagCategory)
	if err != nil {
		return err
	}

	records, err := store.ListExpenses(ctx, storage.ExpenseFilter{
		CategoryID: category.ID,
		From:       from,
		To:         to,
		Type:       models.TypeExpense,
	})
	if err != nil {
		return err
	}

	participants, err := store.ListParticipants(ctx)
	if err != nil {
		return err
	}
	registry := calculator.NewRegistry(participants)

	currency := cfg.Ledger.Currency
	reconciler := reconcile.New(
		reconcile.WithCurrency(currency),
		reconcile.WithDefaultPayer(cfg.Ledger.DefaultPayer),
	)
	batch, err := service.NewExpenseService(store, reconciler, currency).ReconcileRecords(ctx, records)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RECONCILE %s  %s", strings.ToUpper(category.Name), cli.FormatRange(from, to))))
	fmt.Println()

	if len(batch.Fixed) == 0 {
		fmt.Printf("  %d expenses checked, nothing to fix.\n", len(records))
	} else {
		rows := make([][]string, 0, len(batch.Fixed))
		for _, res := range batch.Fixed {
			rows = append(rows, []string{
				cli.Truncate(res.Record.Title, 32),
				cli.FormatDate(res.Record.Date),
				currency.Format(res.Record.Total),
				res.Before.String(),
				formatContributions(res.Record, registry, currency.Places),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Fixed (%d of %d)", len(batch.Fixed), len(records)),
			Headers: []string{"Expense", "Date", "Total", "Was", "Contributions"},
			Rows:    rows,
		}))
	}

	var notes []string
	for _, w := range batch.Warnings {
		notes = append(notes, fmt.Sprintf("%s: %v", w.RecordID, w.Err))
	}
	if out := cli.RenderWarnings("Not reconcilable", notes); out != "" {
		fmt.Println()
		fmt.Print(out)
	}

	if len(batch.Fixed) > 0 {
		fmt.Println()
		if !flagPersist {
			fmt.Println(cli.RenderMuted("  Dry run. Re-run with --persist to save."))
			return nil
		}
		for _, res := range batch.Fixed {
			if err := store.UpdateExpense(ctx, res.Record); err != nil {
				return fmt.Errorf("save %s: %w", res.Record.ID, err)
			}
		}
		fmt.Printf("  Saved %d expenses.\n", len(batch.Fixed))
	}
	fmt.Println()
	return nil
}

func formatContributions(rec *models.ExpenseRecord, registry calculator.Registry, places int32) string {
	parts := make([]string, len(rec.Contributions))
	for i, c := range rec.Contributions {
		name := cli.Truncate(c.PayerID, 8)
		if p, err := registry.Lookup(c.PayerID); err == nil {
			name = p.Name
		}
		parts[i] = fmt.Sprintf("%s %s", name, c.Amount.StringFixed(places))
	}
	return strings.Join(parts, ", ")
}
