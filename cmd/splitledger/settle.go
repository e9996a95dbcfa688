package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/cli"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	flagCategory       string
	flagFrom           string
	flagTo             string
	flagIgnoreRecorded bool
)

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Show balances and the transfers that settle a category",
	RunE:  runSettle,
}

func init() {
	addRangeFlags(settleCmd)
	settleCmd.Flags().BoolVar(&flagIgnoreRecorded, "ignore-recorded", false, "Ignore recorded settlement payments")
	rootCmd.AddCommand(settleCmd)
}

// addRangeFlags registers the category and date range flags shared by the
// ledger commands.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagCategory, "category", "g", "", "Category ID or name (required)")
	cmd.Flags().StringVar(&flagFrom, "from", "", "First day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flagTo, "to", "", "Last day, exclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("category")
}

func parseRange() (int64, int64, error) {
	from, err := cli.ParseDate(flagFrom)
	if err != nil {
		return 0, 0, err
	}
	to, err := cli.ParseDate(flagTo)
	if err != nil {
		return 0, 0, err
	}
	if from != 0 && to != 0 && to <= from {
		return 0, 0, errors.New("empty date range: --to must be after --from")
	}
	return from, to, nil
}

// resolveCategory finds a category by ID, then by case-insensitive name.
func resolveCategory(ctx context.Context, store storage.Store, ref string) (*models.Category, error) {
	c, err := store.GetCategory(ctx, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", ref, storage.ErrNotFound)
}

func runSettle(cmd *cobra.Command, _ []string) error {
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

	currency := cfg.Ledger.Currency
	report, err := service.NewSettlementService(store, currency).Compute(ctx, category.ID, from, to, flagIgnoreRecorded)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", strings.ToUpper(category.Name), cli.FormatRange(from, to))))
	fmt.Println()

	if report.Sheet.Records == 0 {
		fmt.Println("  No expenses in the selected range.")
		return nil
	}

	members := report.Sheet.Members()
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Net.GreaterThan(members[j].Net)
	})
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			displayName(m.Name, m.ParticipantID),
			m.Paid.StringFixed(currency.Places),
			m.Owed.StringFixed(currency.Places),
			cli.RenderNet(cli.FormatNet(currency, m.Net)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Balances (%d expenses)", report.Sheet.Records),
		Headers: []string{"Participant", "Paid", "Owed", "Net"},
		Rows:    rows,
	}))
	fmt.Println()

	if len(report.Plan.Transfers) == 0 {
		fmt.Println("  Everyone is settled up.")
	} else {
		rows = rows[:0]
		for _, t := range report.Plan.Transfers {
			rows = append(rows, []string{
				participantName(report, t.From),
				participantName(report, t.To),
				currency.Format(t.Amount),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Transfers",
			Headers: []string{"From", "To", "Amount"},
			Rows:    rows,
		}))
	}

	var notes []string
	if !report.Plan.Imbalance.IsZero() {
		notes = append(notes, fmt.Sprintf("net balances are off by %s (split residue %s)",
			currency.Format(report.Plan.Imbalance), currency.Format(report.Sheet.TotalResidue())))
	}
	if report.Plan.Inexact {
		notes = append(notes, "settlement may be incomplete")
	}
	for _, w := range report.Sheet.Warnings {
		notes = append(notes, w.Message)
	}
	if out := cli.RenderWarnings("Warnings", notes); out != "" {
		fmt.Println()
		fmt.Print(out)
	}
	fmt.Println()
	return nil
}

func participantName(report *service.Report, id string) string {
	p, err := report.Registry.Lookup(id)
	if err != nil {
		return id
	}
	return displayName(p.Name, id)
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
