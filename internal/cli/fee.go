package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qs3c/ipl_server/internal/pkg/billing"
)

func newGenerateCmd(svc func() *Services) *cobra.Command {
	var month, rates string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate fees for a month",
		Long:  "Creates one unpaid fee per resident for the month. Residents that already have an active fee are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMonth(month); err != nil {
				return err
			}
			table, err := loadRates(rates, svc().DefaultRates)
			if err != nil {
				return err
			}
			resp, err := svc().Fees.GenerateMonthlyFees(cmd.Context(), month, table)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Billing month (YYYY-MM)")
	cmd.Flags().StringVarP(&rates, "rates", "r", "", `Rate table as JSON or @file; defaults to billing.default_rates`)
	cmd.MarkFlagRequired("month")
	return cmd
}

func newRegenerateCmd(svc func() *Services) *cobra.Command {
	var month, rates, admin string

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate unpaid fees of a month with new rates",
		Long:  "Supersedes unpaid, pending and failed fees of the month and creates new versions. Paid and settled fees are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMonth(month); err != nil {
				return err
			}
			if rates == "" {
				return fmt.Errorf("--rates is required")
			}
			table, err := loadRates(rates, nil)
			if err != nil {
				return err
			}
			resp, err := svc().Fees.RegenerateFeesForMonth(cmd.Context(), month, table, admin)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Billing month (YYYY-MM)")
	cmd.Flags().StringVarP(&rates, "rates", "r", "", "Rate table as JSON or @file")
	cmd.Flags().StringVar(&admin, "admin", "", "Admin recorded in the audit log")
	cmd.MarkFlagRequired("month")
	return cmd
}

func newRollbackCmd(svc func() *Services) *cobra.Command {
	var month, admin string

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the latest regeneration of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMonth(month); err != nil {
				return err
			}
			resp, err := svc().Fees.RollbackRegeneration(cmd.Context(), month, admin)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("rollback not applied: %s", resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Billing month (YYYY-MM)")
	cmd.Flags().StringVar(&admin, "admin", "", "Admin recorded in the audit log")
	cmd.MarkFlagRequired("month")
	return cmd
}

func newHistoryCmd(svc func() *Services) *cobra.Command {
	var (
		month string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show regeneration history of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMonth(month); err != nil {
				return err
			}
			list := svc().Ledger.History
			if all {
				list = svc().Ledger.AllActions
			}
			entries, err := list(month)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Billing month (YYYY-MM)")
	cmd.Flags().BoolVar(&all, "all", false, "Include rollback entries")
	cmd.MarkFlagRequired("month")
	return cmd
}

func newVersionsCmd(svc func() *Services) *cobra.Command {
	return &cobra.Command{
		Use:   "versions [fee-id]",
		Short: "Show every version of a fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := svc().Fees.GetFeeVersions(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
}

func checkMonth(month string) error {
	if !billing.ValidMonth(month) {
		return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	return nil
}

// loadRates 解析 JSON 或 @file 形式的费率表，为空时用 fallback
func loadRates(arg string, fallback billing.RateTable) (billing.RateTable, error) {
	if arg == "" {
		if len(fallback) == 0 {
			return nil, fmt.Errorf("no rates given and billing.default_rates is empty")
		}
		return fallback, nil
	}

	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read rates file: %w", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var table billing.RateTable
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("parse rates: %w", err)
	}
	return table, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
