package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/cashflow"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/money"
	"github.com/dvloznov/orchestra-ai/internal/reportstore"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/spf13/cobra"
)

func printMetrics(w io.Writer, m domain.Metrics) {
	fmt.Fprintf(w, "Balance:      %s\n", money.USD(m.Balance))
	fmt.Fprintf(w, "Monthly burn: %s\n", money.USD(m.MonthlyBurn))
	fmt.Fprintf(w, "Runway:       %s months\n", money.Months(m.Runway))
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show headline metrics and the executive summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			m := a.session.Metrics()

			printMetrics(out, m)
			fmt.Fprintln(out)
			fmt.Fprintln(out, a.advisor.ExecutiveSummary(cmd.Context(), m, a.session.View().Alerts))

			actions := a.advisor.StrategicActions(cmd.Context(), a.session.View().Transactions)
			if len(actions) > 0 {
				fmt.Fprintln(out, "\nRecommended actions:")
				for _, act := range actions {
					fmt.Fprintf(out, "  [%s] %s (%s)\n", act.Type, act.Action, act.Impact)
				}
			}
			return nil
		},
	}
}

func transactionsCmd() *cobra.Command {
	var (
		query   string
		analyze bool
	)

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions, optionally after AI categorization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			if analyze {
				txs := a.session.View().Transactions
				if len(txs) > advisor.MaxAnalyzeBatch {
					txs = txs[:advisor.MaxAnalyzeBatch]
				}
				n := a.session.ApplyCategorization(a.advisor.AnalyzeTransactions(cmd.Context(), txs))
				fmt.Fprintf(cmd.OutOrStdout(), "Categorized %d of %d transactions\n\n", n, len(txs))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tAMOUNT\tRISK\t")
			for _, t := range a.session.View().Transactions {
				if !t.Matches(query) {
					continue
				}
				risk := "-"
				if t.RiskScore != nil {
					risk = fmt.Sprintf("%d", *t.RiskScore)
				}
				if t.IsAnomaly {
					risk += " !"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", t.Date, t.Description, t.Category, money.USD(t.Amount), risk)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by description or category")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "categorize and risk-score the latest transactions first")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask the financial assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			txs := a.session.View().Transactions
			if len(txs) > advisor.MaxChatTxs {
				txs = txs[:advisor.MaxChatTxs]
			}
			reply := a.advisor.Chat(cmd.Context(), strings.Join(args, " "), advisor.ChatContext{
				Metrics:            a.session.Metrics(),
				RecentTransactions: txs,
			})
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func forecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <scenario>",
		Short: "Project cashflow under a what-if scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := strings.TrimSpace(strings.Join(args, " "))
			if scenario == "" {
				return fmt.Errorf("scenario must not be empty")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			history := cashflow.History(a.session.View().Cashflow)
			f := a.advisor.ScenarioForecast(cmd.Context(), history, scenario)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, f.Explanation)

			projected := 0
			for _, p := range f.Data {
				if !p.Projected {
					continue
				}
				projected++
				fmt.Fprintf(out, "  %-8s income %s  expenses %s  balance %s\n",
					p.Month, money.USD(p.Income), money.USD(p.Expenses), money.USD(p.Balance))
			}
			if projected == 0 && len(history) > 0 {
				last := history[len(history)-1]
				fmt.Fprintf(out, "  No projection; last balance %s on %s\n", money.USD(last.Balance), last.Month)
			}
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Draft an investor update",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			recent := cashflow.Recent(a.session.View().Cashflow, 3)
			report := a.advisor.InvestorReport(cmd.Context(), a.session.Metrics(), recent)
			fmt.Fprintln(cmd.OutOrStdout(), report)

			if !archive {
				return nil
			}
			if a.cfg.ReportBucket == "" {
				return fmt.Errorf("--archive requires REPORT_BUCKET")
			}

			writer, err := reportstore.NewGCSWriter(cmd.Context(), a.cfg.CredentialsFile)
			if err != nil {
				return err
			}
			defer writer.Close()

			uri, err := reportstore.New(writer, a.cfg.ReportBucket).Save(cmd.Context(), report, time.Now())
			if err != nil {
				return fmt.Errorf("archive report: %w", err)
			}
			bucket, object, err := reportstore.SplitURI(uri)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Archived to bucket %s as %s\n", bucket, object)
			return nil
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "also store the report in REPORT_BUCKET")
	return cmd
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the guided crisis-to-resolution tour",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s := a.session

			state, err := s.Login(session.ModeDemo)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "== %s ==\n", state.Narrative)
			printMetrics(out, s.Metrics())
			for _, al := range s.View().Alerts {
				if !al.Resolved {
					fmt.Fprintf(out, "  [%s] %s\n", al.Severity, al.Message)
				}
			}

			next, _ := s.DismissWelcome()
			fmt.Fprintf(out, "\n== %s ==\n", next)
			fmt.Fprintln(out, a.advisor.ExecutiveSummary(cmd.Context(), s.Metrics(), s.View().Alerts))

			next, _ = s.OpenView(session.ViewActionItems)
			fmt.Fprintf(out, "\n== %s ==\n", next)

			for _, al := range s.View().Alerts {
				if al.Severity == domain.SeverityHigh && !al.Resolved {
					fmt.Fprintf(out, "Resolving: %s\n", al.Message)
					if !s.ResolveAlert(al.ID) {
						a.log.Warn().Str("alert_id", al.ID).Msg("Alert was not resolved")
					}
				}
			}

			fmt.Fprintf(out, "\n== %s ==\n", s.NarrativeState())
			printMetrics(out, s.Metrics())

			history := make([]string, 0, len(s.NarrativeHistory()))
			for _, st := range s.NarrativeHistory() {
				history = append(history, string(st))
			}
			fmt.Fprintf(out, "\nTour: %s\n", strings.Join(history, " -> "))
			return nil
		},
	}
}
