// Command metroctl tareas de mantenimiento del back office: barrido de facturas
// vencidas, estadísticas en consola y tokens de desarrollo.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/audit"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/store"
	"github.com/jhoicas/metrologia-api/pkg/config"
	"github.com/jhoicas/metrologia-api/pkg/jwt"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:           "metroctl",
	Short:         "Herramientas de mantenimiento de la API de metrología",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "salida JSON")
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(tokenCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env configuración, logger y almacén abiertos para un comando.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	repos *store.Repositories
	sink  *audit.AsyncSink
}

// withEnv abre el almacén y un sink de auditoría que se vacía antes de devolver.
func withEnv(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("metroctl")
	repos, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.Close()

	sink := audit.NewAsyncSink(audit.NewRepositoryWriter(repos.Activity), cfg.Audit.BufferSize, log, nil)
	sinkCtx, stop := context.WithCancel(ctx)
	go func() { _ = sink.Run(sinkCtx) }()
	defer func() {
		stop()
		<-sink.Done()
	}()

	return fn(ctx, &env{cfg: cfg, log: log, repos: repos, sink: sink})
}

// ── sweep-overdue ──

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Marca como vencidas las facturas pendientes con vencimiento pasado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				sweeper := billing.NewOverdueSweeper(e.repos.Invoices, e.sink, nil, e.log)
				res, err := sweeper.Sweep(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "facturas marcadas como vencidas: %d\n", res.Updated)
				for _, id := range res.InvoiceIDs {
					fmt.Fprintln(cmd.OutOrStdout(), "  -", id)
				}
				return nil
			})
		},
	}
}

// ── stats ──

func statsCmd() *cobra.Command {
	stats := &cobra.Command{Use: "stats", Short: "Estadísticas de controles y facturación"}
	stats.AddCommand(&cobra.Command{
		Use:   "controls",
		Short: "Controles por estado y resultado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				uc := inspection.NewControlUseCase(
					e.repos.Tx, e.repos.Controls, e.repos.Companies, e.repos.Agents, e.repos.Instruments, e.sink, nil,
				)
				res, err := uc.Stats(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), res)
				}
				renderControlStats(cmd.OutOrStdout(), res)
				return nil
			})
		},
	})
	stats.AddCommand(&cobra.Command{
		Use:   "invoices",
		Short: "Facturas por estado e importes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				uc := billing.NewInvoiceUseCase(
					e.repos.Tx, e.repos.Invoices, e.repos.Companies, e.repos.Controls, e.sink, nil, e.cfg.Billing.DefaultTaxRate,
				)
				res, err := uc.Stats(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), res)
				}
				renderInvoiceStats(cmd.OutOrStdout(), res, e.cfg.Billing.Currency)
				return nil
			})
		},
	})
	return stats
}

func renderControlStats(w io.Writer, s *dto.ControlStatsResponse) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Controles · " + s.DateLabel)
	tw.AppendHeader(table.Row{"Grupo", "Valor", "Cantidad"})
	for _, k := range sortedKeys(s.ByStatus) {
		tw.AppendRow(table.Row{"estado", k, s.ByStatus[k]})
	}
	tw.AppendSeparator()
	for _, k := range sortedKeys(s.ByResult) {
		tw.AppendRow(table.Row{"resultado", k, s.ByResult[k]})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"planificados", "este mes", s.ThisMonth})
	tw.AppendFooter(table.Row{"", "total", s.Total})
	tw.Render()
}

func renderInvoiceStats(w io.Writer, s *dto.InvoiceStatsResponse, currency string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Facturación")
	tw.AppendHeader(table.Row{"Estado", "Facturas"})
	for _, k := range sortedKeys(s.ByStatus) {
		tw.AppendRow(table.Row{k, s.ByStatus[k]})
	}
	tw.AppendFooter(table.Row{"total", s.Total})
	tw.Render()

	amounts := table.NewWriter()
	amounts.SetOutputMirror(w)
	amounts.AppendHeader(table.Row{"Concepto", "Importe " + currency})
	amounts.AppendRow(table.Row{"facturado", s.TotalBilled.StringFixed(2)})
	amounts.AppendRow(table.Row{"cobrado", s.TotalCollected.StringFixed(2)})
	amounts.AppendRow(table.Row{"pendiente", s.TotalPending.StringFixed(2)})
	amounts.AppendRow(table.Row{"vencido", s.TotalOverdue.StringFixed(2)})
	amounts.Render()
}

// ── token ──

func tokenCmd() *cobra.Command {
	var userID, agentID, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Genera un JWT de desarrollo firmado con JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !jwt.IsKnownRole(role) {
				return fmt.Errorf("rol desconocido %q (admin | inspector | accountant)", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, agentID, role, cfg.JWT.Issuer, int(ttl.Minutes()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "dev-user", "id del usuario")
	cmd.Flags().StringVar(&agentID, "agent", "", "id del agente (rol inspector)")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "admin | inspector | accountant")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "vigencia del token")
	return cmd
}

// ── helpers ──

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
