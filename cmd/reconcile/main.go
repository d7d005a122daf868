package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

// options parámetros de la corrida tomados de la línea de comandos.
type options struct {
	Business string
	Product  string
	DryRun   bool
	JSON     bool
}

// parseFlags lee los flags. -dry-run (por defecto true) y -apply se excluyen: pedir ambos es un error.
func parseFlags(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(errOut)
	business := fs.String("business", "", "ID del negocio a reconciliar (requerido)")
	product := fs.String("product", "", "limitar a un producto")
	dryRun := fs.Bool("dry-run", true, "solo reportar las diferencias")
	apply := fs.Bool("apply", false, "persistir los cambios (implica -dry-run=false)")
	asJSON := fs.Bool("json", false, "imprimir el reporte como JSON")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	explicitDryRun := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "dry-run" {
			explicitDryRun = true
		}
	})
	if *apply && explicitDryRun && *dryRun {
		return options{}, errors.New("-dry-run=true y -apply son excluyentes")
	}
	if *business == "" {
		return options{}, errors.New("falta -business")
	}
	return options{
		Business: *business,
		Product:  *product,
		DryRun:   *dryRun && !*apply,
		JSON:     *asJSON,
	}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "reconcile"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	policy, err := inventory.NewPolicy(cfg.Ledger.ConsumptionOrder, cfg.Ledger.PairedApprovalPolicy, cfg.Ledger.ApprovalCostThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("política del ledger")
	}
	uc := inventory.NewReconcileUseCase(inventory.Deps{
		Tx:      postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		Repos:   postgres.NewRepositories(pool),
		Policy:  policy,
		Log:     log,
		Metrics: metrics.NewLedgerMetrics(prometheus.NewRegistry()),
	}, cfg.Ledger.ReconcileWorkers)

	report, runErr := uc.Run(ctx, inventory.ReconcileOptions{
		BusinessID: opts.Business,
		ProductID:  opts.Product,
		DryRun:     opts.DryRun,
	})
	if report == nil {
		log.Error().Err(runErr).Msg("reconciliación no ejecutada")
		pool.Close()
		os.Exit(1)
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Error().Err(err).Msg("serializar reporte")
		}
	} else {
		printReport(os.Stdout, report)
	}

	if report.Errored > 0 {
		pool.Close()
		os.Exit(1)
	}
}

func printReport(w io.Writer, r *inventory.ReconcileReport) {
	mode := "APPLY"
	if r.DryRun {
		mode = "DRY-RUN"
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCTO\tLOTE\tANTES\tDESPUÉS\tCAMBIA")
	for _, d := range r.Diffs {
		mark := ""
		if d.Changed {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ProductID, d.BatchID, d.Before, d.After, mark)
	}
	_ = tw.Flush()

	for _, wn := range r.Warnings {
		fmt.Fprintf(w, "ADVERTENCIA %s\n", wn)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "ERROR producto=%s: %s\n", f.ProductID, f.Error)
	}
	fmt.Fprintf(w, "%s cambiados=%d sin_cambio=%d con_error=%d\n", mode, r.Changed, r.Skipped, r.Errored)
}
