package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opscart/k8s-usage-reporter/pkg/config"
	"github.com/opscart/k8s-usage-reporter/pkg/datasource"
	"github.com/opscart/k8s-usage-reporter/pkg/metrics"
	"github.com/opscart/k8s-usage-reporter/pkg/output"
	"github.com/opscart/k8s-usage-reporter/pkg/reporter"
	"github.com/opscart/k8s-usage-reporter/pkg/scanner"
	"github.com/opscart/k8s-usage-reporter/pkg/storage"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string

	// Scan flags
	clusterID    string
	region       string
	source       string
	namespaces   []string
	excludes     []string
	concurrency  int
	sinkKind     string
	outputDir    string
	outputFormat string
	printFormat  string

	// History flags
	historyLimit int
	showFormat   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "usage-report",
		Short: "Kubernetes workload usage reporter",
		Long: `Sample CPU and memory usage of every namespace, group instances into workloads,
and produce a single report document with per-workload replica counts and totals.`,
		SilenceUsage: true,
		RunE:         runScan,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $USAGE_CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().StringVar(&clusterID, "cluster-id", "", "Cluster identifier")

	rootCmd.Flags().StringVar(&region, "region", "", "Cluster region")
	rootCmd.Flags().StringVar(&source, "source", "", "Usage source: metrics-server, prometheus, kubectl")
	rootCmd.Flags().StringSliceVarP(&namespaces, "namespace", "n", nil, "Only scan these namespaces")
	rootCmd.Flags().StringSliceVar(&excludes, "exclude-namespace", nil, "Skip these namespaces")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Namespaces fetched in parallel")
	rootCmd.Flags().StringVar(&sinkKind, "sink", "", "Where to store the report: local, postgres, none")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the local sink")
	rootCmd.Flags().StringVar(&outputFormat, "report-format", "", "Report format for the local sink")
	rootCmd.Flags().StringVarP(&printFormat, "print", "p", "", "Also print the report to stderr in this format (e.g. table)")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List stored reports for the cluster",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of reports to show")

	showCmd := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().StringVarP(&showFormat, "output", "o", "json", "Output format: json, yaml, csv, markdown, html, table")

	rootCmd.AddCommand(historyCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if logFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// loadConfig reads the config and applies the flags that were set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("cluster-id") {
		cfg.ClusterID = clusterID
	}
	if flags.Changed("region") {
		cfg.Region = region
	}
	if flags.Changed("source") {
		cfg.Source = source
	}
	if flags.Changed("namespace") {
		cfg.NamespaceFilter = namespaces
	}
	if flags.Changed("exclude-namespace") {
		cfg.ExcludeNamespaces = excludes
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if flags.Changed("sink") {
		cfg.Sink = sinkKind
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("report-format") {
		cfg.OutputFormat = outputFormat
	}

	return cfg, nil
}

// fail writes a failure envelope and returns the error so cobra exits non-zero
func fail(err error) error {
	_ = output.Failure(err).Write(os.Stdout)
	return err
}

func runScan(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(err)
	}
	if err := cfg.Validate(); err != nil {
		return fail(fmt.Errorf("invalid configuration: %w", err))
	}

	var printAs reporter.ReportFormat
	if printFormat != "" {
		if printAs, err = reporter.ParseFormat(printFormat); err != nil {
			return fail(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &pipeline{
		clusterID: cfg.ClusterID,
		region:    cfg.Region,
		source:    cfg.Source,
		opts: scanner.Options{
			Concurrency:  cfg.Concurrency,
			FetchTimeout: cfg.FetchTimeout,
			Include:      cfg.NamespaceFilter,
			Exclude:      cfg.ExcludeNamespaces,
		},
		log: log,
	}

	dsCfg := datasource.Config{
		Kind:          cfg.Source,
		PrometheusURL: cfg.PrometheusURL,
		KubectlPath:   cfg.KubectlPath,
		Kubeconfig:    cfg.Kubeconfig,
		RateWindow:    cfg.RateWindow,
	}

	if cfg.Source == datasource.KindKubectl {
		// kubectl carries its own credentials; no API session is opened
		kubectl := datasource.NewKubectlSource(cfg.KubectlPath, cfg.Kubeconfig)
		p.lister, p.fetcher = kubectl, kubectl
	} else {
		cluster, err := datasource.Connect(cfg.Kubeconfig)
		if err != nil {
			return fail(err)
		}
		defer cluster.Close()

		if version, err := cluster.ServerVersion(); err == nil {
			log.WithField("version", version).Debug("Connected to cluster")
		}

		src, err := datasource.NewSource(dsCfg, cluster)
		if err != nil {
			return fail(err)
		}
		if !src.IsAvailable(ctx) {
			log.WithField("source", src.Name()).Warn("Usage source did not answer the availability probe")
		}
		p.lister, p.fetcher = cluster, src
	}

	switch cfg.Sink {
	case config.SinkLocal:
		format, _ := reporter.ParseFormat(cfg.OutputFormat)
		p.sink = storage.NewLocalSink(cfg.OutputDir, format)
	case config.SinkPostgres:
		store, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize storage: %w", err))
		}
		defer store.Close()
		p.sink = store
	}

	if cfg.MetricsTextfile != "" {
		recorder, err := metrics.NewRecorder(cfg.ClusterID)
		if err != nil {
			return fail(err)
		}
		p.recorder = recorder
		defer func() {
			if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
				log.WithError(err).Warn("Failed to write metrics textfile")
			}
		}()
	}

	envelope, doc := p.run(ctx)

	if doc != nil && printAs != "" {
		if err := reporter.Render(doc, printAs, os.Stderr); err != nil {
			log.WithError(err).Warn("Failed to print report")
		}
	}

	if err := envelope.Write(os.Stdout); err != nil {
		return err
	}
	if !envelope.OK() {
		return fmt.Errorf("%s", envelope.Message)
	}
	return nil
}

func openStore(cmd *cobra.Command) (*storage.PostgresStore, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL must be set to read stored reports")
	}
	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, cfg, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := store.ListReports(cmd.Context(), cfg.ClusterID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	if len(reports) == 0 {
		fmt.Printf("No reports found for cluster: %s\n", cfg.ClusterID)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Created", "Namespaces", "Failed", "Workloads", "Location"})
	table.SetAutoWrapText(false)
	for _, rep := range reports {
		table.Append([]string{
			rep.ID,
			rep.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", rep.Namespaces),
			fmt.Sprintf("%d", rep.Failed),
			fmt.Sprintf("%d", rep.Workloads),
			rep.Location,
		})
	}
	table.Render()
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := reporter.ParseFormat(showFormat)
	if err != nil {
		return err
	}

	store, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rep, err := store.GetReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	doc, err := reporter.DecodeJSON(rep.Document)
	if err != nil {
		return err
	}
	return reporter.Render(doc, format, os.Stdout)
}
