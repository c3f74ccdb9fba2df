package scanner

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/opscart/k8s-usage-reporter/pkg/analyzer"
	"github.com/opscart/k8s-usage-reporter/pkg/converter"
	"github.com/opscart/k8s-usage-reporter/pkg/metrics"
	"github.com/opscart/k8s-usage-reporter/pkg/models"
)

// NamespaceLister enumerates the namespaces of a cluster
type NamespaceLister interface {
	ListNamespaces(ctx context.Context) ([]string, error)
}

// UsageFetcher returns the raw usage report of one namespace, one
// "<instance> <cpu> <memory>" line per instance.
type UsageFetcher interface {
	FetchUsage(ctx context.Context, namespace string) (string, error)
}

// Options tune a scan
type Options struct {
	Concurrency  int
	FetchTimeout time.Duration
	Include      []string
	Exclude      []string
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Concurrency:  4,
		FetchTimeout: 30 * time.Second,
	}
}

// Scanner drives one collection run over a cluster
type Scanner struct {
	lister   NamespaceLister
	fetcher  UsageFetcher
	opts     Options
	log      logrus.FieldLogger
	recorder *metrics.Recorder
}

// New creates a scanner. Zero option values fall back to the defaults.
func New(lister NamespaceLister, fetcher UsageFetcher, opts Options) *Scanner {
	defaults := DefaultOptions()
	if opts.Concurrency < 1 {
		opts.Concurrency = defaults.Concurrency
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaults.FetchTimeout
	}

	return &Scanner{
		lister:  lister,
		fetcher: fetcher,
		opts:    opts,
		log:     logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used for run progress
func (s *Scanner) WithLogger(log logrus.FieldLogger) *Scanner {
	s.log = log
	return s
}

// WithRecorder attaches a metrics recorder
func (s *Scanner) WithRecorder(r *metrics.Recorder) *Scanner {
	s.recorder = r
	return s
}

// Scan enumerates the namespaces and processes each of them.
//
// Only an enumeration failure is returned as an error. A namespace whose
// usage cannot be fetched is reported as a failed result and the run
// continues. Results are in enumeration order regardless of which fetch
// finishes first.
func (s *Scanner) Scan(ctx context.Context) ([]*models.NamespaceResult, error) {
	namespaces, err := s.lister.ListNamespaces(ctx)
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}

	namespaces = s.filter(namespaces)
	s.log.WithField("count", len(namespaces)).Info("Scanning namespaces")

	results := make([]*models.NamespaceResult, len(namespaces))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, ns := range namespaces {
		g.Go(func() error {
			results[i] = s.scanNamespace(ctx, ns)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (s *Scanner) scanNamespace(ctx context.Context, namespace string) *models.NamespaceResult {
	log := s.log.WithField("namespace", namespace)

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.fetcher.FetchUsage(fetchCtx, namespace)
	s.recorder.ObserveFetch(time.Since(start), err)

	var result *models.NamespaceResult
	if err != nil {
		log.WithError(err).Warn("Error fetching namespace usage")
		result = analyzer.FailedNamespace(namespace, &NamespaceUsageError{Namespace: namespace, Err: err})
	} else {
		result = analyzer.Analyze(namespace, text)
		for _, w := range result.Workloads {
			for _, m := range w.Members {
				if m.Failed() {
					log.WithField("instance", m.Raw.InstanceName).WithError(m.Err).Debug("Instance excluded from totals")
				} else if !converter.HasKnownMemoryUnit(m.Raw.Memory) {
					log.WithField("instance", m.Raw.InstanceName).WithField("memory", m.Raw.Memory).Debug("Unrecognized memory unit counted as zero")
				}
			}
		}
		for _, u := range result.Unattributed {
			log.WithField("instance", u.InstanceName).WithError(u.Err).Debug("Instance not attributed to a workload")
		}
		log.WithField("workloads", len(result.Workloads)).Debug("Namespace analyzed")
	}

	s.recorder.ObserveNamespace(result)
	return result
}

// filter applies the include and exclude lists and drops repeated names,
// keeping enumeration order
func (s *Scanner) filter(namespaces []string) []string {
	seen := make(map[string]bool, len(namespaces))
	out := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		if seen[ns] {
			continue
		}
		seen[ns] = true

		if len(s.opts.Include) > 0 && !slices.Contains(s.opts.Include, ns) {
			continue
		}
		if slices.Contains(s.opts.Exclude, ns) {
			continue
		}
		out = append(out, ns)
	}
	return out
}
