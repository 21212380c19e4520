package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/yap/pkg/core"
	"github.com/oneconcern/yap/pkg/dlogger"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/remote"
	"github.com/oneconcern/yap/pkg/vcs"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// session is an open project, with the logger and metrics registry of the command
type session struct {
	project  *core.Project
	registry *prometheus.Registry
	l        *zap.Logger
}

// projectConfig applies command line overrides to the project configuration
func projectConfig(root string) core.Config {
	cfg := core.DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if yapFlags.root.logLevel != "" {
		cfg.LogLevel = yapFlags.root.logLevel
	}
	if yapFlags.root.concurrency != 0 {
		cfg.Concurrency = yapFlags.root.concurrency
	}
	if cfg.Author == (model.Author{}) {
		cfg.Author = vcs.Author(root)
	}
	return cfg
}

func openProject(ctx context.Context) (*session, error) {
	root, err := filepath.Abs(projectRoot())
	if err != nil {
		return nil, err
	}
	cfg := projectConfig(root)

	l, err := dlogger.GetLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := []core.Option{core.Logger(l)}

	var registry *prometheus.Registry
	if yapFlags.root.metricsFile != "" {
		registry = prometheus.NewRegistry()
		opts = append(opts, core.WithMetrics(core.NewMetrics(registry)))
	}

	project, err := core.Open(ctx, root, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &session{project: project, registry: registry, l: l}, nil
}

func (s *session) writeMetrics() error {
	if s.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(yapFlags.root.metricsFile, s.registry)
}

func (s *session) close() {
	if err := s.project.Close(); err != nil {
		s.l.Warn("could not close project", zap.Error(err))
	}
	_ = s.l.Sync()
}

func branchOf(project *core.Project) string {
	if yapFlags.batch.branch != "" {
		return yapFlags.batch.branch
	}
	return vcs.CurrentBranch(project.Root())
}

// runBatch applies an operation to the files and directories given as arguments
func runBatch(op core.OperationConfig, paths []string) {
	exitBatch(strings.ToLower(op.Operation.String()), batch(op, paths))
}

func batch(op core.OperationConfig, paths []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	factory, err := core.NewFactory(ctx, s.project, paths, branchOf(s.project), op)
	if err != nil {
		return err
	}
	defer func() {
		if err := factory.Close(); err != nil {
			s.l.Warn("could not close remote storage", zap.Error(err))
		}
	}()

	result, err := core.NewOrchestrator(s.project).Run(ctx, factory)
	if result != nil {
		printResult(result)
	}
	if merr := s.writeMetrics(); merr != nil {
		s.l.Warn("could not write metrics", zap.String("file", yapFlags.root.metricsFile), zap.Error(merr))
	}
	if err != nil {
		return err
	}
	if result.Failed() {
		return errFilesFailed.Wrap(result.Err())
	}
	return nil
}

func printResult(result *core.BatchResult) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("PATH", "OUTCOME", "SIZE", "DETAIL")
	for _, o := range result.PerFile {
		table.AddRow(o.Path, colorOutcome(o.Outcome), units.HumanSize(float64(o.Bytes)), detail(o))
	}
	infoLogger.Println(table)
	infoLogger.Printf("%s: %d done, %d skipped, %d failed",
		strings.ToLower(result.Operation.String()),
		result.Count(core.OutcomeDone),
		result.Count(core.OutcomeSkipped),
		result.Count(core.OutcomeFailed),
	)
}

func colorOutcome(outcome core.Outcome) string {
	switch outcome {
	case core.OutcomeDone:
		return color.GreenString(string(outcome))
	case core.OutcomeFailed:
		return color.RedString(string(outcome))
	default:
		return color.YellowString(string(outcome))
	}
}

func detail(o core.FileOutcome) string {
	switch {
	case o.Outcome == core.OutcomeFailed:
		return o.Err.Error()
	case o.Outcome == core.OutcomeSkipped:
		return "already tracked"
	case o.Operation == model.EventCommit && o.Changed:
		return "changed"
	case o.Operation == model.EventCommit:
		return "unchanged"
	case len(o.Pointers) > 0:
		keys := make([]string, 0, len(o.Pointers))
		for _, p := range o.Pointers {
			keys = append(keys, p.Key)
		}
		return strings.Join(keys, ", ")
	default:
		return ""
	}
}

// comparisonConfig applies command line overrides to the comparison settings of the project
func comparisonConfig() (*core.ComparisonConfig, error) {
	cc := core.DefaultConfig().Comparison
	if config != nil {
		cc = config.Comparison
	}
	if yapFlags.compare.technique != "" {
		technique, err := model.ParseTechnique(yapFlags.compare.technique)
		if err != nil {
			return nil, err
		}
		cc.Technique = technique
	}
	if yapFlags.compare.script != "" {
		cc.Script = yapFlags.compare.script
	}
	return &cc, nil
}

// remoteConfig applies command line overrides to the remote settings of the project
func remoteConfig() (*remote.Config, error) {
	rc := core.DefaultConfig().Remote
	if config != nil {
		rc = config.Remote
	}
	if yapFlags.remote.storage != "" {
		rc.Storage = model.StorageKind(strings.ToLower(yapFlags.remote.storage))
	}
	if yapFlags.remote.strategy != "" {
		strategy, err := model.ParsePushStrategy(yapFlags.remote.strategy)
		if err != nil {
			return nil, err
		}
		rc.Strategy = strategy
	}
	if yapFlags.remote.bucket != "" {
		rc.Bucket = yapFlags.remote.bucket
	}
	if yapFlags.remote.root != "" {
		rc.Root = yapFlags.remote.root
	}
	if yapFlags.remote.compress {
		rc.Compress = true
	}
	return &rc, nil
}

func remoteOperation(kind model.EventKind) (core.OperationConfig, error) {
	rc, err := remoteConfig()
	if err != nil {
		return core.OperationConfig{}, err
	}
	return core.OperationConfig{Operation: kind, Remote: rc}, nil
}
