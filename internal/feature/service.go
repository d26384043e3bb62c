package feature

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/logging"
	"github.com/fyrsmithlabs/specflow/internal/sanitize"
	"github.com/fyrsmithlabs/specflow/pkg/git"
)

const instrumentationName = "github.com/fyrsmithlabs/specflow/internal/feature"

// FeatureOverrideEnv names the environment variable that overrides feature
// resolution when no branch context is available.
const FeatureOverrideEnv = "SPECFLOW_FEATURE"

// Resolution errors.
var (
	// ErrNoFeatureContext indicates no override, feature branch, or
	// feature directory identifies the active feature.
	ErrNoFeatureContext = errors.New("no feature context")

	// ErrAmbiguousFeature indicates multiple directories tie for the
	// highest feature number.
	ErrAmbiguousFeature = errors.New("ambiguous feature")

	// ErrEmptyDescription indicates an allocation with a blank description.
	ErrEmptyDescription = errors.New("feature description is required")
)

// featurePattern matches a numbered feature directory or branch name.
var featurePattern = regexp.MustCompile(`^(\d+)-(.+)$`)

// Seeder seeds a newly created artifact from template content.
type Seeder interface {
	CreateFromTemplate(kind artifact.Kind, dest string) error
}

// Service provides feature allocation and resolution.
type Service interface {
	// Allocate creates the next numbered feature from a description.
	Allocate(ctx context.Context, req *AllocateRequest) (*Feature, error)

	// ResolveCurrent determines the active feature. An empty override
	// falls back to the FeatureOverrideEnv variable, then the current
	// branch, then the highest-numbered feature directory.
	ResolveCurrent(ctx context.Context, override string) (*Feature, error)

	// List returns all features sorted by number.
	List(ctx context.Context) ([]*Feature, error)

	// Describe reports the repository context for the current invocation.
	Describe(ctx context.Context) *RepositoryContext
}

// Config configures the feature service.
type Config struct {
	// RepoRoot is the repository root all paths resolve against.
	RepoRoot string
}

// service implements the Service interface.
type service struct {
	config   *Config
	resolver *artifact.Resolver
	seeder   Seeder
	logger   *logging.Logger

	tracer         trace.Tracer
	meter          metric.Meter
	allocCounter   metric.Int64Counter
	resolveCounter metric.Int64Counter

	// mu guards number allocation within this process.
	mu            sync.Mutex
	lastAllocated int
}

// NewService creates a feature service. A nil seeder creates empty
// specification files instead of templated ones.
func NewService(cfg *Config, resolver *artifact.Resolver, seeder Seeder, logger *logging.Logger) (Service, error) {
	if cfg == nil || cfg.RepoRoot == "" {
		return nil, errors.New("repository root is required")
	}
	if resolver == nil {
		resolver = artifact.NewResolver("")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &service{
		config:   cfg,
		resolver: resolver,
		seeder:   seeder,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *service) initMetrics() {
	var err error

	s.allocCounter, err = s.meter.Int64Counter(
		"specflow.features.allocated_total",
		metric.WithDescription("Total number of features allocated"),
		metric.WithUnit("{feature}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create allocation counter", zap.Error(err))
	}

	s.resolveCounter, err = s.meter.Int64Counter(
		"specflow.features.resolved_total",
		metric.WithDescription("Total number of feature resolutions"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create resolution counter", zap.Error(err))
	}
}

// Allocate creates the next numbered feature from a description.
func (s *service) Allocate(ctx context.Context, req *AllocateRequest) (*Feature, error) {
	ctx, span := s.tracer.Start(ctx, "feature.allocate")
	defer span.End()

	if req == nil {
		return nil, ErrEmptyDescription
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		span.SetStatus(codes.Error, ErrEmptyDescription.Error())
		return nil, ErrEmptyDescription
	}

	slug := sanitize.Slug(desc)

	feat, branchCreated, err := s.reserve(slug, req.CreateBranch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.seedSpec(feat); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.allocCounter != nil {
		s.allocCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("branch_created", branchCreated),
		))
	}

	s.logger.Info(ctx, "allocated feature",
		zap.String("number", feat.Number),
		zap.String("slug", feat.Slug),
		zap.Bool("branch_created", branchCreated),
	)

	span.SetAttributes(
		attribute.String("feature.number", feat.Number),
		attribute.String("feature.slug", feat.Slug),
	)
	return feat, nil
}

// reserve picks the next feature number and creates the directory. The
// in-process high-water mark keeps numbers strictly increasing even when
// earlier directories are removed mid-run.
func (s *service) reserve(slug string, createBranch bool) (*Feature, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	highest, err := s.highestNumber()
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan feature root: %w", err)
	}
	next := highest + 1
	if s.lastAllocated >= next {
		next = s.lastAllocated + 1
	}
	s.lastAllocated = next

	number := fmt.Sprintf("%03d", next)
	branchName := number + "-" + slug
	set := s.resolver.Resolve(s.config.RepoRoot, branchName)

	branchCreated := false
	if createBranch && git.HasVersionControl(s.config.RepoRoot) {
		if err := git.CreateBranch(s.config.RepoRoot, branchName); err != nil {
			return nil, false, fmt.Errorf("failed to create branch %s: %w", branchName, err)
		}
		branchCreated = true
	}

	if err := os.MkdirAll(set.FeatureDir, 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create feature directory: %w", err)
	}

	return &Feature{
		Number:     number,
		Slug:       slug,
		BranchName: branchName,
		Dir:        set.FeatureDir,
	}, branchCreated, nil
}

// seedSpec creates the initial specification for a new feature.
func (s *service) seedSpec(feat *Feature) error {
	specPath := s.resolver.Resolve(s.config.RepoRoot, feat.BranchName).Spec
	if s.seeder == nil {
		if err := os.WriteFile(specPath, nil, 0644); err != nil {
			return fmt.Errorf("failed to create specification: %w", err)
		}
		return nil
	}
	if err := s.seeder.CreateFromTemplate(artifact.KindSpec, specPath); err != nil {
		return fmt.Errorf("failed to seed specification: %w", err)
	}
	return nil
}

// ResolveCurrent determines the active feature.
func (s *service) ResolveCurrent(ctx context.Context, override string) (*Feature, error) {
	ctx, span := s.tracer.Start(ctx, "feature.resolve_current")
	defer span.End()

	if override == "" {
		override = os.Getenv(FeatureOverrideEnv)
	}
	if override != "" {
		if err := sanitize.ValidateFeatureDir(override); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("invalid feature override %q: %w", override, err)
		}
		feat := s.featureFromName(override)
		if feat == nil {
			err := fmt.Errorf("invalid feature override %q: want NNN-slug form", override)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.SetAttributes(attribute.String("resolution.source", "override"))
		s.countResolution(ctx, "override")
		return feat, nil
	}

	if branch, err := git.DetectBranch(s.config.RepoRoot); err == nil && git.IsFeatureBranch(branch) {
		if feat := s.featureFromName(branch); feat != nil {
			span.SetAttributes(attribute.String("resolution.source", "branch"))
			s.countResolution(ctx, "branch")
			return feat, nil
		}
	}

	feats, err := s.scan()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to scan feature root: %w", err)
	}
	if len(feats) == 0 {
		err := fmt.Errorf("%w: no override, no feature branch, and no feature directories under %s",
			ErrNoFeatureContext, s.resolver.FeatureRoot(s.config.RepoRoot))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	top := feats[len(feats)-1]
	var ties []string
	for _, f := range feats {
		if f.Number == top.Number {
			ties = append(ties, f.BranchName)
		}
	}
	if len(ties) > 1 {
		err := fmt.Errorf("%w: multiple feature directories share number %s: %s",
			ErrAmbiguousFeature, top.Number, strings.Join(ties, ", "))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("resolution.source", "directory"))
	s.countResolution(ctx, "directory")
	return top, nil
}

func (s *service) countResolution(ctx context.Context, source string) {
	if s.resolveCounter != nil {
		s.resolveCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
		))
	}
}

// List returns all features sorted by number.
func (s *service) List(ctx context.Context) ([]*Feature, error) {
	_, span := s.tracer.Start(ctx, "feature.list")
	defer span.End()

	feats, err := s.scan()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to scan feature root: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(feats)))
	return feats, nil
}

// Describe reports the repository context for the current invocation.
func (s *service) Describe(ctx context.Context) *RepositoryContext {
	rc := &RepositoryContext{
		Root:              s.config.RepoRoot,
		HasVersionControl: git.HasVersionControl(s.config.RepoRoot),
	}
	if branch, err := git.DetectBranch(s.config.RepoRoot); err == nil {
		rc.Branch = branch
	}
	if feat, err := s.ResolveCurrent(ctx, ""); err == nil {
		rc.ActiveFeature = feat.BranchName
	}
	return rc
}

// highestNumber returns the largest numeric prefix under the feature root.
func (s *service) highestNumber() (int, error) {
	entries, err := os.ReadDir(s.resolver.FeatureRoot(s.config.RepoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := featurePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// scan returns every feature directory sorted by number, then name.
func (s *service) scan() ([]*Feature, error) {
	entries, err := os.ReadDir(s.resolver.FeatureRoot(s.config.RepoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var feats []*Feature
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if feat := s.featureFromName(entry.Name()); feat != nil {
			feats = append(feats, feat)
		}
	}

	num := func(f *Feature) int {
		n, _ := strconv.Atoi(f.Number)
		return n
	}
	sort.Slice(feats, func(i, j int) bool {
		if num(feats[i]) != num(feats[j]) {
			return num(feats[i]) < num(feats[j])
		}
		return feats[i].BranchName < feats[j].BranchName
	})
	return feats, nil
}

// featureFromName builds a Feature from a NNN-slug directory or branch
// name, or nil if the name does not match.
func (s *service) featureFromName(name string) *Feature {
	m := featurePattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &Feature{
		Number:     fmt.Sprintf("%03d", n),
		Slug:       m[2],
		BranchName: name,
		Dir:        s.resolver.Resolve(s.config.RepoRoot, name).FeatureDir,
	}
}
