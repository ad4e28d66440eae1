package tools

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// Service is the shared core behind every transport (MCP stdio, HTTP,
// CLI): one catalog, one adapter set, one job registry.
type Service struct {
	catalog  *Catalog
	adapters map[string]Adapter
	launcher *jobs.Launcher
	logger   *zap.Logger
}

// NewService wires a service around a registry.
func NewService(catalog *Catalog, registry *jobs.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:  catalog,
		adapters: Adapters(),
		launcher: jobs.NewLauncher(registry),
		logger:   logger,
	}
}

// Catalog returns the tool catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Registry returns the job registry.
func (s *Service) Registry() *jobs.Registry { return s.launcher.Registry() }

// Adapter returns the adapter for a logical tool name.
func (s *Service) Adapter(name string) (Adapter, error) {
	a, ok := s.adapters[normalizeToolName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return a, nil
}

// DecodeParams decodes loosely typed transport arguments (JSON maps) into
// the adapter's parameter struct.
func DecodeParams(args map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return nil
}

// Launch resolves the tool executable, builds the command line through the
// adapter, and hands the job to the background launcher.
//
// The tool must already be installed; callers that want auto-install run
// Install first. Spawn failures and contract violations are synchronous
// errors, so a returned LaunchResult always refers to a live job record.
func (s *Service) Launch(ctx context.Context, toolName string, params any, jobID string) (jobs.LaunchResult, error) {
	adapter, err := s.Adapter(toolName)
	if err != nil {
		return jobs.LaunchResult{}, err
	}
	def, err := s.catalog.Lookup(toolName)
	if err != nil {
		return jobs.LaunchResult{}, err
	}

	if resolver, ok := adapter.(ParamResolver); ok {
		if err := resolver.ResolveParams(ctx, params); err != nil {
			return jobs.LaunchResult{}, err
		}
	}

	located, err := s.catalog.Locate(ctx, toolName)
	if err != nil {
		return jobs.LaunchResult{}, err
	}
	if !located.Installed {
		return jobs.LaunchResult{}, fmt.Errorf("%w: %s: %s", ErrNotInstalled, adapter.Name(), located.Diagnostics)
	}

	spec, err := adapter.Spec(located.Path, params)
	if err != nil {
		return jobs.LaunchResult{}, err
	}
	if def.RequiresJava {
		spec.Env = append(spec.Env, JavaEnv()...)
	}

	res, err := s.launcher.Launch(spec, jobID)
	if err != nil {
		return jobs.LaunchResult{}, err
	}

	s.logger.Info("job launched",
		zap.String("tool", adapter.Name()),
		zap.String("job_id", res.JobID),
		zap.Strings("command", spec.Argv))
	return res, nil
}

// LaunchFromArgs decodes raw arguments through the adapter's parameter
// struct and launches. The optional job_id argument travels alongside the
// tool parameters on every transport.
func (s *Service) LaunchFromArgs(ctx context.Context, toolName string, args map[string]any) (jobs.LaunchResult, error) {
	adapter, err := s.Adapter(toolName)
	if err != nil {
		return jobs.LaunchResult{}, err
	}

	jobID, _ := args["job_id"].(string)

	// args belongs to the caller; strip job_id on a copy.
	fields := make(map[string]any, len(args))
	for k, v := range args {
		if k != "job_id" {
			fields[k] = v
		}
	}

	params := adapter.NewParams()
	if err := DecodeParams(fields, params); err != nil {
		return jobs.LaunchResult{}, err
	}
	return s.Launch(ctx, toolName, params, jobID)
}

// Status returns the job snapshot for an id; unknown ids yield not_found.
func (s *Service) Status(jobID string) jobs.Snapshot {
	return s.Registry().Status(jobID)
}

// List returns the full registry snapshot.
func (s *Service) List() jobs.ListResult {
	return s.Registry().List()
}

// Stop signals termination to a job.
func (s *Service) Stop(jobID string) jobs.StopResult {
	res := s.Registry().Stop(jobID)
	s.logger.Info("job stop requested", zap.String("job_id", jobID), zap.String("status", string(res.Status)))
	return res
}

// Cleanup removes job records per the completed-only filter.
func (s *Service) Cleanup(completedOnly bool) jobs.CleanupResult {
	res := s.Registry().Cleanup(completedOnly)
	s.logger.Info("registry cleanup",
		zap.Bool("completed_only", completedOnly),
		zap.Int("removed", res.RemovedJobs),
		zap.Int("remaining", res.RemainingJobs))
	return res
}

// Locate probes for a tool.
func (s *Service) Locate(ctx context.Context, toolName string) (LocateResult, error) {
	return s.catalog.Locate(ctx, toolName)
}

// Install attempts tool installation.
func (s *Service) Install(ctx context.Context, toolName string) (InstallResult, error) {
	res, err := s.catalog.Install(ctx, toolName)
	if err != nil {
		return InstallResult{}, err
	}
	s.logger.Info("install finished",
		zap.String("tool", res.Tool),
		zap.Bool("installed", res.Installed),
		zap.Bool("attempted", res.Attempted),
		zap.String("method", res.Method))
	return res, nil
}
