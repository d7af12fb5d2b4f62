package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/skillsenselab/scribeflow/asr"
	"github.com/skillsenselab/scribeflow/asr/whisper"
	"github.com/skillsenselab/scribeflow/config"
	"github.com/skillsenselab/scribeflow/diarize"
	"github.com/skillsenselab/scribeflow/diarize/pyannote"
	"github.com/skillsenselab/scribeflow/foreman"
	"github.com/skillsenselab/scribeflow/jargon"
	"github.com/skillsenselab/scribeflow/jobstore"
	"github.com/skillsenselab/scribeflow/llm"
	"github.com/skillsenselab/scribeflow/llm/ollama"
	"github.com/skillsenselab/scribeflow/logger"
	"github.com/skillsenselab/scribeflow/normalize"
	"github.com/skillsenselab/scribeflow/observability"
	"github.com/skillsenselab/scribeflow/opsapi"
	"github.com/skillsenselab/scribeflow/orchestrator"
	"github.com/skillsenselab/scribeflow/payload"
	"github.com/skillsenselab/scribeflow/provider"
	"github.com/skillsenselab/scribeflow/restore"
	"github.com/skillsenselab/scribeflow/restore/deeppunct"
	"github.com/skillsenselab/scribeflow/segment"
	"github.com/skillsenselab/scribeflow/summarize"
)

// Service wires the whole pipeline from a resolved configuration: job
// store, payload store, foreman, capability providers, orchestrator
// worker, and the operator API.
type Service struct {
	cfg      *config.Config
	store    *jobstore.Store
	payloads *payload.Store
	foreman  *foreman.Foreman
	orch     *orchestrator.Orchestrator
	worker   *orchestrator.Worker
	api      *opsapi.Server
	log      *logger.Logger
}

// New builds a Service from configuration. The config must already have
// defaults applied and be validated (config.Load does both).
func New(cfg *config.Config) (*Service, error) {
	logger.Init(cfg.Logging)
	log := logger.Get("service")

	store, err := jobstore.Open(cfg.JobStore)
	if err != nil {
		return nil, fmt.Errorf("opening job store: %w", err)
	}
	payloads, err := payload.Open(cfg.PayloadDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("opening payload store: %w", err)
	}
	fm := foreman.New(cfg.Foreman)

	asrProv, err := buildASR(cfg.Providers.ASR)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	diaProv, err := buildDiarizer(cfg.Providers.Diarize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	llmProv, err := buildLLM(cfg.Providers.LLM)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	restoreProv, err := buildRestore(cfg.Providers.Restore)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	deps := orchestrator.Deps{
		Store:      store,
		Payloads:   payloads,
		Foreman:    fm,
		ASR:        asrProv,
		Diarizer:   diaProv,
		Normalizer: normalize.New(restoreProv, cfg.Normalize),
		Corrector:  jargon.New(cfg.Jargon),
		Segmenter:  segment.New(cfg.Segment),
		Summarizer: summarize.New(llmProv, cfg.Summarize),
		Metrics:    metrics,
	}
	orch := orchestrator.New(deps, cfg.Worker)

	s := &Service{
		cfg:      cfg,
		store:    store,
		payloads: payloads,
		foreman:  fm,
		orch:     orch,
		worker:   orchestrator.NewWorker(orch, cfg.Worker),
		log:      log,
	}
	if cfg.OpsAPI.Enabled {
		s.api = opsapi.New(cfg.OpsAPI, store, fm)
	}
	return s, nil
}

// Orchestrator exposes the wired orchestrator, mainly for embedding the
// service in other binaries.
func (s *Service) Orchestrator() *orchestrator.Orchestrator { return s.orch }

// Store exposes the wired job store.
func (s *Service) Store() *jobstore.Store { return s.store }

// Run serves until the context is cancelled or an interrupt/termination
// signal arrives, then shuts down cleanly.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.cfg.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: s.cfg.Name,
			Environment: s.cfg.Environment,
			Endpoint:    s.cfg.Observability.Endpoint,
			Insecure:    s.cfg.Observability.Insecure,
			SampleRate:  s.cfg.Observability.SampleRate,
		})
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()

		mc := observability.DefaultMeterConfig(s.cfg.Name)
		mc.Environment = s.cfg.Environment
		mc.Endpoint = s.cfg.Observability.Endpoint
		mc.Insecure = s.cfg.Observability.Insecure
		mp, err := observability.InitMeter(ctx, &mc)
		if err != nil {
			return err
		}
		defer func() { _ = mp.Shutdown(context.Background()) }()
	}

	if s.api != nil {
		if err := s.api.Start(ctx); err != nil {
			return err
		}
	}
	s.log.Info("service started", logger.Fields("name", s.cfg.Name))

	err := s.worker.Run(ctx)
	s.log.Info("shutting down")
	if cerr := s.Close(); cerr != nil {
		s.log.Error("shutdown error", logger.Fields(logger.FieldError, cerr.Error()))
	}
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the operator API and closes the job store.
func (s *Service) Close() error {
	var errs []error
	if s.api != nil {
		if err := s.api.Stop(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

// --- provider wiring ---

func buildASR(pc config.ProviderConfig) (asr.Provider, error) {
	r := asr.NewRegistry()
	r.RegisterFactory(whisper.ProviderName, whisper.Factory())
	return createProvider(r, "asr", pc)
}

func buildDiarizer(pc config.ProviderConfig) (diarize.Provider, error) {
	r := diarize.NewRegistry()
	r.RegisterFactory(pyannote.ProviderName, pyannote.Factory())
	return createProvider(r, "diarize", pc)
}

func buildLLM(pc config.ProviderConfig) (llm.Provider, error) {
	r := llm.NewRegistry()
	r.RegisterFactory(ollama.ProviderName, ollama.Factory())
	return createProvider(r, "llm", pc)
}

func buildRestore(pc config.ProviderConfig) (restore.Provider, error) {
	r := restore.NewRegistry()
	r.RegisterFactory(deeppunct.ProviderName, deeppunct.Factory())
	return createProvider(r, "restore", pc)
}

func createProvider[T provider.Provider](r *provider.Registry[T], capability string, pc config.ProviderConfig) (T, error) {
	p, err := r.Create(pc.Backend, pc.Options)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("building %s provider (registered: %s): %w",
			capability, strings.Join(r.List(), ", "), err)
	}
	return p, nil
}
