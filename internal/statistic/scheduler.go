package statistic

import (
	"github.com/roylee0704/gron"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"statpulse/internal/statistic/interfaces"
	"statpulse/internal/structures"
	"sync"
	"time"
)

// Scheduler runs the periodic sink jobs: the lease sweep and persistence.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.SinkServiceInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Sink.SweepInterval), func() {
		if s.service.Sweep() {
			s.logger.Infof(providers.TypeSession, "Expired session released")
		}
	})

	if s.config.Persistence.FilePath != "" {
		s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
			if err := s.save(); err != nil {
				s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
				return
			}
			s.logger.Debugf(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
		})
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Close releases the compressor. Call it after the final Persist.
func (s *Scheduler) Close() {
	s.fileManager.Close()
}

func (s *Scheduler) save() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return err
}

func (s *Scheduler) Restore() error {
	if s.config.Persistence.FilePath == "" {
		return nil
	}
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	if s.config.Persistence.FilePath == "" {
		return nil
	}
	s.logger.Infof(providers.TypeApp, "Persisting sink state to file...")
	err := s.save()
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.SinkServiceInterface, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
