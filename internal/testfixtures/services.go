package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/availability-coordinator/internal/application"
)

// ServiceFactory builds application services that share a deterministic
// clock and identifier sequence.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory returns a factory with a frozen ReferenceTime clock and
// "id" prefixed identifiers.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// Services bundles the application services built over one set of repositories.
type Services struct {
	Events    *application.EventService
	Responses *application.ResponseCoordinator
	Results   *application.ResultsService
	Sweeper   *application.SlotSweeper
}

// ServicesDeps captures what the services need beyond the factory defaults.
type ServicesDeps struct {
	Repositories application.Repositories
	Notifier     application.Notifier
	SweepGrace   time.Duration
}

// NewServices wires every service over deps using the factory clock and
// identifier sequence.
func (f *ServiceFactory) NewServices(deps ServicesDeps) Services {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()
	return Services{
		Events:    application.NewEventServiceWithLogger(deps.Repositories, deps.Notifier, ids, now, f.Logger),
		Responses: application.NewResponseCoordinatorWithLogger(deps.Repositories, deps.Notifier, ids, now, f.Logger),
		Results:   application.NewResultsServiceWithLogger(deps.Repositories, f.Logger),
		Sweeper:   application.NewSlotSweeper(deps.Repositories.Slots, deps.SweepGrace, now, f.Logger),
	}
}
