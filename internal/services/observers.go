package services

import (
	"statpulse/internal/models"
	"statpulse/internal/notify"
	"statpulse/internal/providers"
	"statpulse/internal/session"
)

// LogPresenter reveals notifications on the notify log channel.
type LogPresenter struct {
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewLogPresenter(logger providers.Logger, metrics providers.MetricsProviderInterface) notify.Presenter {
	return &LogPresenter{logger: logger, metrics: metrics}
}

func (p *LogPresenter) Show(batch []models.NotificationEvent) {
	for _, ev := range batch {
		p.logger.Infof(providers.TypeNotify, "%s", ev.Message())
	}
	p.metrics.IncNotifications("shown", len(batch))
}

func (p *LogPresenter) Hide(ev models.NotificationEvent) {
	p.logger.Debugf(providers.TypeNotify, "Hide %s %s", ev.EntityKey, ev.Kind)
}

// sessionObserver must not call back into the arbiter.
type sessionObserver struct {
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func (o *sessionObserver) SessionOutcome(op string, outcome session.Outcome, id string, err error) {
	o.metrics.IncSessionOutcome(op, string(outcome))
	switch outcome {
	case session.OutcomeNetwork:
		o.logger.Warnf(providers.TypeSession, "%s %s: %s", op, id, err)
	case session.OutcomeConflict:
		o.logger.Infof(providers.TypeSession, "%s %s rejected: %s", op, id, err)
	case session.OutcomeUnrecognized:
		o.logger.Infof(providers.TypeSession, "%s %s unknown to sink, reconnecting", op, id)
	default:
		o.logger.Debugf(providers.TypeSession, "%s %s: %s", op, id, outcome)
	}
}

func (o *sessionObserver) SessionState(state session.State) {
	o.metrics.SetSessionState(state.String())
	o.logger.Infof(providers.TypeSession, "Session %s", state)
}
