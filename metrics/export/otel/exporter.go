package otel

import (
	"context"
	"errors"
	"fmt"

	mintauth "github.com/mintauth/mintauth"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// metricsSource decouples the exporter from *mintauth.Engine so tests can
// observe a bare *mintauth.Metrics.
type metricsSource interface {
	MetricsSnapshot() mintauth.MetricsSnapshot
}

type counterDef struct {
	id   mintauth.MetricID
	name string
	help string
}

// counterDefs fixes the exported instrument names. Names are part of the
// public contract; never renumber or rename without a migration note.
var counterDefs = []counterDef{
	{mintauth.MetricAccessIssued, "mintauth_access_issued_total", "Access tokens issued."},
	{mintauth.MetricAccessVerified, "mintauth_access_verified_total", "Access tokens successfully verified."},
	{mintauth.MetricAccessRejected, "mintauth_access_rejected_total", "Access tokens rejected during verification."},
	{mintauth.MetricRefreshIssued, "mintauth_refresh_issued_total", "Refresh tokens issued."},
	{mintauth.MetricRefreshVerified, "mintauth_refresh_verified_total", "Refresh tokens successfully verified."},
	{mintauth.MetricRefreshRejected, "mintauth_refresh_rejected_total", "Refresh tokens rejected during verification."},
	{mintauth.MetricRefreshRotated, "mintauth_refresh_rotated_total", "Successful refresh-token rotations."},
	{mintauth.MetricRefreshReuseDetected, "mintauth_refresh_reuse_detected_total", "Rotations refused because the token was already superseded."},
	{mintauth.MetricSessionRevoked, "mintauth_session_revoked_total", "Single-session revocations."},
	{mintauth.MetricUserSessionsRevoked, "mintauth_user_sessions_revoked_total", "Revoke-all operations per user."},
}

type observedCounter struct {
	id         mintauth.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter bridges the engine's in-process counters to an OpenTelemetry
// meter via observable counters. The engine keeps counting with plain
// atomics; the SDK pulls a snapshot on each collection cycle.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
}

// New registers observable counters for every engine metric on meter.
func New(meter metric.Meter, engine *mintauth.Engine) (*Exporter, error) {
	return NewFromSource(meter, engine)
}

// NewFromSource is New for any snapshot source.
func NewFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}

	observables := make([]metric.Observable, 0, len(counterDefs))
	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback. Safe on nil.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
