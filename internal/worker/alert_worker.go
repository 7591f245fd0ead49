// Package worker re-evaluates smart alerts whenever the ledger changes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// AlertWorker consumes ledger events and recomputes smart alerts for
// the affected user and month. It remembers every (user, month) it has
// seen so the periodic sweep can re-check them even when no new events
// arrive.
type AlertWorker struct {
	recommendations *services.RecommendationService

	mu   sync.Mutex
	seen map[watchKey]core.Date
}

type watchKey struct {
	userID int64
	month  string
}

func NewAlertWorker(recommendations *services.RecommendationService) *AlertWorker {
	return &AlertWorker{
		recommendations: recommendations,
		seen:            make(map[watchKey]core.Date),
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *AlertWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"entity", ev.Entity,
		"action", ev.Action,
		log.FieldUserID, ev.UserID,
		"id", ev.ID,
		log.FieldMonth, ev.Month)

	// Deletions carry no month; re-check everything known for the user.
	if ev.Month == "" {
		return w.evaluateUser(ctx, ev.UserID)
	}

	month, err := core.ParseDate(ev.Month)
	if err != nil {
		return fmt.Errorf("parse event month %q: %w", ev.Month, err)
	}

	w.remember(ev.UserID, month)
	return w.evaluate(ctx, ev.UserID, month)
}

// Sweep re-evaluates alerts for every (user, month) seen so far. Runs
// on a timer as a safety net for missed events.
func (w *AlertWorker) Sweep(ctx context.Context) error {
	w.mu.Lock()
	targets := make(map[watchKey]core.Date, len(w.seen))
	for k, v := range w.seen {
		targets[k] = v
	}
	w.mu.Unlock()

	if len(targets) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Running alert sweep", "targets", len(targets))

	var firstErr error
	for k, month := range targets {
		if err := w.evaluate(ctx, k.userID, month); err != nil {
			slog.ErrorContext(ctx, "Alert sweep evaluation failed",
				log.FieldUserID, k.userID,
				log.FieldMonth, k.month,
				log.FieldError, err.Error(),
				log.FieldComponent, log.ComponentWorker)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (w *AlertWorker) remember(userID int64, month core.Date) {
	w.mu.Lock()
	w.seen[watchKey{userID: userID, month: month.String()}] = month
	w.mu.Unlock()
}

func (w *AlertWorker) evaluateUser(ctx context.Context, userID int64) error {
	w.mu.Lock()
	var months []core.Date
	for k, v := range w.seen {
		if k.userID == userID {
			months = append(months, v)
		}
	}
	w.mu.Unlock()

	var firstErr error
	for _, month := range months {
		if err := w.evaluate(ctx, userID, month); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *AlertWorker) evaluate(ctx context.Context, userID int64, month core.Date) error {
	alerts, err := w.recommendations.SmartAlerts(ctx, userID, month)
	if err != nil {
		return fmt.Errorf("evaluate alerts: %w", err)
	}

	for _, a := range alerts {
		slog.InfoContext(ctx, "Alert",
			log.FieldUserID, userID,
			log.FieldMonth, month.String(),
			"type", a.Type,
			"severity", a.Severity,
			"message", a.Message,
			log.FieldComponent, log.ComponentAlerts)
	}
	if len(alerts) == 0 {
		slog.DebugContext(ctx, "No alerts", log.FieldUserID, userID, log.FieldMonth, month.String())
	}
	return nil
}
