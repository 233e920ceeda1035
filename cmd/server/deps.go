package main

import (
	"context"
	"log/slog"
	"time"

	"coppice/internal/fla/service"
	"coppice/internal/publicregister"
	"coppice/internal/reconcile"
)

// appStore is the union of the persistence contracts the wired components
// consume. Both the Postgres and in-memory stores satisfy it.
type appStore interface {
	service.ApplicationStore
	reconcile.ApplicationStore
	publicregister.RegisterStore
}

// txBoundary is the transaction contract shared by the decision service and
// the reconciliation runner.
type txBoundary interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// passthroughTx runs the function directly. The in-memory stores apply each
// write atomically, so there is no transaction to open.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// loggingGateway stands in for the external register in local development.
// Every call succeeds and is logged.
type loggingGateway struct {
	log *slog.Logger
}

func (g loggingGateway) AddCaseToDecisionRegister(ctx context.Context, esriID int64, caseReference, statusText string, publishedAt time.Time) error {
	g.log.InfoContext(ctx, "register add (dev)", "esri_id", esriID, "case", caseReference, "status", statusText, "published_at", publishedAt)
	return nil
}

func (g loggingGateway) RemoveCaseFromDecisionRegister(ctx context.Context, esriID int64, caseReference string) error {
	g.log.InfoContext(ctx, "decision register removal (dev)", "esri_id", esriID, "case", caseReference)
	return nil
}

func (g loggingGateway) RemoveCaseFromConsultationRegister(ctx context.Context, esriID int64, caseReference string, removedAt time.Time) error {
	g.log.InfoContext(ctx, "consultation register removal (dev)", "esri_id", esriID, "case", caseReference, "removed_at", removedAt)
	return nil
}

func (g loggingGateway) GetCaseCommentsByCaseReference(ctx context.Context, caseReference string) ([]publicregister.CaseComment, error) {
	g.log.InfoContext(ctx, "register comments read (dev)", "case", caseReference)
	return nil, nil
}
