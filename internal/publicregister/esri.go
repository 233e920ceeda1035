package publicregister

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dErrors "coppice/pkg/domain-errors"
	"coppice/pkg/platform/circuit"
	"coppice/pkg/platform/sentinel"
)

// EsriGateway talks to the register bridge service fronting the Esri
// public registers. The bridge owns Esri authentication and layer mapping;
// this client only speaks its JSON API. A circuit breaker fails calls fast
// while the bridge is down so workflow operations are not held on timeouts;
// failed synchronizations surface as classified outcomes and are retried by
// reconciliation.
type EsriGateway struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewEsriGateway constructs a gateway against the bridge base URL.
func NewEsriGateway(baseURL string, client *http.Client) *EsriGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &EsriGateway{
		baseURL: baseURL,
		client:  client,
		breaker: circuit.New("register-bridge", circuit.WithFailureThreshold(5)),
		logger:  slog.Default(),
	}
}

func (g *EsriGateway) AddCaseToDecisionRegister(ctx context.Context, esriID int64, caseReference, statusText string, publishedAt time.Time) error {
	return g.post(ctx, "/decision-register/cases", map[string]any{
		"esri_id":        esriID,
		"case_reference": caseReference,
		"status":         statusText,
		"published_at":   publishedAt,
	})
}

func (g *EsriGateway) RemoveCaseFromDecisionRegister(ctx context.Context, esriID int64, caseReference string) error {
	return g.post(ctx, "/decision-register/removals", map[string]any{
		"esri_id":        esriID,
		"case_reference": caseReference,
	})
}

func (g *EsriGateway) RemoveCaseFromConsultationRegister(ctx context.Context, esriID int64, caseReference string, removedAt time.Time) error {
	return g.post(ctx, "/consultation-register/removals", map[string]any{
		"esri_id":        esriID,
		"case_reference": caseReference,
		"removed_at":     removedAt,
	})
}

// GetCaseCommentsByCaseReference reads consultation comments. Reads go
// through even when the circuit is open; a successful read is the probe
// that closes it again.
func (g *EsriGateway) GetCaseCommentsByCaseReference(ctx context.Context, caseReference string) ([]CaseComment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/consultation-register/comments?case_reference="+caseReference, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.recordFailure()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "register bridge unreachable")
	}
	defer resp.Body.Close()
	g.recordSuccess()

	if resp.StatusCode == http.StatusNotFound {
		return nil, sentinel.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("register bridge returned %d", resp.StatusCode)
	}

	var comments []CaseComment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return nil, fmt.Errorf("decode register comments: %w", err)
	}
	return comments, nil
}

func (g *EsriGateway) post(ctx context.Context, path string, body map[string]any) error {
	if g.breaker.IsOpen() {
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeTimeout, "register bridge circuit open")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.recordFailure()
		return dErrors.Wrap(err, dErrors.CodeInternal, "register bridge unreachable")
	}
	defer resp.Body.Close()

	// 5xx counts against the breaker; 4xx means the bridge is healthy and
	// rejected this specific request.
	if resp.StatusCode >= http.StatusInternalServerError {
		g.recordFailure()
	} else {
		g.recordSuccess()
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("register bridge returned %d for %s", resp.StatusCode, path)
	}
	return nil
}

func (g *EsriGateway) recordFailure() {
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.Warn("register bridge circuit opened", "breaker", g.breaker.Name())
	}
}

func (g *EsriGateway) recordSuccess() {
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.Info("register bridge circuit closed", "breaker", g.breaker.Name())
	}
}
