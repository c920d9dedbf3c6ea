// Package extraction orchestrates recognition calls against template field
// schemas. It reconciles model output with the requested keys and fans out
// batch requests with bounded concurrency, keeping per-image results
// independent so one bad scan never sinks a batch.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/recognition"
)

// Result is the reconciled outcome of extracting one image. ExtractedData
// contains exactly the requested keys. MissingFields lists keys the model
// could not find; it is only populated in permissive mode, since strict
// mode fails the image instead.
type Result struct {
	ExtractedData map[string]string           `json:"extractedData"`
	OCRText       string                      `json:"ocrText"`
	Locations     []recognition.FieldLocation `json:"ocrLocations"`
	MissingFields []string                    `json:"missingFields,omitempty"`
}

// BatchItem holds the outcome for one image in a batch, at its original
// position. Exactly one of Result and Error is set.
type BatchItem struct {
	Index  int     `json:"index"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult aggregates a batch extraction. Items preserve input order.
type BatchResult struct {
	Items        []BatchItem `json:"items"`
	SuccessCount int         `json:"successCount"`
	ErrorCount   int         `json:"errorCount"`
}

// Orchestrator coordinates recognition calls and reconciliation.
type Orchestrator struct {
	client recognition.Client
	cfg    *config.RecognitionConfig
	logger *slog.Logger
}

func NewOrchestrator(client recognition.Client, cfg *config.RecognitionConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Extract runs recognition for a single image against the given field keys.
// The call is all-or-nothing: any recognition or reconciliation failure
// returns an error with no partial result.
func (o *Orchestrator) Extract(ctx context.Context, img recognition.Image, fieldKeys []string) (*Result, error) {
	if len(fieldKeys) == 0 {
		return nil, ErrNoFields
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.TimeoutDuration())
	defer cancel()

	resp, err := o.client.Recognize(ctx, img, fieldKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	result, err := o.reconcile(resp, fieldKeys)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("image extracted",
		"fields", len(fieldKeys),
		"missing", len(result.MissingFields),
	)

	return result, nil
}

// ExtractBatch extracts each image independently with bounded concurrency.
// The returned items are in input order; failures are recorded per item and
// never abort the remaining images. An error is returned only when the
// batch itself is unusable.
func (o *Orchestrator) ExtractBatch(ctx context.Context, images []recognition.Image, fieldKeys []string) (*BatchResult, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if len(fieldKeys) == 0 {
		return nil, ErrNoFields
	}

	items := make([]BatchItem, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerCount(len(images)))

	for i := range images {
		g.Go(func() error {
			if gctx.Err() != nil {
				items[i] = BatchItem{Index: i, Error: gctx.Err().Error()}
				return nil
			}

			result, err := o.Extract(gctx, images[i], fieldKeys)
			if err != nil {
				items[i] = BatchItem{Index: i, Error: err.Error()}
				return nil
			}

			items[i] = BatchItem{Index: i, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	batch := &BatchResult{Items: items}
	for _, item := range items {
		if item.Error == "" {
			batch.SuccessCount++
		} else {
			batch.ErrorCount++
		}
	}

	return batch, nil
}

// reconcile trims model output down to the requested keys. Unrequested keys
// are dropped. Missing keys fail the image in strict mode and are filled
// with empty values otherwise.
func (o *Orchestrator) reconcile(resp *recognition.Response, fieldKeys []string) (*Result, error) {
	data := make(map[string]string, len(fieldKeys))
	var missing []string

	for _, key := range fieldKeys {
		value, ok := resp.ExtractedData[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		data[key] = value
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		if o.cfg.Strict() {
			return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
		}
		for _, key := range missing {
			data[key] = ""
		}
	}

	return &Result{
		ExtractedData: data,
		OCRText:       resp.OCRText,
		Locations:     resp.Locations,
		MissingFields: missing,
	}, nil
}

func (o *Orchestrator) workerCount(items int) int {
	if items < o.cfg.Workers {
		return items
	}
	return o.cfg.Workers
}
