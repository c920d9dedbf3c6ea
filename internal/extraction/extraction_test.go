package extraction_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/extraction"
	"github.com/veristamp/veristamp/internal/recognition"
)

// fakeClient returns canned responses keyed by image payload and counts
// concurrent calls.
type fakeClient struct {
	mu        sync.Mutex
	active    int
	maxActive int
	responses map[string]*recognition.Response
	failOn    map[string]error
	callCount int
}

func (f *fakeClient) Recognize(ctx context.Context, img recognition.Image, fieldKeys []string) (*recognition.Response, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.callCount++
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	key := string(img.Data)
	if err, ok := f.failOn[key]; ok {
		return nil, err
	}
	if resp, ok := f.responses[key]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("no canned response for %q", key)
}

func testConfig(mode string, workers int) *config.RecognitionConfig {
	return &config.RecognitionConfig{
		ProjectID: "test-project",
		Region:    "us-central1",
		Model:     "test-model",
		Timeout:   "5s",
		Mode:      mode,
		Workers:   workers,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func image(payload string) recognition.Image {
	return recognition.Image{Data: []byte(payload), ContentType: "image/png"}
}

func TestExtractReconcilesToRequestedKeys(t *testing.T) {
	client := &fakeClient{
		responses: map[string]*recognition.Response{
			"scan": {
				ExtractedData: map[string]string{
					"name":       "Ravi Kumar",
					"rollNumber": "R-104",
					"unexpected": "noise",
				},
				OCRText: "full page text",
			},
		},
	}

	o := extraction.NewOrchestrator(client, testConfig("permissive", 2), testLogger())

	result, err := o.Extract(context.Background(), image("scan"), []string{"name", "rollNumber"})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if len(result.ExtractedData) != 2 {
		t.Errorf("ExtractedData has %d keys, want 2: %v", len(result.ExtractedData), result.ExtractedData)
	}
	if _, ok := result.ExtractedData["unexpected"]; ok {
		t.Error("unrequested key survived reconciliation")
	}
	if result.OCRText != "full page text" {
		t.Errorf("OCRText = %q", result.OCRText)
	}
	if len(result.MissingFields) != 0 {
		t.Errorf("MissingFields = %v, want none", result.MissingFields)
	}
}

func TestExtractPermissiveFillsMissingKeys(t *testing.T) {
	client := &fakeClient{
		responses: map[string]*recognition.Response{
			"scan": {ExtractedData: map[string]string{"name": "Ravi"}},
		},
	}

	o := extraction.NewOrchestrator(client, testConfig("permissive", 2), testLogger())

	result, err := o.Extract(context.Background(), image("scan"), []string{"name", "rollNumber", "year"})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if result.ExtractedData["rollNumber"] != "" || result.ExtractedData["year"] != "" {
		t.Errorf("missing keys not filled empty: %v", result.ExtractedData)
	}
	if len(result.MissingFields) != 2 {
		t.Errorf("MissingFields = %v, want [rollNumber year]", result.MissingFields)
	}
}

func TestExtractStrictFailsOnMissingKeys(t *testing.T) {
	client := &fakeClient{
		responses: map[string]*recognition.Response{
			"scan": {ExtractedData: map[string]string{"name": "Ravi"}},
		},
	}

	o := extraction.NewOrchestrator(client, testConfig("strict", 2), testLogger())

	_, err := o.Extract(context.Background(), image("scan"), []string{"name", "rollNumber"})
	if !errors.Is(err, extraction.ErrMissingFields) {
		t.Errorf("error = %v, want ErrMissingFields", err)
	}
}

func TestExtractNoFields(t *testing.T) {
	o := extraction.NewOrchestrator(&fakeClient{}, testConfig("permissive", 2), testLogger())

	if _, err := o.Extract(context.Background(), image("scan"), nil); !errors.Is(err, extraction.ErrNoFields) {
		t.Errorf("error = %v, want ErrNoFields", err)
	}
}

func TestExtractBatchPreservesOrderAndIndependence(t *testing.T) {
	client := &fakeClient{
		responses: map[string]*recognition.Response{
			"first": {ExtractedData: map[string]string{"name": "A"}},
			"third": {ExtractedData: map[string]string{"name": "C"}},
		},
		failOn: map[string]error{
			"second": errors.New("unreadable scan"),
		},
	}

	o := extraction.NewOrchestrator(client, testConfig("permissive", 4), testLogger())

	batch, err := o.ExtractBatch(
		context.Background(),
		[]recognition.Image{image("first"), image("second"), image("third")},
		[]string{"name"},
	)
	if err != nil {
		t.Fatalf("ExtractBatch error: %v", err)
	}

	if batch.SuccessCount != 2 || batch.ErrorCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", batch.SuccessCount, batch.ErrorCount)
	}

	for i, item := range batch.Items {
		if item.Index != i {
			t.Errorf("item %d has index %d", i, item.Index)
		}
	}

	if batch.Items[0].Result == nil || batch.Items[0].Result.ExtractedData["name"] != "A" {
		t.Errorf("item 0 = %+v, want name A", batch.Items[0])
	}
	if batch.Items[1].Error == "" {
		t.Error("item 1 should carry the extraction error")
	}
	if batch.Items[2].Result == nil || batch.Items[2].Result.ExtractedData["name"] != "C" {
		t.Errorf("item 2 = %+v, want name C", batch.Items[2])
	}
}

func TestExtractBatchBoundsConcurrency(t *testing.T) {
	client := &fakeClient{responses: map[string]*recognition.Response{}}

	const workers = 2
	images := make([]recognition.Image, 8)
	for i := range images {
		payload := fmt.Sprintf("scan-%d", i)
		images[i] = image(payload)
		client.responses[payload] = &recognition.Response{
			ExtractedData: map[string]string{"name": payload},
		}
	}

	o := extraction.NewOrchestrator(client, testConfig("permissive", workers), testLogger())

	batch, err := o.ExtractBatch(context.Background(), images, []string{"name"})
	if err != nil {
		t.Fatalf("ExtractBatch error: %v", err)
	}

	if batch.SuccessCount != len(images) {
		t.Errorf("SuccessCount = %d, want %d", batch.SuccessCount, len(images))
	}
	if client.maxActive > workers {
		t.Errorf("max concurrent calls = %d, want <= %d", client.maxActive, workers)
	}
}

func TestExtractBatchEmpty(t *testing.T) {
	o := extraction.NewOrchestrator(&fakeClient{}, testConfig("permissive", 2), testLogger())

	if _, err := o.ExtractBatch(context.Background(), nil, []string{"name"}); !errors.Is(err, extraction.ErrNoImages) {
		t.Errorf("error = %v, want ErrNoImages", err)
	}
}
