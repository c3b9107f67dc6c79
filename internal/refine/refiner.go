// internal/refine/refiner.go
// Package refine orchestrates the refinement pipeline: detect the shape of an
// input document, validate its structure, extract and assemble the canonical
// record set, persist it and announce it. Documents are isolated from each
// other; one failing document is reported and skipped while the batch
// continues.
package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chatdlp/telegram-refiner-go/internal/artifact"
	"github.com/chatdlp/telegram-refiner-go/internal/assemble"
	errordefs "github.com/chatdlp/telegram-refiner-go/internal/errors"
	"github.com/chatdlp/telegram-refiner-go/internal/event"
	"github.com/chatdlp/telegram-refiner-go/internal/extract"
	"github.com/chatdlp/telegram-refiner-go/internal/metrics"
	"github.com/chatdlp/telegram-refiner-go/internal/model"
	"github.com/chatdlp/telegram-refiner-go/internal/publish"
	"github.com/chatdlp/telegram-refiner-go/internal/schema"
	"github.com/chatdlp/telegram-refiner-go/internal/shape"
	"github.com/chatdlp/telegram-refiner-go/internal/storage"
)

// Refiner drives one or more documents through the pipeline.
type Refiner struct {
	validator *schema.Validator
	store     storage.Store
	events    event.Publisher
	publisher publish.Publisher
	sealer    *artifact.Sealer
	metrics   *metrics.Metrics
	log       *slog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New wires a refiner from its collaborators. events, publisher and sealer
// may be nil; the corresponding steps are skipped.
func New(store storage.Store, events event.Publisher, publisher publish.Publisher, sealer *artifact.Sealer, log *slog.Logger) (*Refiner, error) {
	if store == nil {
		return nil, fmt.Errorf("refiner requires a store")
	}
	if log == nil {
		log = slog.Default()
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("load validation schemas: %w", err)
	}
	return &Refiner{
		validator: validator,
		store:     store,
		events:    events,
		publisher: publisher,
		sealer:    sealer,
		metrics:   metrics.NewMetrics(),
		log:       log,
		now:       time.Now,
	}, nil
}

// Outcome is the successful result of refining one document.
type Outcome struct {
	Shape     shape.Shape
	RecordSet *model.RecordSet
}

// Process refines one raw document end to end: shape detection, structural
// validation, extraction, assembly, persistence and the created event.
func (r *Refiner) Process(ctx context.Context, raw []byte) (*Outcome, error) {
	ctx, span := otel.Tracer("telegram-refiner").Start(ctx, "Process")
	defer span.End()

	correlationID := uuid.New().String()
	log := r.log.With("correlation_id", correlationID)

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		span.SetStatus(codes.Error, "undecodable input")
		return nil, errordefs.Wrap(errordefs.RFN_INPUT_DECODE, "input is not a JSON object", correlationID, err)
	}

	detected, recognized := shape.Detect(probe)
	if !recognized {
		// Fallback shape, not an error: the document is still processed.
		log.Warn("unrecognized source discriminator, assuming miner shape")
		r.metrics.AnomalyTotal.WithLabelValues("unrecognized_shape").Inc()
	}
	span.SetAttributes(
		attribute.String("shape", string(detected)),
		attribute.Bool("shape_recognized", recognized),
	)

	validateStart := r.now()
	err := r.validator.Validate(detected, raw)
	r.metrics.SchemaValidationDuration.WithLabelValues(string(detected), validationStatus(err)).
		Observe(time.Since(validateStart).Seconds())
	r.metrics.SchemaValidationTotal.WithLabelValues(string(detected), validationStatus(err)).Inc()
	if err != nil {
		span.SetStatus(codes.Error, "schema rejected")
		return nil, errordefs.Wrap(errordefs.RFN_SCHEMA_REJECT, "document failed structural validation", correlationID, err)
	}

	seed, err := extract.ForShape(detected, log).Extract(raw)
	if err != nil {
		span.SetStatus(codes.Error, "extraction failed")
		return nil, errordefs.Wrap(errordefs.RFN_EXTRACT, "document extraction failed", correlationID, err)
	}

	rs := assemble.Build(*seed, r.now().UTC())
	span.SetAttributes(
		attribute.String("submission_id", rs.Submission.SubmissionID),
		attribute.Int("chat_count", len(rs.Chats)),
		attribute.Int("message_count", rs.MessageCount()),
	)
	r.countMessages(rs)

	storeStart := r.now()
	err = r.store.SaveRecordSet(ctx, rs)
	r.metrics.StorageOperationTotal.WithLabelValues("save_record_set", operationStatus(err)).Inc()
	r.metrics.StorageOperationDuration.WithLabelValues("save_record_set", operationStatus(err)).
		Observe(time.Since(storeStart).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, "persistence failed")
		if errors.Is(err, storage.ErrConflict) {
			return nil, errordefs.Wrap(errordefs.RFN_CONFLICT, "record set already persisted", correlationID, err)
		}
		return nil, errordefs.Wrap(errordefs.RFN_STORAGE, "record set persistence failed", correlationID, err)
	}

	if r.events != nil {
		publishStart := r.now()
		err := r.events.PublishSubmissionCreated(ctx, string(detected), rs)
		r.metrics.EventPublishTotal.WithLabelValues("submission.created", operationStatus(err)).Inc()
		r.metrics.EventPublishDuration.WithLabelValues("submission.created", operationStatus(err)).
			Observe(time.Since(publishStart).Seconds())
		if err != nil {
			// The record set is already durable; a lost event is an anomaly,
			// not a document failure.
			log.Warn("submission created event not published", "error", err)
			r.metrics.AnomalyTotal.WithLabelValues("event_publish_failed").Inc()
		}
	}

	log.Info("document refined",
		"shape", detected,
		"submission_id", rs.Submission.SubmissionID,
		"chats", len(rs.Chats),
		"messages", rs.MessageCount())

	return &Outcome{Shape: detected, RecordSet: rs}, nil
}

// countMessages feeds the per-content-type counters and the unresolved-sender
// anomaly counter for one assembled record set.
func (r *Refiner) countMessages(rs *model.RecordSet) {
	for _, cr := range rs.Chats {
		for _, msg := range cr.Messages {
			r.metrics.MessageTotal.WithLabelValues(string(msg.ContentType)).Inc()
			if msg.SenderID == model.SenderUnknown {
				r.metrics.AnomalyTotal.WithLabelValues("unresolved_sender").Inc()
			}
		}
	}
}

func validationStatus(err error) string {
	if err != nil {
		return "rejected"
	}
	return "accepted"
}

func operationStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// DocumentReport is the per-document entry of a run summary.
type DocumentReport struct {
	Path         string      `json:"path"`
	Shape        shape.Shape `json:"shape,omitempty"`
	SubmissionID string      `json:"submissionId,omitempty"`
	ChatCount    int         `json:"chatCount"`
	MessageCount int         `json:"messageCount"`
	Error        string      `json:"error,omitempty"`
}

// Summary describes one batch run.
type Summary struct {
	StartedAt         time.Time        `json:"startedAt"`
	FinishedAt        time.Time        `json:"finishedAt"`
	Processed         int              `json:"processed"`
	Failed            int              `json:"failed"`
	Documents         []DocumentReport `json:"documents"`
	ArtifactReference string           `json:"artifactReference,omitempty"`
	ArtifactURL       string           `json:"artifactUrl,omitempty"`
}

// Run refines a batch of document files. Failures are captured per document
// in the summary; Run itself only fails when the batch cannot run at all.
// After the batch, the refined record sets are sealed and published as one
// artifact when a sealer and publisher are configured.
func (r *Refiner) Run(ctx context.Context, paths []string) (*Summary, error) {
	ctx, span := otel.Tracer("telegram-refiner").Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(paths)))

	summary := &Summary{StartedAt: r.now().UTC()}
	var refined []*model.RecordSet

	for _, path := range paths {
		report := DocumentReport{Path: path}
		docStart := r.now()

		outcome, err := r.refineFile(ctx, path)
		if err != nil {
			r.log.Error("document failed", "path", path, "error", err)
			report.Error = err.Error()
			summary.Failed++
			r.metrics.DocumentTotal.WithLabelValues(shapeLabel(outcome), "failed").Inc()
		} else {
			report.Shape = outcome.Shape
			report.SubmissionID = outcome.RecordSet.Submission.SubmissionID
			report.ChatCount = len(outcome.RecordSet.Chats)
			report.MessageCount = outcome.RecordSet.MessageCount()
			summary.Processed++
			refined = append(refined, outcome.RecordSet)
			r.metrics.DocumentTotal.WithLabelValues(string(outcome.Shape), "refined").Inc()
			r.metrics.DocumentDuration.WithLabelValues(string(outcome.Shape), "refined").
				Observe(time.Since(docStart).Seconds())
		}
		summary.Documents = append(summary.Documents, report)
	}

	if len(refined) > 0 {
		if err := r.publishArtifact(ctx, refined, summary); err != nil {
			r.log.Warn("artifact not published", "error", err)
			r.metrics.AnomalyTotal.WithLabelValues("artifact_publish_failed").Inc()
		}
	}

	summary.FinishedAt = r.now().UTC()
	return summary, nil
}

// refineFile reads and refines one document file.
func (r *Refiner) refineFile(ctx context.Context, path string) (*Outcome, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errordefs.Wrap(errordefs.RFN_INPUT_READ, "input file unreadable", uuid.New().String(), err)
	}
	return r.Process(ctx, raw)
}

// publishArtifact seals the batch's record sets into one encrypted artifact
// and uploads it.
func (r *Refiner) publishArtifact(ctx context.Context, refined []*model.RecordSet, summary *Summary) error {
	if r.sealer == nil || r.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(refined)
	if err != nil {
		return errordefs.Wrap(errordefs.RFN_ENCRYPT, "artifact encoding failed", "", err)
	}
	sealed, err := r.sealer.Seal(payload)
	if err != nil {
		return errordefs.Wrap(errordefs.RFN_ENCRYPT, "artifact sealing failed", "", err)
	}

	name := fmt.Sprintf("refined-%s.json.enc", r.now().UTC().Format("20060102T150405Z"))
	result, err := r.publisher.Publish(ctx, name, sealed)
	if err != nil {
		return errordefs.Wrap(errordefs.RFN_PUBLISH, "artifact upload failed", "", err)
	}

	summary.ArtifactReference = result.Reference
	summary.ArtifactURL = result.URL
	if result.Reference != "" {
		r.log.Info("artifact published", "name", name, "reference", result.Reference)
	}
	return nil
}

func shapeLabel(outcome *Outcome) string {
	if outcome == nil {
		return "unknown"
	}
	return string(outcome.Shape)
}

// WriteSummary writes the run summary JSON into dir.
func WriteSummary(summary *Summary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	path := filepath.Join(dir, "summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// WriteDescriptor writes the canonical schema descriptor JSON into dir so
// downstream consumers can materialize the refined tables.
func WriteDescriptor(desc schema.Descriptor, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode descriptor: %w", err)
	}
	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write descriptor: %w", err)
	}
	return path, nil
}
