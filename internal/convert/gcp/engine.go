// Package gcp adapts Google Cloud's Document AI, Vision and Speech services
// into the convert.Engine boundary. It is the only place in the module that
// knows these clients exist; the orchestrator only ever sees convert.Engine.
package gcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/storage"
	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/dmorozov/docling-orchestrator/internal/convert"
	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/markdown"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// audioExts routes inputs with these extensions to Speech instead of
// Document AI/Vision.
var audioExts = map[string]bool{
	".wav": true, ".flac": true, ".mp3": true, ".ogg": true, ".opus": true,
}

// imageExts routes inputs with these extensions to Vision's synchronous
// image-annotation path rather than Document AI.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".bmp": true,
}

// Config names the Document AI processor and optional GCS staging bucket
// used for large inputs. The processor is assumed pre-provisioned; this
// package does not create or manage Document AI processors.
type Config struct {
	ProjectID        string
	Location         string // defaults to "us"
	ProcessorID      string
	ProcessorVersion string

	// StagingBucket, when set, is used to stage files larger than
	// InlineSizeLimitBytes to GCS; the synchronous ProcessDocument call then
	// reads the staged object instead of inline bytes. No batch call is made.
	StagingBucket        string
	InlineSizeLimitBytes int64
}

func (c Config) location() string {
	if c.Location == "" {
		return "us"
	}
	return c.Location
}

func (c Config) inlineLimit() int64 {
	if c.InlineSizeLimitBytes <= 0 {
		return 20 * 1024 * 1024
	}
	return c.InlineSizeLimitBytes
}

// Engine implements convert.Engine against live GCP clients. It is safe for
// concurrent use by multiple worker goroutines.
type Engine struct {
	cfg Config
	log *logger.Logger

	docClient    *documentai.DocumentProcessorClient
	visionClient *vision.ImageAnnotatorClient
	speechClient *speech.Client
	storage      *storage.Client
}

// NewEngine dials Document AI, Vision, Speech and Storage clients using
// application-default or JSON-keyed credentials from the environment.
func NewEngine(ctx context.Context, cfg Config, log *logger.Logger) (*Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("gcp: logger required")
	}
	opts := clientOptionsFromEnv()

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.location())
	docOpts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
	docClient, err := documentai.NewDocumentProcessorClient(ctx, docOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcp: documentai client: %w", err)
	}

	visionClient, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		_ = docClient.Close()
		return nil, fmt.Errorf("gcp: vision client: %w", err)
	}

	speechClient, err := speech.NewClient(ctx, opts...)
	if err != nil {
		_ = docClient.Close()
		_ = visionClient.Close()
		return nil, fmt.Errorf("gcp: speech client: %w", err)
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		_ = docClient.Close()
		_ = visionClient.Close()
		_ = speechClient.Close()
		return nil, fmt.Errorf("gcp: storage client: %w", err)
	}

	log.Info("gcp conversion engine initialized", "documentai_endpoint", endpoint, "processor", cfg.ProcessorID)

	return &Engine{
		cfg:          cfg,
		log:          log.With("component", "convert.gcp"),
		docClient:    docClient,
		visionClient: visionClient,
		speechClient: speechClient,
		storage:      storageClient,
	}, nil
}

// Close releases the underlying client connections.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	_ = e.docClient.Close()
	_ = e.visionClient.Close()
	_ = e.speechClient.Close()
	_ = e.storage.Close()
	return nil
}

// Convert dispatches on file extension and processing tier: audio goes to
// Speech, images and the lightweight tier go to Vision OCR, everything else
// goes to Document AI. A cancelled or expired ctx aborts the in-flight RPC
// and is returned as a Go error; engine-side failures (bad file, processor
// rejection) come back as an Outcome with Status == "error" instead.
func (e *Engine) Convert(ctx context.Context, req convert.Request) (convert.Outcome, error) {
	started := time.Now()
	ext := strings.ToLower(filepath.Ext(req.FilePath))

	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		return convert.Outcome{
			Status: "error",
			Error:  fmt.Sprintf("reading input file: %v", err),
		}, nil
	}

	var doc markdown.Document
	var ocrEngine string
	var convErr error

	switch {
	case audioExts[ext]:
		doc, ocrEngine, convErr = e.convertAudio(ctx, data, req)
	case imageExts[ext] || req.ProcessingTier == domain.TierLightweight:
		doc, ocrEngine, convErr = e.convertImage(ctx, data, mimeTypeFor(ext), req)
	default:
		doc, ocrEngine, convErr = e.convertDocument(ctx, data, mimeTypeFor(ext), req)
	}

	if convErr != nil {
		if ctx.Err() != nil {
			return convert.Outcome{}, ctx.Err()
		}
		return convert.Outcome{
			Status: "error",
			Error:  convErr.Error(),
		}, nil
	}

	elapsed := time.Since(started)
	md := markdown.Render(doc)

	return convert.Outcome{
		Status:   "success",
		Markdown: md,
		Metadata: domain.Metadata{
			PageCount:        len(doc.Pages),
			ProcessingTier:   req.ProcessingTier,
			Format:           strings.TrimPrefix(ext, "."),
			ProcessingTimeMs: elapsed.Milliseconds(),
			OCREngine:        ocrEngine,
		},
	}, nil
}

// convertDocument honors the caller's ctx deadline unchanged: the
// orchestrator already sized it from the job's computed timeout, and
// imposing a shorter internal cap here would make this engine silently
// override that budget for the common case (see convert.Engine's contract).
func (e *Engine) convertDocument(ctx context.Context, data []byte, mimeType string, req convert.Request) (markdown.Document, string, error) {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", e.cfg.ProjectID, e.cfg.location(), e.cfg.ProcessorID)
	if e.cfg.ProcessorVersion != "" {
		name = fmt.Sprintf("%s/processorVersions/%s", name, e.cfg.ProcessorVersion)
	}

	r := &documentaipb.ProcessRequest{Name: name}

	if int64(len(data)) > e.cfg.inlineLimit() && e.cfg.StagingBucket != "" {
		gcsURI, err := e.stageToGCS(ctx, req.TraceID, data, mimeType)
		if err != nil {
			return markdown.Document{}, "", fmt.Errorf("staging large file to gcs: %w", err)
		}
		r.Source = &documentaipb.ProcessRequest_GcsDocument{
			GcsDocument: &documentaipb.GcsDocument{GcsUri: gcsURI, MimeType: mimeType},
		}
	} else {
		r.Source = &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		}
	}

	if req.ForceFullPageOCR {
		r.FieldMask = &fieldmaskpb.FieldMask{Paths: []string{"text", "pages.paragraphs", "pages.pageNumber"}}
	}

	resp, err := e.docClient.ProcessDocument(ctx, r)
	if err != nil {
		return markdown.Document{}, "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return markdown.Document{Pages: []markdown.Page{{Number: 1}}}, "gcp_documentai", nil
	}

	return docAIToMarkdown(resp.Document), "gcp_documentai", nil
}

// convertImage honors the caller's ctx deadline unchanged, for the same
// reason as convertDocument.
func (e *Engine) convertImage(ctx context.Context, data []byte, mimeType string, req convert.Request) (markdown.Document, string, error) {
	ar := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: data},
		Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
	}
	resp, err := e.visionClient.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{ar},
	})
	if err != nil {
		return markdown.Document{}, "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return markdown.Document{Pages: []markdown.Page{{Number: 1}}}, "gcp_vision", nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return markdown.Document{}, "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	text := ""
	if r0.FullTextAnnotation != nil {
		text = strings.TrimSpace(r0.FullTextAnnotation.Text)
	}

	return markdown.Document{
		Pages: []markdown.Page{{
			Number: 1,
			Items:  []markdown.Item{{Kind: markdown.ItemText, Text: text}},
		}},
	}, "gcp_vision", nil
}

// convertAudio honors the caller's ctx deadline unchanged, for the same
// reason as convertDocument.
func (e *Engine) convertAudio(ctx context.Context, data []byte, req convert.Request) (markdown.Document, string, error) {
	lang := "en-US"
	if len(req.Languages) > 0 {
		lang = req.Languages[0]
	}

	recCfg := buildSpeechConfig(filepath.Ext(req.FilePath), lang)
	reqPB := recognizeRequest(recCfg, data)
	op, err := e.speechClient.LongRunningRecognize(ctx, &reqPB)
	if err != nil {
		return markdown.Document{}, "", fmt.Errorf("speech LongRunningRecognize: %w", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return markdown.Document{}, "", fmt.Errorf("speech operation wait: %w", err)
	}

	var b strings.Builder
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(r.Alternatives[0].Transcript))
	}

	return markdown.Document{
		Pages: []markdown.Page{{
			Number: 1,
			Items:  []markdown.Item{{Kind: markdown.ItemText, Text: strings.TrimSpace(b.String())}},
		}},
	}, "gcp_speech", nil
}

// stageToGCS uploads data under the staging bucket keyed by the job's trace
// ID so concurrent jobs never collide on the same object name, and returns
// the gs:// URI Document AI can read it back from.
func (e *Engine) stageToGCS(ctx context.Context, traceID string, data []byte, mimeType string) (string, error) {
	key := fmt.Sprintf("staging/%s%s", traceID, extForMimeType(mimeType))
	w := e.storage.Bucket(e.cfg.StagingBucket).Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", e.cfg.StagingBucket, key), nil
}

func extForMimeType(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tiff"
	default:
		return ".pdf"
	}
}

func mimeTypeFor(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/pdf"
	}
}
