package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	obs "github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

// Recognized résumé media types.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type docFormat string

const (
	formatPDF  docFormat = "pdf"
	formatDOCX docFormat = "docx"
)

// Extraction paths recorded in metrics.
const (
	pathText     = "text"
	pathOCR      = "ocr"
	pathDegraded = "degraded"
)

// ExtractService turns uploaded résumés into candidate profiles.
type ExtractService struct {
	Renderer     domain.DocumentRenderer
	OCREnabled   bool
	MinTextChars int
}

// NewExtractService constructs an ExtractService from configuration.
func NewExtractService(r domain.DocumentRenderer, cfg config.Config) ExtractService {
	return ExtractService{Renderer: r, OCREnabled: cfg.OCREnabled, MinTextChars: cfg.ExtractMinTextChars}
}

// Extract resolves the document format, renders its text and derives the
// contact fields. Only an unrecognized format is an error; every rendering
// failure degrades to a profile derived from the filename.
func (s ExtractService) Extract(ctx domain.Context, doc domain.Document) (domain.CandidateProfile, error) {
	format, ok := resolveFormat(doc)
	if !ok {
		return domain.CandidateProfile{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, domain.UnsupportedFormatMessage)
	}
	ctx, lg := obsctx.WithLogAttrs(ctx, slog.String("filename", doc.Filename), slog.String("format", string(format)))

	text, path, err := s.render(ctx, format, doc.Data)
	if err == nil && text == "" {
		err = errors.New("no text extracted")
	}
	if err != nil {
		lg.Warn("extraction degraded", slog.Any("error", err))
		obs.RecordExtraction(string(format), pathDegraded)
		return degradedProfile(doc.Filename, format), nil
	}
	obs.RecordExtraction(string(format), path)

	c := ExtractContactFields(text)
	lg.Info("resume extracted", slog.String("path", path), slog.Int("chars", len(text)), slog.Bool("email_found", c.Email != ""), slog.Bool("phone_found", c.Phone != ""))
	return domain.CandidateProfile{Name: c.Name, Email: c.Email, Phone: c.Phone, SourceText: text}, nil
}

func (s ExtractService) render(ctx domain.Context, format docFormat, data []byte) (string, string, error) {
	if s.Renderer == nil {
		return "", "", fmt.Errorf("%w: no document renderer", domain.ErrInternal)
	}
	if format == formatDOCX {
		doc, err := s.Renderer.Render(ctx, data, MediaTypeDOCX, domain.OCRDisabled)
		if err != nil {
			return "", "", err
		}
		return textx.SanitizeText(strings.Join(doc.Paragraphs, "\n")), pathText, nil
	}

	doc, err := s.Renderer.Render(ctx, data, MediaTypePDF, domain.OCRDisabled)
	if err != nil {
		return "", "", err
	}
	text := pdfText(doc)
	if textx.CountAlnum(text) >= s.MinTextChars || !s.OCREnabled {
		return text, pathText, nil
	}

	obsctx.LoggerFromContext(ctx).Info("pdf text layer too thin, running ocr", slog.Int("alnum", textx.CountAlnum(text)))
	ocr, err := s.Renderer.Render(ctx, data, MediaTypePDF, domain.OCROnly)
	if err != nil {
		if text != "" {
			return text, pathText, nil
		}
		return "", "", err
	}
	if t := pdfText(ocr); t != "" {
		return t, pathOCR, nil
	}
	return text, pathText, nil
}

// pdfText joins pages with a space, keeping line breaks inside a page.
func pdfText(doc domain.RenderedDocument) string {
	blocks := doc.Pages
	if len(blocks) == 0 {
		blocks = doc.Paragraphs
	}
	return textx.SanitizeText(strings.Join(blocks, " "))
}

// resolveFormat checks the declared media type, then the filename extension,
// then the content itself.
func resolveFormat(doc domain.Document) (docFormat, bool) {
	mt, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(doc.MediaType)), ";")
	switch strings.TrimSpace(mt) {
	case MediaTypePDF:
		return formatPDF, true
	case MediaTypeDOCX:
		return formatDOCX, true
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return formatPDF, true
	case ".docx":
		return formatDOCX, true
	}
	if len(doc.Data) > 0 {
		detected := mimetype.Detect(doc.Data)
		switch {
		case detected.Is(MediaTypePDF):
			return formatPDF, true
		case detected.Is(MediaTypeDOCX):
			return formatDOCX, true
		}
	}
	return "", false
}

// degradedProfile derives a placeholder profile from the filename stem.
func degradedProfile(filename string, format docFormat) domain.CandidateProfile {
	base := filepath.Base(filename)
	stem, _, _ := strings.Cut(base, ".")
	name := textx.CollapseSpaces(strings.NewReplacer("_", " ", "-", " ").Replace(stem))
	if name == "" {
		name = FallbackCandidateName
	}
	label := "PDF"
	if format == formatDOCX {
		label = "DOCX"
	}
	return domain.CandidateProfile{Name: name, SourceText: label + " file: " + base}
}
