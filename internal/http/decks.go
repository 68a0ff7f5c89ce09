package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mrlokans/kindledeck/internal/pipeline"
)

const dateLayout = "2006-01-02"

// DecksController turns uploaded Kindle sources into deck artifacts.
type DecksController struct {
	pipeline      *pipeline.Pipeline
	maxUploadSize int64
}

func NewDecksController(p *pipeline.Pipeline, maxUploadSize int64) *DecksController {
	return &DecksController{
		pipeline:      p,
		maxUploadSize: maxUploadSize,
	}
}

type generateRequest struct {
	DeckName  string
	StartDate string
	EndDate   string
	Books     []string
	Languages []string
}

func (r generateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeckName, validation.RuneLength(0, 120)),
		validation.Field(&r.StartDate, validation.Date(dateLayout)),
		validation.Field(&r.EndDate, validation.Date(dateLayout)),
		validation.Field(&r.Books, validation.Each(validation.Required)),
		validation.Field(&r.Languages, validation.Each(validation.Required)),
	)
}

// Generate runs the full pipeline and streams the .apkg back as an
// attachment.
func (c *DecksController) Generate(ctx *gin.Context) {
	input, ok := c.buildInput(ctx)
	if !ok {
		return
	}

	artifact, err := c.pipeline.Run(ctx.Request.Context(), *input)
	if err != nil {
		respondPipelineError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	ctx.Data(http.StatusOK, "application/octet-stream", artifact.Data)
}

type previewResponse struct {
	Records   int      `json:"records"`
	Books     []string `json:"books"`
	Languages []string `json:"languages"`
}

// Preview parses the uploaded sources without filtering or enrichment and
// reports the distinct book titles and detected languages, so the caller
// can populate its filter widgets.
func (c *DecksController) Preview(ctx *gin.Context) {
	input, ok := c.buildInput(ctx)
	if !ok {
		return
	}

	records, err := c.pipeline.Collect(*input)
	if err != nil {
		respondPipelineError(ctx, err)
		return
	}
	c.pipeline.DetectLanguages(records)

	books := make(map[string]struct{})
	languages := make(map[string]struct{})
	for _, record := range records {
		if record.Book != "" {
			books[record.Book] = struct{}{}
		}
		languages[record.Language] = struct{}{}
	}

	ctx.JSON(http.StatusOK, previewResponse{
		Records:   len(records),
		Books:     sortedKeys(books),
		Languages: sortedKeys(languages),
	})
}

// buildInput assembles a pipeline input from the multipart form. On failure
// it writes the error response and returns ok=false.
func (c *DecksController) buildInput(ctx *gin.Context) (*pipeline.Input, bool) {
	req := generateRequest{
		DeckName:  ctx.PostForm("deck_name"),
		StartDate: ctx.PostForm("start_date"),
		EndDate:   ctx.PostForm("end_date"),
		Books:     ctx.PostFormArray("books"),
		Languages: ctx.PostFormArray("languages"),
	}
	if err := req.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	criteria := pipeline.Criteria{
		Books:     req.Books,
		Languages: req.Languages,
	}
	if req.StartDate != "" {
		start, _ := time.Parse(dateLayout, req.StartDate)
		criteria.Start = start
	}
	if req.EndDate != "" {
		end, _ := time.Parse(dateLayout, req.EndDate)
		criteria.End = pipeline.EndOfDay(end)
	}

	input := pipeline.Input{
		DeckName: req.DeckName,
		Criteria: criteria,
	}

	vocabDB, ok := c.readUpload(ctx, "vocab_db")
	if !ok {
		return nil, false
	}
	input.VocabDB = vocabDB

	clippings, ok := c.readUpload(ctx, "clippings")
	if !ok {
		return nil, false
	}
	if clippings != nil {
		input.Clippings = bytes.NewReader(clippings)
	}

	return &input, true
}

// readUpload reads an optional uploaded file, enforcing the size cap.
// Returns (nil, true) when the field is absent.
func (c *DecksController) readUpload(ctx *gin.Context, field string) ([]byte, bool) {
	file, header, err := ctx.Request.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, true
	}
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read %s upload: %v", field, err)})
		return nil, false
	}
	defer file.Close()

	if c.maxUploadSize > 0 && header.Size > c.maxUploadSize {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("%s exceeds the %d byte upload limit", field, c.maxUploadSize),
		})
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read %s upload: %v", field, err)})
		return nil, false
	}

	return data, true
}

// respondPipelineError maps the pipeline's error taxonomy to HTTP statuses:
// caller mistakes are 400s, export failures are 500s.
func respondPipelineError(ctx *gin.Context, err error) {
	var validationErr *pipeline.ValidationError
	var parseErr *pipeline.ParseError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &parseErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
