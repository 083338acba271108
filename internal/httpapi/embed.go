package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"embedd/internal/embed"
	"embedd/pkg/types"
)

// decodeJSON enforces the JSON content type and body limit, then decodes
// into v. It writes the error response itself and reports success.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// buildRequest validates user-facing parameters into an embed.Request.
// Nil pointers select the documented defaults.
func (s *server) buildRequest(texts []string, task string, dim *int, normalize *bool, batch *int) (embed.Request, error) {
	req := embed.Request{Texts: texts, Dimensionality: embed.MaxDimension, Normalize: true}
	if len(texts) == 0 {
		return req, badRequest{"texts must contain at least one item"}
	}
	if len(texts) > s.opts.MaxBatchSize {
		return req, badRequest{fmt.Sprintf("texts must contain at most %d items", s.opts.MaxBatchSize)}
	}
	tt, err := embed.ParseTaskType(task)
	if err != nil {
		return req, badRequest{err.Error()}
	}
	req.TaskType = tt
	if dim != nil {
		if !embed.ValidDimension(*dim) {
			return req, badRequest{fmt.Sprintf("dimensionality must be one of %v", embed.Dimensions)}
		}
		req.Dimensionality = *dim
	}
	if normalize != nil {
		req.Normalize = *normalize
	}
	if batch != nil {
		if *batch < 1 || *batch > s.opts.MaxBatchSize {
			return req, badRequest{fmt.Sprintf("batch_size must be between 1 and %d", s.opts.MaxBatchSize)}
		}
		req.BatchSize = *batch
	}
	return req, nil
}

// run acquires the model and executes the pipeline. On failure it writes the
// error response, or nothing when the client has gone away.
//
// Shutdown stops requests still waiting for the model with a 503. Work that
// already holds the model runs on the request context alone so that
// http.Server.Shutdown can drain it.
func (s *server) run(w http.ResponseWriter, r *http.Request, req embed.Request) ([][]float32, bool) {
	start := time.Now()
	if serverBaseCtx.Err() != nil {
		writeJSONError(w, http.StatusServiceUnavailable, errShuttingDown.Error())
		return nil, false
	}

	vecs, err := func() ([][]float32, error) {
		actx, cancel := joinContexts(r.Context(), serverBaseCtx)
		mdl, release, err := s.svc.Acquire(actx)
		cancel()
		if err != nil {
			if r.Context().Err() == nil && serverBaseCtx.Err() != nil {
				return nil, errShuttingDown
			}
			return nil, err
		}
		defer release()
		return s.pipeline.Generate(r.Context(), mdl, req)
	}()
	if err != nil {
		if r.Context().Err() != nil {
			return nil, false
		}
		status := statusFor(err)
		if status >= 500 {
			zlog.Error().Err(err).Int("status", status).Int("texts", len(req.Texts)).Msg("embedding failed")
		}
		writeJSONError(w, status, err.Error())
		return nil, false
	}
	batch := req.BatchSize
	if batch == 0 {
		batch = s.opts.DefaultBatchSize
	}
	batches := embed.Batches(len(req.Texts), batch)
	observeEmbed(string(req.TaskType), len(req.Texts), batches)
	if ev := logEvent(r); ev != nil {
		ev.Int("texts", len(req.Texts)).
			Str("task_type", string(req.TaskType)).
			Int("dimensionality", req.Dimensionality).
			Int("batches", batches).
			Dur("dur", time.Since(start)).
			Msg("embedded")
	}
	return vecs, true
}

// handleEmbed godoc
// @Summary      Embed texts
// @Description  Prefixes each text with its task type, encodes in batches, applies layer normalization, truncates to the requested dimensionality and optionally L2-normalizes.
// @Tags         embeddings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      types.EmbeddingRequest  true  "Texts and options"
// @Success      200      {object}  types.EmbeddingResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      401      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /embed [post]
func (s *server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var body types.EmbeddingRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := s.buildRequest(body.Texts, body.TaskType, body.Dimensionality, body.Normalize, body.BatchSize)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	vecs, ok := s.run(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, types.EmbeddingResponse{
		Embeddings:     vecs,
		Model:          s.opts.Model.Name,
		TaskType:       string(req.TaskType),
		Dimensionality: req.Dimensionality,
		NumTexts:       len(vecs),
	})
}

// openAIEmbeddingRequest shadows the upstream dimensions field with a pointer
// so an explicit value is validated rather than read as the default.
type openAIEmbeddingRequest struct {
	openai.EmbeddingRequest
	Dimensions *int `json:"dimensions,omitempty"`
}

// inputTexts accepts a single string or an array of strings.
func inputTexts(in any) ([]string, error) {
	switch v := in.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, badRequest{"input must be a string or an array of strings"}
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, badRequest{"input must be a string or an array of strings"}
	}
}

// handleOpenAIEmbeddings godoc
// @Summary      OpenAI-compatible embeddings
// @Description  Accepts the OpenAI embeddings request shape. The task type comes from the X-Task-Type header (default search_document); vectors are always L2-normalized.
// @Tags         embeddings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Task-Type  header    string  false  "search_document, search_query, clustering or classification"
// @Success      200          {object}  map[string]any
// @Failure      400          {object}  types.ErrorResponse
// @Failure      401          {object}  types.ErrorResponse
// @Failure      503          {object}  types.ErrorResponse
// @Router       /v1/embeddings [post]
func (s *server) handleOpenAIEmbeddings(w http.ResponseWriter, r *http.Request) {
	var body openAIEmbeddingRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	texts, err := inputTexts(body.Input)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	req, err := s.buildRequest(texts, r.Header.Get("X-Task-Type"), body.Dimensions, nil, nil)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	vecs, ok := s.run(w, r, req)
	if !ok {
		return
	}
	data := make([]openai.Embedding, len(vecs))
	for i, v := range vecs {
		data[i] = openai.Embedding{Object: "embedding", Embedding: v, Index: i}
	}
	model := openai.EmbeddingModel(s.opts.Model.Name)
	if body.Model != "" {
		model = body.Model
	}
	writeJSON(w, openai.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  model,
	})
}
