package types

// EmbeddingRequest is the payload of POST /embed.
type EmbeddingRequest struct {
	// Texts to embed, in order. Between 1 and the server's max batch size.
	// example: ["The cat sat on the mat.","Dogs are loyal companions."]
	Texts []string `json:"texts" example:"The cat sat on the mat.,Dogs are loyal companions."`
	// Task prefix applied to every text. Defaults to search_document.
	// example: search_query
	TaskType string `json:"task_type,omitempty" example:"search_query" enums:"search_document,search_query,clustering,classification"`
	// Output width (Matryoshka truncation). Defaults to 768.
	// example: 256
	Dimensionality *int `json:"dimensionality,omitempty" example:"256" enums:"64,128,256,512,768"`
	// Rescale each vector to unit length. Defaults to true.
	// example: true
	Normalize *bool `json:"normalize,omitempty" example:"true"`
	// Texts per model invocation. Defaults to the server setting.
	// example: 16
	BatchSize *int `json:"batch_size,omitempty" example:"16"`
}

// EmbeddingResponse is returned by POST /embed.
type EmbeddingResponse struct {
	// One vector per input text, in input order.
	Embeddings [][]float32 `json:"embeddings"`
	// Model name serving the request.
	// example: nomic-ai/nomic-embed-text-v1.5
	Model string `json:"model" example:"nomic-ai/nomic-embed-text-v1.5"`
	// Task prefix that was applied.
	// example: search_query
	TaskType string `json:"task_type" example:"search_query"`
	// Width of each returned vector.
	// example: 256
	Dimensionality int `json:"dimensionality" example:"256"`
	// Number of vectors returned.
	// example: 2
	NumTexts int `json:"num_texts" example:"2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Whether the model is resident right now.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// example: 100
	MaxBatchSize int `json:"max_batch_size" example:"100"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	// example: embedd
	Name string `json:"name" example:"embedd"`
	// example: 1.0.0
	Version string `json:"version" example:"1.0.0"`
	// example: nomic-ai/nomic-embed-text-v1.5
	Model string `json:"model" example:"nomic-ai/nomic-embed-text-v1.5"`
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// example: onnx
	Backend string `json:"backend" example:"onnx"`
	// example: 100
	MaxBatchSize int `json:"max_batch_size" example:"100"`
	// example: 32
	DefaultBatchSize int `json:"default_batch_size" example:"32"`
	// Either "required" or "not required".
	// example: required
	Authentication string `json:"authentication" example:"required"`
	// Idle timeout in seconds, or the string "disabled".
	AutoUnloadTimeoutSeconds any `json:"auto_unload_timeout_seconds" swaggertype:"string" example:"3600"`
	// Accepted task_type values.
	TaskTypes []string `json:"task_types"`
	// Accepted dimensionality values.
	Dimensions []int `json:"dimensions"`
}

// UnloadResponse is returned by POST /admin/unload.
type UnloadResponse struct {
	// True when a resident model was released.
	// example: true
	Unloaded bool `json:"unloaded" example:"true"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state: unloaded, loading, ready or error.
	// example: ready
	State string `json:"state" example:"ready"`
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Identifier of the resident handle; changes on every load.
	// example: 3f1c2a0e-8d1b-4c6e-9d43-6b1f0d2b7a55
	InstanceID string `json:"instance_id,omitempty" example:"3f1c2a0e-8d1b-4c6e-9d43-6b1f0d2b7a55"`
	// Last load error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// example: 1700000000
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty" example:"1700000000"`
	// example: 1700000100
	LastUsedUnix int64 `json:"last_used_unix,omitempty" example:"1700000100"`
	// Seconds since the model last served a request.
	// example: 42
	IdleSeconds int64 `json:"idle_seconds" example:"42"`
	// Seconds until the sweeper may evict the model; 0 when disabled or unloaded.
	// example: 3558
	UnloadInSeconds int64 `json:"unload_in_seconds" example:"3558"`
	// example: 3600
	IdleTimeoutSeconds int64 `json:"idle_timeout_seconds" example:"3600"`
	// example: 60
	CheckIntervalSecs int64 `json:"check_interval_seconds" example:"60"`
	// example: 3
	LoadsTotal uint64 `json:"loads_total" example:"3"`
	// example: 0
	LoadFailuresTotal uint64 `json:"load_failures_total" example:"0"`
	// example: 2
	EvictionsTotal uint64 `json:"evictions_total" example:"2"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
