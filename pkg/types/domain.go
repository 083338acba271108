package types

// ModelInfo describes the single embedding model a server instance serves.
type ModelInfo struct {
	// Hugging Face style identifier.
	// example: nomic-ai/nomic-embed-text-v1.5
	Name string `json:"name" example:"nomic-ai/nomic-embed-text-v1.5"`
	// Weights artifact on disk (empty for the remote backend).
	// example: /models/nomic-embed-text-v1.5.Q8_0.gguf
	Path string `json:"path,omitempty" example:"/models/nomic-embed-text-v1.5.Q8_0.gguf"`
	// Backend implementation: llama, onnx, remote or hash.
	// example: llama
	Backend string `json:"backend" example:"llama"`
	// Compute device the model is placed on.
	// example: cuda
	Device string `json:"device" example:"cuda"`
	// Width of the raw model output.
	// example: 768
	NativeDim int `json:"native_dim" example:"768"`
}
