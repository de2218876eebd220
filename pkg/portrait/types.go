package portrait

import "github.com/gomcpgo/replicate_portrait/pkg/types"

// DefaultPrompt asks for a natural full-body portrait built from the
// reference person's identity.
const DefaultPrompt = "Use the reference person identity and generate a realistic, natural full-body portrait, " +
	"standing pose, clean background, high detail, 35mm photography style."

// DefaultAspectRatio matches a standing full-body framing
const DefaultAspectRatio = "2:3"

// Params contains parameters for a portrait generation
type Params struct {
	ReferencePath string // Local path to the reference image (required)
	Model         string // Model alias or full model reference
	Prompt        string
	AspectRatio   string
	SaveOutputs   bool // Download outputs into local storage
}

// Result contains the outcome of a portrait generation
type Result struct {
	ID           string // Storage operation ID, empty unless outputs were saved
	PredictionID string
	Status       string
	Model        string
	ModelName    string
	Prompt       string
	OutputURLs   []string
	SavedPaths   []string
	ErrorDetail  string // Remote error payload for failed/canceled predictions
	Metrics      Metrics
}

// Succeeded reports whether the prediction reached the succeeded status
func (r *Result) Succeeded() bool {
	return r.Status == types.StatusSucceeded
}

// Metrics contains timing information
type Metrics struct {
	UploadTime     float64 // in seconds
	GenerationTime float64 // in seconds
}

// Error represents a failure inside the portrait pipeline
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Message
}
