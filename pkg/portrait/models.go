package portrait

import "strings"

// Model IDs for identity-preserving image models on Replicate
const (
	// FLUX Kontext models - image editing guided by a reference image
	ModelKontextMax = "black-forest-labs/flux-kontext-max"
	ModelKontextPro = "black-forest-labs/flux-kontext-pro"
	ModelKontextDev = "black-forest-labs/flux-kontext-dev"

	// ByteDance SeedEdit
	ModelSeedEdit3 = "bytedance/seededit-3.0"
)

// DefaultModel is used when no model is specified
const DefaultModel = ModelKontextMax

// ModelInfo contains information about a model
type ModelInfo struct {
	ID          string
	Name        string
	Description string
}

// GetModelInfo returns information about a model
func GetModelInfo(modelID string) ModelInfo {
	models := map[string]ModelInfo{
		ModelKontextMax: {
			ID:          ModelKontextMax,
			Name:        "FLUX Kontext Max",
			Description: "Highest quality reference-guided generation",
		},
		ModelKontextPro: {
			ID:          ModelKontextPro,
			Name:        "FLUX Kontext Pro",
			Description: "Fast reference-guided generation",
		},
		ModelKontextDev: {
			ID:          ModelKontextDev,
			Name:        "FLUX Kontext Dev",
			Description: "Open-weights Kontext variant",
		},
		ModelSeedEdit3: {
			ID:          ModelSeedEdit3,
			Name:        "SeedEdit 3.0",
			Description: "Instruction-based image editing",
		},
	}

	if info, ok := models[modelID]; ok {
		return info
	}

	return ModelInfo{
		ID:   modelID,
		Name: modelID,
	}
}

// GetModelFromAlias returns the model ID from common aliases. Full model
// references (owner/name, optionally with a version hash) pass through.
func GetModelFromAlias(alias string) string {
	switch alias {
	case "", "kontext", "kontext-max", "max":
		return ModelKontextMax
	case "kontext-pro", "pro":
		return ModelKontextPro
	case "kontext-dev", "dev":
		return ModelKontextDev
	case "seededit", "seededit-3":
		return ModelSeedEdit3
	}

	if strings.Contains(alias, "/") {
		return alias
	}

	return DefaultModel
}
