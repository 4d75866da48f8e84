// Package steps defines the stages of the campaign creation pipeline and the
// progress text shown for each.
package steps

// Step names
const (
	StepKeywords  = "extract_keywords"
	StepPolicy    = "rate_policy"
	StepSemantics = "describe_semantics"
	StepUpload    = "upload_asset"
	StepSave      = "save_campaign"
)

// Step categories
const (
	CategoryEnrichment = "enrichment"
	CategoryStorage    = "storage"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name     string
	Category string
	// Label is the human-readable progress text shown while the step runs.
	Label    string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	StepKeywords: {
		Name:     StepKeywords,
		Category: CategoryEnrichment,
		Label:    "Analyzing context & suggesting keywords...",
	},
	StepPolicy: {
		Name:     StepPolicy,
		Category: CategoryEnrichment,
		Label:    "Running auto-rater policy agent...",
	},
	StepSemantics: {
		Name:     StepSemantics,
		Category: CategoryEnrichment,
		Label:    "Training offline embedding & vectorizing...",
	},
	StepUpload: {
		Name:     StepUpload,
		Category: CategoryStorage,
		Label:    "Uploading assets to storage...",
	},
	StepSave: {
		Name:     StepSave,
		Category: CategoryStorage,
		Label:    "Saving campaign to database...",
	},
}

// order is the sequential execution order.
var order = []string{StepKeywords, StepPolicy, StepSemantics, StepUpload, StepSave}

// Plan returns the steps a submission runs, in order. The upload step is only
// planned when the draft carries an image.
func Plan(hasImage bool) []StepDefinition {
	plan := make([]StepDefinition, 0, len(order))
	for _, name := range order {
		if name == StepUpload && !hasImage {
			continue
		}
		plan = append(plan, StepRegistry[name])
	}
	return plan
}
