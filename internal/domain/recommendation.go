package domain

// StrategyKey identifica una tecnica de afrontamiento del catalogo fijo.
type StrategyKey string

const (
	StrategyBreathing     StrategyKey = "breathing_exercise"
	StrategyGrounding     StrategyKey = "grounding_technique"
	StrategyRelaxation    StrategyKey = "progressive_relaxation"
	StrategyMeditation    StrategyKey = "mindful_meditation"
	StrategyAffirmations  StrategyKey = "positive_affirmations"
	StrategyPhysical      StrategyKey = "physical_activity"
	StrategyJournaling    StrategyKey = "journaling"
	StrategySocial        StrategyKey = "social_connection"
	// StrategyCrisisSupport es el override reservado para la ruta de crisis.
	StrategyCrisisSupport StrategyKey = "crisis_support"
)

// StrategyKeys enumera las 8 claves seleccionables (sin el override de crisis).
var StrategyKeys = []StrategyKey{
	StrategyBreathing,
	StrategyGrounding,
	StrategyRelaxation,
	StrategyMeditation,
	StrategyAffirmations,
	StrategyPhysical,
	StrategyJournaling,
	StrategySocial,
}

// IsKnownStrategy indica si la clave pertenece al catalogo (incluida la de crisis).
func IsKnownStrategy(key StrategyKey) bool {
	if key == StrategyCrisisSupport {
		return true
	}
	for _, k := range StrategyKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Recommendation es la estrategia elegida para un request.
// Name se usa internamente y se omite en la respuesta final (etapa format).
type Recommendation struct {
	Type      StrategyKey `json:"type"`
	Name      string      `json:"name,omitempty"`
	Steps     []string    `json:"steps"`
	Reasoning string      `json:"reasoning,omitempty"`
}
