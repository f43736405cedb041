package domain

// Identidad del agente expuesta en todas las respuestas.
const (
	AgentName    = "resilience_coach"
	AgentVersion = "1.0.0"
)

// Status es el estado terminal de un request procesado por el workflow.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// RequestMetadata son los metadatos saneados que acompanan al input.
type RequestMetadata struct {
	UserID   string `json:"user_id,omitempty"`
	Language string `json:"language,omitempty"`
}

// RequestState es el unico registro mutable que atraviesa las etapas del
// workflow. Propiedad por etapa:
//
//	retrieve_memory -> MemoryContext, Pattern
//	analyze         -> Analysis
//	detect_crisis   -> CrisisScore (ninguna otra etapa puede alterarlo)
//	reason          -> Reasoning
//	recommend       -> Recommendation
//	support/crisis  -> Message
//	store_memory    -> StoredID
//	format          -> Status
//
// Ninguna etapa lee un campo antes de que la etapa que lo produce haya
// corrido; si una etapa falla deja el default seguro documentado.
type RequestState struct {
	InputText string
	Metadata  RequestMetadata
	UserID    string

	MemoryContext []Interaction
	Pattern       EmotionalPattern

	Analysis    AnalysisResult
	CrisisScore float64
	Reasoning   string

	Recommendation Recommendation
	Message        string

	StoredID string
	Status   Status
}

// Response es el objeto estructurado que devuelve el workflow al boundary.
type Response struct {
	Agent          string         `json:"agent"`
	Status         Status         `json:"status"`
	Analysis       AnalysisResult `json:"analysis"`
	Recommendation Recommendation `json:"recommendation"`
	Message        string         `json:"message"`
	CrisisScore    *float64       `json:"crisis_score,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	Reasoning      string         `json:"reasoning,omitempty"`
}
