package wikidata

// Envelope is the provider wrapper around a single scalar field in SPARQL
// results, e.g. {"type": "literal", "value": "1879-03-14T00:00:00Z"}
type Envelope struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Binding is one raw result row: variable name to enveloped value
type Binding map[string]Envelope

// SPARQLResponse represents the top-level response from the SPARQL endpoint
type SPARQLResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Record is a flat normalized result row: field name to scalar value.
// Fields absent from the raw binding carry the Missing marker.
type Record map[string]string

// Missing marks a field whose envelope or value was absent
const Missing = ""

// Get returns the value of a field; absent fields read as Missing
func (r Record) Get(field string) string {
	return r[field]
}

// Has reports whether the field is present with a non-missing value
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != Missing
}
