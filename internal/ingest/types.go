// Package ingest defines the schema consumed at Ariadne's boundary with the
// bytecode analyzer (component L: "Ingestor input shape") and an HTTP
// client for that external service. Extraction itself is explicitly out of
// scope (§1): a remote worker produces these records, and Ariadne consumes
// them to populate the graph store.
package ingest

// ClassRecord is one class or interface as produced by the analyzer.
type ClassRecord struct {
	FQN           string         `json:"fqn"`
	Type          string         `json:"type,omitempty"` // class|interface|enum|...
	ClassBasePath string         `json:"classBasePath,omitempty"`
	FilePath      string         `json:"filePath,omitempty"`
	LineNumber    int            `json:"lineNumber,omitempty"`
	ParentFQN     string         `json:"parentFqn,omitempty"`
	Modifiers     []string       `json:"modifiers,omitempty"`
	Annotations   []string       `json:"annotations,omitempty"`
	Inheritance   []string       `json:"inheritance,omitempty"`
	Methods       []MethodRecord `json:"methods,omitempty"`
	Fields        []FieldRecord  `json:"fields,omitempty"`
}

// MethodRecord is one method belonging to a ClassRecord.
type MethodRecord struct {
	FQN                 string            `json:"fqn"`
	Line                int               `json:"line,omitempty"`
	Modifiers           []string          `json:"modifiers,omitempty"`
	Signature           string            `json:"signature,omitempty"`
	Annotations         []string          `json:"annotations,omitempty"`
	IsRestEndpoint      bool              `json:"isRestEndpoint,omitempty"`
	IsEntryPoint        bool              `json:"isEntryPoint,omitempty"`
	EntryPointType      string            `json:"entryPointType,omitempty"` // http_api|scheduled|mq_consumer
	HTTPMethod          string            `json:"httpMethod,omitempty"`
	APIPath             string            `json:"apiPath,omitempty"`
	IsScheduled         bool              `json:"isScheduled,omitempty"`
	ScheduledCron       string            `json:"scheduledCron,omitempty"`
	IsMybatisBaseMapper bool              `json:"isMybatisBaseMapperCall,omitempty"`
	Attributes          map[string]string `json:"attributes,omitempty"`
	Calls               []CallRecord      `json:"calls,omitempty"`
}

// FieldRecord is one field belonging to a ClassRecord.
type FieldRecord struct {
	FQN       string `json:"fqn"`
	Name      string `json:"name"`
	Line      int    `json:"line,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// CallRecord is an edge from a method to another FQN.
type CallRecord struct {
	ToFQN               string `json:"toFqn"`
	Kind                string `json:"kind,omitempty"` // calls|instantiates|injects, defaults to calls
	Line                int    `json:"line,omitempty"`
	IsMybatisBaseMapper bool   `json:"isMybatisBaseMapperCall,omitempty"`
}

// frameworkPrefixes lists the well-known prefixes whose calls are dropped
// before insertion (4.L: "External calls whose toFqn starts with any
// well-known framework prefix ... are dropped before insertion").
var frameworkPrefixes = []string{
	"java.",
	"javax.",
	"jdk.",
	"org.springframework.",
	"org.apache.",
	"com.fasterxml.",
	"kotlin.",
	"scala.",
}

// IsFrameworkCall reports whether toFQN belongs to a well-known framework
// namespace and should be filtered out of the edge set.
func IsFrameworkCall(toFQN string) bool {
	for _, p := range frameworkPrefixes {
		if len(toFQN) >= len(p) && toFQN[:len(p)] == p {
			return true
		}
	}
	return false
}
