package ir

// Argument and return type tags used in entry point signatures.
const (
	TypeI64      = "i64"
	TypeF64      = "f64"
	TypeF64Array = "f64[]"
	TypeString   = "string"
	TypeObject   = "object"
)

// EntryPointSig describes one callable entry point on the boundary.
type EntryPointSig struct {
	Name    string      `json:"name"`
	Purpose string      `json:"purpose"`
	Args    []NamedArg  `json:"args"` // declaration order
	Returns ReturnShape `json:"returns"`
}

// NamedArg represents a named argument with a type tag.
type NamedArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ReturnShape describes what an entry point hands back to the host.
// Type is a scalar tag, or TypeObject with Fields in declaration order.
type ReturnShape struct {
	Type   string     `json:"type"`
	Fields []NamedArg `json:"fields,omitempty"`
}

// Call outcomes recorded for each boundary call.
const (
	OutcomeOK                = "ok"
	OutcomeConversionError   = "conversion_error"
	OutcomeUnknownEntryPoint = "unknown_entry_point"
)

// CallRecord is the durable record of one boundary call.
//
// Result is set when Outcome is OutcomeOK; Error otherwise.
type CallRecord struct {
	ID            string   `json:"id"`
	FlowToken     string   `json:"flow_token"`
	EntryPoint    string   `json:"entry_point"`
	Args          IRObject `json:"args"`
	Seq           int64    `json:"seq"`
	Outcome       string   `json:"outcome"`
	Result        IRValue  `json:"result,omitempty"`
	Error         string   `json:"error,omitempty"`
	EngineVersion string   `json:"engine_version"`
	IRVersion     string   `json:"ir_version"`
}

// BenchRun is the durable record of one benchmark run.
//
// Report holds the run's canonical JSON report and Digest its
// ReportDigest. InternalNanos is a base-10 integer string, the exact sum
// of the per-call nanos, which can exceed what a host number holds.
type BenchRun struct {
	Seq           int64  `json:"seq"`
	ID            string `json:"id"`
	Label         string `json:"label"`
	Digest        string `json:"digest"`
	InternalNanos string `json:"internal_nanos"`
	Report        []byte `json:"-"`
}
