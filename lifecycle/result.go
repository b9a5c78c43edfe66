package lifecycle

// Status is the outcome of a lifecycle operation.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusUnknown Status = "Unknown"
)

// Result is the uniform outcome of one lifecycle operation. It is
// serialized immediately to the response channel and never persisted.
type Result struct {
	Status Status `json:"status"`
	// Resources lists affected resource identifiers. Never null on the
	// wire; empty when the operation touched nothing or failed.
	Resources []string       `json:"resources"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Success builds a successful result over the given resources.
func Success(resources []string, metadata map[string]any) Result {
	if resources == nil {
		resources = []string{}
	}
	return Result{Status: StatusSuccess, Resources: resources, Metadata: metadata}
}

// Failed builds a failed result carrying the error message. Resources
// are omitted on failure.
func Failed(err error) Result {
	r := Result{Status: StatusFailed, Resources: []string{}}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
