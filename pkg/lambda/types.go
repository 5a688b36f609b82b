package lambda

// Request is a transport-agnostic HTTP request passed from a Lambda
// entrypoint to the shared handlers.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Headers     map[string]string `json:"headers"`
	QueryParams map[string]string `json:"query_params"`
	PathParams  map[string]string `json:"path_params"`
}

// Response is the transport-agnostic HTTP response returned by the
// shared handlers.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}
