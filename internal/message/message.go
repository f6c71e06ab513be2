package message

// Kind identifies the type of a request sent to the backend.
type Kind string

const (
	// KindQuery submits a text query.
	KindQuery Kind = "query"
	// KindGetContext asks the backend for its current context.
	KindGetContext Kind = "get_context"
)

// Status is the status field of a backend response.
type Status string

const (
	// StatusOK marks a successful response.
	StatusOK Status = "ok"
	// StatusError marks a failed request or an undecodable line.
	StatusError Status = "error"
	// StatusShutdown asks the host application to terminate.
	StatusShutdown Status = "shutdown"
)

// UnknownErrorText is the resolution text when a response carries neither
// a response nor a message.
const UnknownErrorText = "Unknown error"

// OverflowText resolves a request whose response line exceeded the size limit.
const OverflowText = "Error: response line too long"

// OverflowLine is the error response that stands in for an oversized line, so
// the request it answered still resolves in order.
const OverflowLine = `{"status":"error","message":"` + OverflowText + `"}`

// Request is a message sent to the backend.
type Request struct {
	Type    Kind              `json:"type"`
	ID      string            `json:"id,omitempty"`
	Payload map[string]string `json:"payload"`
}

// NewQuery builds a query request carrying text.
func NewQuery(text string) *Request {
	return &Request{
		Type:    KindQuery,
		Payload: map[string]string{"text": text},
	}
}

// NewGetContext builds a get_context request with an empty payload.
func NewGetContext() *Request {
	return &Request{
		Type:    KindGetContext,
		Payload: map[string]string{},
	}
}

// Response is a message received from the backend.
type Response struct {
	Status   Status  `json:"status,omitempty"`
	Response *string `json:"response,omitempty"`
	Message  *string `json:"message,omitempty"`
	ID       string  `json:"id,omitempty"`
}

// IsShutdown reports whether the backend asked the host to terminate.
func (r *Response) IsShutdown() bool {
	return r.Status == StatusShutdown
}

// IsError reports whether the response has error status.
func (r *Response) IsError() bool {
	return r.Status == StatusError
}

// Text selects the text a caller is resolved with: the response field if
// present, otherwise the message field, otherwise UnknownErrorText.
func (r *Response) Text() string {
	if r.Response != nil {
		return *r.Response
	}

	if r.Message != nil {
		return *r.Message
	}

	return UnknownErrorText
}
