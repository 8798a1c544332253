package domain

// Envelope statuses used by the bookstore API and both cart backends.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the normalized result shape shared by the server and the
// local cart store, so callers never need to know which one answered.
type Envelope[T any] struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    T      `json:"data"`
}

// Success wraps data in a success envelope.
func Success[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Message: message, Status: StatusSuccess, Data: data}
}

// OK reports whether the envelope carries a success status.
func (e Envelope[T]) OK() bool {
	return e.Status == StatusSuccess
}
