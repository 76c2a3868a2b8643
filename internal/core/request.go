package core

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Defaults applied to newly created requests.
const (
	DefaultMethod      = "GET"
	DefaultRequestName = "New Request"
)

// Methods lists the HTTP methods a saved request may use.
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// Request is a saved description of an HTTP call.
type Request struct {
	ID          string `json:"id" yaml:"id"`
	Method      string `json:"method" yaml:"method"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
}

// NewRequest creates a request with default method and name.
func NewRequest(id string) Request {
	return Request{
		ID:     id,
		Method: DefaultMethod,
		Name:   DefaultRequestName,
	}
}

// Validate checks a request draft before it is saved from an editing surface.
func (r Request) Validate() error {
	methods := make([]interface{}, 0, len(Methods))
	for _, m := range Methods {
		methods = append(methods, m)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Method, validation.Required, validation.In(methods...)),
	)
}

// WithMethod returns a copy of the request with the method upper-cased.
func (r Request) WithMethod(method string) Request {
	r.Method = strings.ToUpper(strings.TrimSpace(method))
	return r
}

