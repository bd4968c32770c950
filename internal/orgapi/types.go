package orgapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CreateOrganizationRequest is the JSON body of the organization-creation call.
type CreateOrganizationRequest struct {
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
}

// ID is an organization identifier. The service may send it as a JSON string
// or a JSON number; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("orgapi: id must be a string or number")
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Organization is the service's view of a client organization.
type Organization struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Envelope is the response body shared by every organization endpoint. Decoding
// is lenient about field types: a body that is valid JSON never fails to decode,
// mistyped fields are simply treated as absent.
type Envelope struct {
	Success       bool
	Organization  *Organization
	Organizations []Organization
	Error         string
}

type wireEnvelope struct {
	Success       *bool          `json:"success,omitempty"`
	Organization  *Organization  `json:"organization,omitempty"`
	Organizations []Organization `json:"organizations,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// MarshalJSON writes the envelope in wire form.
func (e Envelope) MarshalJSON() ([]byte, error) {
	w := wireEnvelope{
		Success:       &e.Success,
		Organization:  e.Organization,
		Organizations: e.Organizations,
		Error:         e.Error,
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes any JSON value. Only a JSON object contributes fields.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	*e = Envelope{}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil
		}
		return err
	}
	if raw, ok := obj["success"]; ok {
		var v bool
		if json.Unmarshal(raw, &v) == nil {
			e.Success = v
		}
	}
	if raw, ok := obj["error"]; ok {
		var v string
		if json.Unmarshal(raw, &v) == nil {
			e.Error = v
		}
	}
	if raw, ok := obj["organization"]; ok {
		var org *Organization
		if json.Unmarshal(raw, &org) == nil {
			e.Organization = org
		}
	}
	if raw, ok := obj["organizations"]; ok {
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) == nil {
			e.Organizations = make([]Organization, 0, len(items))
			for _, item := range items {
				var org Organization
				if json.Unmarshal(item, &org) == nil {
					e.Organizations = append(e.Organizations, org)
				}
			}
		}
	}
	return nil
}

// Reply is the raw outcome of a create call: the HTTP status and the decoded body.
type Reply struct {
	StatusCode int
	Body       Envelope
}

// OK reports whether the status is in the 2xx range.
func (r Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// CreatedID returns the new organization's id when the body reports success
// and carries a usable id.
func (r Reply) CreatedID() (string, bool) {
	if !r.Body.Success || r.Body.Organization == nil {
		return "", false
	}
	id := strings.TrimSpace(r.Body.Organization.ID.String())
	if id == "" {
		return "", false
	}
	return id, true
}

// APIError is a non-2xx reply from a read endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	return "orgapi: " + msg + " (status " + strconv.Itoa(e.StatusCode) + ")"
}

// Is lets errors.Is match ErrNotFound on 404 replies.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
