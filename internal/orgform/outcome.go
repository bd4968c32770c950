package orgform

// Outcome is the result of one submission: a success, with or without the new
// organization's id, or a failure with a user-facing message.
type Outcome struct {
	ok      bool
	id      string
	message string
}

// Succeeded builds a success outcome. An empty id means the service did not
// return a usable organization.
func Succeeded(organizationID string) Outcome {
	return Outcome{ok: true, id: organizationID}
}

// Failed builds a failure outcome.
func Failed(message string) Outcome {
	return Outcome{message: message}
}

func (o Outcome) OK() bool                { return o.ok }
func (o Outcome) OrganizationID() string  { return o.id }
func (o Outcome) HasOrganizationID() bool { return o.ok && o.id != "" }
func (o Outcome) Message() string         { return o.message }

func (o Outcome) String() string {
	switch {
	case o.HasOrganizationID():
		return "success(" + o.id + ")"
	case o.ok:
		return "success"
	default:
		return "failure(" + o.message + ")"
	}
}
