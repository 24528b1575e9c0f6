package records

// Field identifies one rule-addressable record attribute. Conditions
// resolve their field name to a Field once at load time so evaluation
// never performs string lookups or reflection.
type Field int

const (
	FieldUnknown Field = iota
	FieldTime
	FieldSender
	FieldSubject
	FieldAttachments
	FieldRecipients
	FieldRecipientDomain
	FieldLeaver
	FieldTerminationDate
	FieldWordlistAttachment
	FieldWordlistSubject
	FieldBusinessUnit
	FieldDepartment
	FieldStatus
	FieldUserResponse
	FieldFinalOutcome
	FieldJustification
	FieldPolicyName
)

// fieldNames maps the wire names used in rule definitions to field
// identifiers. Names match the ingested column vocabulary.
var fieldNames = map[string]Field{
	"_time":                   FieldTime,
	"time":                    FieldTime,
	"sender":                  FieldSender,
	"subject":                 FieldSubject,
	"attachments":             FieldAttachments,
	"recipients":              FieldRecipients,
	"recipients_email_domain": FieldRecipientDomain,
	"leaver":                  FieldLeaver,
	"termination_date":        FieldTerminationDate,
	"wordlist_attachment":     FieldWordlistAttachment,
	"wordlist_subject":        FieldWordlistSubject,
	"bunit":                   FieldBusinessUnit,
	"department":              FieldDepartment,
	"status":                  FieldStatus,
	"user_response":           FieldUserResponse,
	"final_outcome":           FieldFinalOutcome,
	"justification":           FieldJustification,
	"policy_name":             FieldPolicyName,
}

var accessors = map[Field]func(*Record) string{
	FieldTime:               func(r *Record) string { return r.Time },
	FieldSender:             func(r *Record) string { return r.Sender },
	FieldSubject:            func(r *Record) string { return r.Subject },
	FieldAttachments:        func(r *Record) string { return r.Attachments },
	FieldRecipients:         func(r *Record) string { return r.Recipients },
	FieldRecipientDomain:    func(r *Record) string { return r.RecipientDomain },
	FieldLeaver:             func(r *Record) string { return r.Leaver },
	FieldTerminationDate:    func(r *Record) string { return r.TerminationDate },
	FieldWordlistAttachment: func(r *Record) string { return r.WordlistAttachment },
	FieldWordlistSubject:    func(r *Record) string { return r.WordlistSubject },
	FieldBusinessUnit:       func(r *Record) string { return r.BusinessUnit },
	FieldDepartment:         func(r *Record) string { return r.Department },
	FieldStatus:             func(r *Record) string { return r.Status },
	FieldUserResponse:       func(r *Record) string { return r.UserResponse },
	FieldFinalOutcome:       func(r *Record) string { return r.FinalOutcome },
	FieldJustification:      func(r *Record) string { return r.Justification },
	FieldPolicyName:         func(r *Record) string { return r.PolicyName },
}

// ResolveField resolves a rule-definition field name to its identifier.
// The second return value reports whether the name is known.
func ResolveField(name string) (Field, bool) {
	f, ok := fieldNames[name]
	return f, ok
}

// Value returns the record's raw value for the given field. Unknown
// fields yield the empty string.
func (r *Record) Value(f Field) string {
	if get, ok := accessors[f]; ok {
		return get(r)
	}
	return ""
}
