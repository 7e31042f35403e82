package report

import "fmt"

// Severity levels for validation messages.
type Severity string

const (
	Fatal   Severity = "FATAL"
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
	Info    Severity = "INFO"
)

// Message represents a single validation finding.
type Message struct {
	Severity Severity `json:"severity"`
	CheckID  string   `json:"check_id"`
	Message  string   `json:"message"`
	Args     []string `json:"args,omitempty"`
	Location string   `json:"location,omitempty"`
}

func (m Message) String() string {
	if m.Location != "" {
		return fmt.Sprintf("%s(%s): %s [%s]", m.Severity, m.CheckID, m.Message, m.Location)
	}
	return fmt.Sprintf("%s(%s): %s", m.Severity, m.CheckID, m.Message)
}

// Report collects all messages from a validation run.
type Report struct {
	// Document and Revision describe what was validated.
	Document string    `json:"document,omitempty"`
	Revision string    `json:"revision,omitempty"`
	Messages []Message `json:"messages"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// Add appends a message to the report.
func (r *Report) Add(sev Severity, checkID string, msg string) {
	r.Messages = append(r.Messages, Message{
		Severity: sev,
		CheckID:  checkID,
		Message:  msg,
	})
}

// AddWithLocation appends a message with a location to the report.
func (r *Report) AddWithLocation(sev Severity, checkID string, msg string, location string) {
	r.Messages = append(r.Messages, Message{
		Severity: sev,
		CheckID:  checkID,
		Message:  msg,
		Location: location,
	})
}

// FatalCount returns the number of FATAL messages.
func (r *Report) FatalCount() int { return r.count(Fatal) }

// ErrorCount returns the number of ERROR messages.
func (r *Report) ErrorCount() int { return r.count(Error) }

// WarningCount returns the number of WARNING messages.
func (r *Report) WarningCount() int { return r.count(Warning) }

// InfoCount returns the number of INFO messages.
func (r *Report) InfoCount() int { return r.count(Info) }

func (r *Report) count(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// IsValid returns true if there are no FATAL or ERROR messages.
func (r *Report) IsValid() bool {
	return r.FatalCount() == 0 && r.ErrorCount() == 0
}

// WithCheckID returns the messages carrying checkID.
func (r *Report) WithCheckID(checkID string) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.CheckID == checkID {
			out = append(out, m)
		}
	}
	return out
}

// Merge appends the messages of o to r.
func (r *Report) Merge(o *Report) {
	if o == nil {
		return
	}
	r.Messages = append(r.Messages, o.Messages...)
}
