package notifications

import (
	"context"
	"time"
)

type Mailer interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
	Enabled() bool
}

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p Person) Assigned() bool {
	return p.ID != ""
}

// View is the denormalized assessment data a dispatch needs, loaded once.
type View struct {
	AssessmentID     string
	Period           string
	TemplateName     string
	Status           string
	Staff            Person
	Manager          Person
	Director         Person
	FinalScore       *float64
	FinalGrade       string
	ReturnedBy       string
	DirectorComments string
}

type Recipient struct {
	UserID string
	Name   string
	Email  string
}

type Content struct {
	Subject string
	HTML    string
	Text    string
}

type LogEntry struct {
	ID             string     `json:"id"`
	AssessmentID   string     `json:"assessmentId"`
	UserID         string     `json:"userId"`
	RecipientName  string     `json:"recipientName,omitempty"`
	RecipientEmail string     `json:"recipientEmail,omitempty"`
	Period         string     `json:"period,omitempty"`
	Type           Type       `json:"type"`
	Status         string     `json:"status"`
	Error          *string    `json:"error"`
	MessageID      string     `json:"messageId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	SentAt         *time.Time `json:"sentAt"`
}

type LogFilter struct {
	Status       string
	Type         Type
	AssessmentID string
	UserID       string
}

// Outcome is the result of one recipient's delivery within a dispatch.
type Outcome struct {
	UserID    string
	Email     string
	Result    Result
	MessageID string
	Reason    string
	Err       error
}
