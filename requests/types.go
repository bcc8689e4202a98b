package requests

import "time"

// Type classifies what a resident is asking their alderman for
type Type string

const (
	TypeInfrastructure Type = "infrastructure"
	TypeSafety         Type = "safety"
	TypeEnvironment    Type = "environment"
	TypeHousing        Type = "housing"
	TypeOther          Type = "other"
)

// Valid reports whether t is one of the known request types
func (t Type) Valid() bool {
	switch t {
	case TypeInfrastructure, TypeSafety, TypeEnvironment, TypeHousing, TypeOther:
		return true
	}
	return false
}

// Status tracks a request through the ward office. Submission always produces StatusSubmitted.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
)

// Priority is assigned by the triage rules at submission time
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// EstimatedResponseTime is quoted to residents for every submitted request
const EstimatedResponseTime = "3-5 business days"

// Request is a service request sent to a ward's alderman.
// Ward fields are copied from the catalog at submission time.
type Request struct {
	ID                    string    `json:"id" dynamodbav:"id"`
	Type                  Type      `json:"type" dynamodbav:"type"`
	Title                 string    `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Description           string    `json:"description" dynamodbav:"description"`
	Location              string    `json:"location,omitempty" dynamodbav:"location,omitempty"`
	WardID                int       `json:"wardId" dynamodbav:"wardId"`
	WardName              string    `json:"wardName" dynamodbav:"wardName"`
	AldermanName          string    `json:"aldermanName" dynamodbav:"aldermanName"`
	Status                Status    `json:"status" dynamodbav:"status"`
	Priority              Priority  `json:"priority" dynamodbav:"priority"`
	CreatedAt             time.Time `json:"createdAt" dynamodbav:"createdAt"`
	EstimatedResponseTime string    `json:"estimatedResponseTime" dynamodbav:"estimatedResponseTime"`
	AIGeneratedText       string    `json:"aiGeneratedText,omitempty" dynamodbav:"aiGeneratedText,omitempty"`
}
