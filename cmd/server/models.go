package main

import (
	"github.com/liamcoop/wardline/ads"
	"github.com/liamcoop/wardline/requestflow"
	"github.com/liamcoop/wardline/requests"
	"github.com/liamcoop/wardline/wards"
)

// API request and response models

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse carries the generated text verbatim
type GenerateResponse struct {
	Text string `json:"text"`
}

// GenerateLetterRequest is the body of POST /api/generate-request
type GenerateLetterRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// GenerateLetterResponse reports the letter or the failure
type GenerateLetterResponse struct {
	GeneratedText string `json:"generatedText,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// SubmitRequestBody is the body of POST /api/requests
type SubmitRequestBody struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	WardID        int    `json:"wardId"`
	GeneratedText string `json:"generatedText,omitempty"`
}

// WardsListResponse lists wards matching a search
type WardsListResponse struct {
	Wards []wards.Ward `json:"wards"`
	Count int          `json:"count"`
}

// RequestsListResponse lists requests newest first
type RequestsListResponse struct {
	Requests []*requests.Request `json:"requests"`
	Count    int                 `json:"count"`
}

// AdsListResponse lists advertisements
type AdsListResponse struct {
	Ads []ads.Advertisement `json:"ads"`
}

// TriageRulesResponse lists the active triage rules in evaluation order
type TriageRulesResponse struct {
	Rules []string `json:"rules"`
}

// ValidationErrorResponse names the fields that must be fixed
type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// SignInErrorResponse is returned by the Google callback on failure
type SignInErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Email string `json:"email,omitempty"`
}

// FlowResponse is a snapshot of a request form flow
type FlowResponse struct {
	ID            string            `json:"id"`
	WardID        int               `json:"wardId"`
	State         string            `json:"state"`
	Message       string            `json:"message,omitempty"`
	Form          requestflow.Form  `json:"form"`
	GeneratedText string            `json:"generatedText,omitempty"`
	Request       *requests.Request `json:"request,omitempty"`
	FailedStep    string            `json:"failedStep,omitempty"`
	Error         string            `json:"error,omitempty"`
}

func newFlowResponse(f *requestflow.Flow) FlowResponse {
	resp := FlowResponse{
		ID:            f.ID,
		WardID:        f.WardID,
		Form:          f.Form(),
		GeneratedText: f.GeneratedText(),
	}

	state := f.State()
	resp.State = state.Phase().String()

	switch s := state.(type) {
	case requestflow.Idle:
		resp.Message = s.Message
	case requestflow.Submitted:
		resp.Request = s.Request
	case requestflow.Failed:
		resp.FailedStep = s.From.String()
		resp.Error = s.Err.Error()
	}

	return resp
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status              string   `json:"status"`
	Store               string   `json:"store"`
	OpenFlows           int      `json:"openFlows"`
	GeneratorConfigured bool     `json:"generatorConfigured"`
	GoogleAuth          bool     `json:"googleAuth"`
	TriageRules         []string `json:"triageRules"`
	Error               string   `json:"error,omitempty"`
}
