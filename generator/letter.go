package generator

import (
	"fmt"
	"strings"
)

// Letter carries the request fields the letter template needs
type Letter struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

const letterTemplate = `You are helping a Chicago resident write a professional request to their alderman.

Request Type: %s
Description: %s
Location: %s

Please generate a professional, concise request letter that:
1. Is respectful and formal in tone
2. Clearly states the issue or request
3. Includes specific location details
4. Suggests potential solutions if applicable
5. Is appropriate for government communication
6. Is 2-3 paragraphs maximum

Format the response as a well-structured letter that the resident can send to their alderman.`

// Prompt renders the fixed letter instructions around the request fields
func (l Letter) Prompt() string {
	return fmt.Sprintf(letterTemplate, l.Type, l.Description, l.Location)
}

// Missing lists required fields that are blank
func (l Letter) Missing() []string {
	var missing []string
	if strings.TrimSpace(l.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(l.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(l.Location) == "" {
		missing = append(missing, "location")
	}
	return missing
}
