package recommend

import (
	"strings"
	"time"

	"github.com/ymori/dinnerbot/internal/models"
)

// Classifier maps a free-form user message to a request type by ordered
// keyword lookup. It is pure and side-effect free.
type Classifier struct {
	rules []KeywordRule
}

// NewClassifier creates a classifier over the given keyword rules.
func NewClassifier(tables *Tables) *Classifier {
	return &Classifier{rules: tables.Keywords}
}

// Classify returns the request derived from a user message. Rules are
// evaluated in table order and the first keyword hit wins; a message
// matching nothing classifies as general.
func (c *Classifier) Classify(message string) *models.UserRequest {
	lowered := strings.ToLower(message)

	requestType := models.RequestGeneral
	for _, rule := range c.rules {
		if containsAny(lowered, rule.Keywords) {
			requestType = rule.Type
			break
		}
	}

	return &models.UserRequest{
		Type:            requestType,
		OriginalMessage: message,
		Timestamp:       time.Now(),
	}
}

func containsAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
