package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/domain"
)

const graphAPIBase = "https://graph.facebook.com/v21.0"

// languageFallbacks are tried in order when the Graph API reports the
// template missing in the detected translation.
var languageFallbacks = []string{"en_US", "en", "pt_BR", "pt"}

var nonDigits = regexp.MustCompile(`\D`)

// WhatsAppClient talks to the WhatsApp Business Cloud API.
type WhatsAppClient struct {
	httpClient *http.Client
	logger     *zap.Logger
	catalog    TemplateCatalog
}

// NewWhatsAppClient constructs the client. The catalog supplies the
// template language; a nil catalog falls back to pt_BR.
func NewWhatsAppClient(logger *zap.Logger, catalog TemplateCatalog) *WhatsAppClient {
	return &WhatsAppClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		catalog:    catalog,
	}
}

type templateComponent struct {
	Type       string              `json:"type"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      *int                `json:"index,omitempty"`
	Parameters []templateParameter `json:"parameters,omitempty"`
}

type templateParameter struct {
	Type          string `json:"type"`
	ParameterName string `json:"parameter_name,omitempty"`
	Text          string `json:"text"`
}

type templatePayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Template         struct {
		Name     string `json:"name"`
		Language struct {
			Code string `json:"code"`
		} `json:"language"`
		Components []templateComponent `json:"components,omitempty"`
	} `json:"template"`
}

// BuildTemplateComponents assembles the Graph API component list for a
// template send. Named parameters win over positional ones; URL button
// parameters get one component each.
func BuildTemplateComponents(named map[string]string, positional []string, buttons []string) []templateComponent {
	var components []templateComponent

	if len(named) > 0 {
		params := make([]templateParameter, 0, len(named))
		for name, value := range named {
			params = append(params, templateParameter{Type: "text", ParameterName: name, Text: value})
		}
		components = append(components, templateComponent{Type: "body", Parameters: params})
	} else if len(positional) > 0 {
		params := make([]templateParameter, 0, len(positional))
		for _, value := range positional {
			params = append(params, templateParameter{Type: "text", Text: value})
		}
		components = append(components, templateComponent{Type: "body", Parameters: params})
	}

	for i, value := range buttons {
		idx := i
		components = append(components, templateComponent{
			Type:       "button",
			SubType:    "url",
			Index:      &idx,
			Parameters: []templateParameter{{Type: "text", Text: value}},
		})
	}
	return components
}

// SendTemplate posts one template message. On a translation-missing
// error it retries across the language fallback list before giving up.
func (c *WhatsAppClient) SendTemplate(ctx context.Context, settings domain.WhatsAppSettings, to, templateName string, named map[string]string, positional []string, buttons []string) Result {
	if settings.PhoneNumberID == "" || settings.AccessToken == "" {
		return Result{Success: false, Error: "whatsapp not configured"}
	}
	cleanPhone := nonDigits.ReplaceAllString(to, "")
	if cleanPhone == "" {
		return Result{Success: false, Error: "no recipient phone number"}
	}

	language := c.templateLanguage(ctx, settings, templateName)

	payload := templatePayload{MessagingProduct: "whatsapp", To: cleanPhone, Type: "template"}
	payload.Template.Name = templateName
	payload.Template.Language.Code = language
	payload.Template.Components = BuildTemplateComponents(named, positional, buttons)

	result, apiErr := c.post(ctx, settings, payload)
	if result.Success {
		return result
	}

	if isTranslationMissing(apiErr) {
		for _, fallback := range languageFallbacks {
			if fallback == language {
				continue
			}
			c.logger.Info("whatsapp: retrying with fallback language",
				zap.String("template", templateName), zap.String("language", fallback))
			payload.Template.Language.Code = fallback
			retry, _ := c.post(ctx, settings, payload)
			if retry.Success {
				return retry
			}
		}
	}
	return result
}

func (c *WhatsAppClient) templateLanguage(ctx context.Context, settings domain.WhatsAppSettings, templateName string) string {
	if c.catalog != nil {
		if info, err := c.catalog.Lookup(ctx, settings, templateName); err == nil && info.Language != "" {
			return info.Language
		}
	}
	return "pt_BR"
}

func (c *WhatsAppClient) post(ctx context.Context, settings domain.WhatsAppSettings, payload templatePayload) (Result, string) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, ""
	}

	url := fmt.Sprintf("%s/%s/messages", graphAPIBase, settings.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Success: false, Error: err.Error()}, ""
	}
	req.Header.Set("Authorization", "Bearer "+settings.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Success: true}, ""
	}

	apiMessage := graphErrorMessage(resp.Body)
	c.logger.Warn("whatsapp: send failed",
		zap.Int("status", resp.StatusCode),
		zap.String("error", apiMessage))
	return Result{Success: false, Error: apiMessage}, apiMessage
}

func graphErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return err.Error()
	}
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(raw)
}

func isTranslationMissing(apiErr string) bool {
	return apiErr != "" && bytes.Contains([]byte(apiErr), []byte("does not exist in the translation"))
}
