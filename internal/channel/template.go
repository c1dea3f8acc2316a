package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/domain"
)

// templateCacheTTL bounds how stale cached template metadata may get.
const templateCacheTTL = 5 * time.Minute

var (
	namedPlaceholder      = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
	positionalPlaceholder = regexp.MustCompile(`\{\{(\d+)\}\}`)
)

// NamedPlaceholders returns the named parameter keys declared in a
// template body, in order of appearance. Positional placeholders like
// {{1}} are not included.
func NamedPlaceholders(bodyText string) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, match := range namedPlaceholder.FindAllStringSubmatch(bodyText, -1) {
		if _, dup := seen[match[1]]; dup {
			continue
		}
		seen[match[1]] = struct{}{}
		names = append(names, match[1])
	}
	return names
}

// PositionalPlaceholderCount returns how many distinct positional
// placeholders a template body declares.
func PositionalPlaceholderCount(bodyText string) int {
	seen := map[string]struct{}{}
	for _, match := range positionalPlaceholder.FindAllStringSubmatch(bodyText, -1) {
		seen[match[1]] = struct{}{}
	}
	return len(seen)
}

// GraphTemplateCatalog fetches template metadata from the WhatsApp
// Business Management API and caches it in redis so the hot path of a
// status change does not hit the Graph API every time.
type GraphTemplateCatalog struct {
	httpClient *http.Client
	redis      *redis.Client
	logger     *zap.Logger
}

// NewGraphTemplateCatalog constructs the catalog. A nil redis client
// disables caching.
func NewGraphTemplateCatalog(redisClient *redis.Client, logger *zap.Logger) *GraphTemplateCatalog {
	return &GraphTemplateCatalog{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		redis:      redisClient,
		logger:     logger,
	}
}

// Lookup returns metadata for one template, from cache when fresh.
func (c *GraphTemplateCatalog) Lookup(ctx context.Context, settings domain.WhatsAppSettings, name string) (*TemplateInfo, error) {
	if settings.WABAID == "" || settings.AccessToken == "" {
		return nil, fmt.Errorf("whatsapp not configured")
	}

	templates, err := c.loadAll(ctx, settings)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].Name == name {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("template %q not found", name)
}

func (c *GraphTemplateCatalog) loadAll(ctx context.Context, settings domain.WhatsAppSettings) ([]TemplateInfo, error) {
	cacheKey := "whatsapp:templates:" + settings.WABAID

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var templates []TemplateInfo
			if err := json.Unmarshal(cached, &templates); err == nil {
				return templates, nil
			}
		}
	}

	templates, err := c.fetch(ctx, settings)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		if encoded, err := json.Marshal(templates); err == nil {
			if err := c.redis.Set(ctx, cacheKey, encoded, templateCacheTTL).Err(); err != nil {
				c.logger.Warn("template cache write failed", zap.Error(err))
			}
		}
	}
	return templates, nil
}

type graphTemplateList struct {
	Data []struct {
		Name       string `json:"name"`
		Language   string `json:"language"`
		Components []struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			Buttons []struct {
				Type string `json:"type"`
				URL  string `json:"url"`
			} `json:"buttons"`
		} `json:"components"`
	} `json:"data"`
}

func (c *GraphTemplateCatalog) fetch(ctx context.Context, settings domain.WhatsAppSettings) ([]TemplateInfo, error) {
	url := fmt.Sprintf("%s/%s/message_templates", graphAPIBase, settings.WABAID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+settings.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graph api status %d: %s", resp.StatusCode, graphErrorMessage(resp.Body))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	var listing graphTemplateList
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, err
	}

	templates := make([]TemplateInfo, 0, len(listing.Data))
	for _, entry := range listing.Data {
		info := TemplateInfo{Name: entry.Name, Language: entry.Language}
		for _, component := range entry.Components {
			switch strings.ToUpper(component.Type) {
			case "BODY":
				info.BodyText = component.Text
			case "BUTTONS":
				for _, button := range component.Buttons {
					if strings.ToUpper(button.Type) == "URL" && strings.Contains(button.URL, "{{") {
						info.URLButtonCount++
					}
				}
			}
		}
		templates = append(templates, info)
	}
	return templates, nil
}
