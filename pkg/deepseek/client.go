package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is the DeepSeek OpenAI-compatible API base URL.
	DefaultBaseURL = "https://api.deepseek.com/v1"
	// DefaultModel is the chat model used for parameter extraction.
	DefaultModel = "deepseek-chat"
)

// ErrNoAPIKey is returned when the client has no usable credentials.
var ErrNoAPIKey = errors.New("deepseek: api key not configured")

const systemPrompt = `你是一个专业的价格查询助手。用户会用中文提问产品价格。

产品代码规则:
- 后缀 "S" 表示 SILICONE (硅胶款)
- 后缀 "P" 表示 PVC 款
- 无后缀可能表示两个版本都存在

定价层级:
- A级: 最优客户
- B级: 二级客户 (红线)
- C级: 一般客户
- D级: 四级客户

颜色类型:
- 标准色: 常规颜色
- 定制色: 客户定制颜色 (价格更高)

任务:
请严格输出JSON，字段如下：
{
  "product_code": "GT10S | GT10P | GT10",
  "tier": "A级 | B级 | C级 | D级 | null",
  "color_type": "标准色 | 定制色 | null",
  "material": "SILICONE | PVC | null"
}
仅返回JSON，不要额外解释。`

var placeholderKeys = map[string]bool{
	"your_deepseek_api_key_here": true,
	"changeme":                   true,
	"none":                       true,
}

// Params is the raw parameter object returned by the model. Fields the model
// left null are empty.
type Params struct {
	ProductCode string `json:"product_code"`
	Tier        string `json:"tier"`
	ColorType   string `json:"color_type"`
	Material    string `json:"material"`
}

// Client extracts query parameters through the DeepSeek chat API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs a client. An empty or placeholder apiKey yields a
// client whose calls fail with ErrNoAPIKey.
func NewClient(apiKey, baseURL, model string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if placeholderKeys[strings.ToLower(apiKey)] {
		apiKey = ""
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	c := &Client{model: model}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
		cfg.HTTPClient = &http.Client{Timeout: 8 * time.Second}
		c.api = openai.NewClientWithConfig(cfg)
	}
	return c
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// ExtractParams asks the model for the product code, tier, color and material
// mentioned in query.
func (c *Client) ExtractParams(ctx context.Context, query string) (*Params, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		// A literal 0 is dropped by omitempty.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return nil, fmt.Errorf("deepseek chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("deepseek: empty choices")
	}

	content := resp.Choices[0].Message.Content
	params, err := ParseParams(content)
	if err != nil {
		log.Debug().Str("content", content).Err(err).Msg("DeepSeek returned unparseable content")
		return nil, err
	}
	return params, nil
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ParseParams decodes the model answer, falling back to the outermost JSON
// object embedded in surrounding prose or code fences.
func ParseParams(content string) (*Params, error) {
	var p Params
	if err := json.Unmarshal([]byte(content), &p); err == nil {
		return &p, nil
	}
	obj := jsonObjectPattern.FindString(content)
	if obj == "" {
		return nil, errors.New("deepseek: no JSON object in response")
	}
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("deepseek: malformed JSON: %w", err)
	}
	return &p, nil
}
