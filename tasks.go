package capmonster

import (
	"encoding/base64"
	"fmt"
	"net/url"
)

// TaskType is the wire "type" tag of a createTask request.
type TaskType string

const (
	TaskImageToText                    TaskType = "ImageToTextTask"
	TaskRecaptchaV2                    TaskType = "NoCaptchaTask"
	TaskRecaptchaV2Proxyless           TaskType = "NoCaptchaTaskProxyless"
	TaskRecaptchaV3Proxyless           TaskType = "RecaptchaV3TaskProxyless"
	TaskRecaptchaV2Enterprise          TaskType = "RecaptchaV2EnterpriseTask"
	TaskRecaptchaV2EnterpriseProxyless TaskType = "RecaptchaV2EnterpriseTaskProxyless"
	TaskFunCaptcha                     TaskType = "FunCaptchaTask"
	TaskFunCaptchaProxyless            TaskType = "FunCaptchaTaskProxyless"
	TaskHCaptcha                       TaskType = "HCaptchaTask"
	TaskHCaptchaProxyless              TaskType = "HCaptchaTaskProxyless"
	TaskGeeTest                        TaskType = "GeeTestTask"
	TaskGeeTestProxyless               TaskType = "GeeTestTaskProxyless"
	TaskTurnstile                      TaskType = "TurnstileTask"
	TaskTurnstileProxyless             TaskType = "TurnstileTaskProxyless"
	TaskComplexImage                   TaskType = "ComplexImageTask"
	TaskCustom                         TaskType = "CustomTask"
)

// Task is one captcha-solving request variant.
type Task interface {
	// TaskType returns the wire tag sent as task.type.
	TaskType() TaskType
	validate() error
}

// classedTask is implemented by tasks that share a wire type and are told apart by task.class.
type classedTask interface {
	Task
	taskClass() string
}

func proxied(p *Proxy, withProxy, proxyless TaskType) TaskType {
	if p != nil {
		return withProxy
	}
	return proxyless
}

func invalid(t TaskType, field, reason string) error {
	return &ValidationError{Task: t, Field: field, Reason: reason}
}

func checkURL(t TaskType, field, raw string) error {
	if raw == "" {
		return invalid(t, field, "is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(t, field, "is not an absolute URL")
	}
	return nil
}

func checkRequired(t TaskType, field, v string) error {
	if v == "" {
		return invalid(t, field, "is required")
	}
	return nil
}

func checkProxy(t TaskType, p *Proxy) error {
	if p == nil {
		return nil
	}
	if err := p.validate(); err != nil {
		return invalid(t, "proxy", err.Error())
	}
	return nil
}

// ImageToTextRequest recognizes text in a single image.
type ImageToTextRequest struct {
	// Body is the base64-encoded image.
	Body                 string `json:"body"`
	CapMonsterModule     string `json:"CapMonsterModule,omitempty"`
	RecognizingThreshold int    `json:"recognizingThreshold,omitempty"`
	Case                 bool   `json:"Case,omitempty"`
	Numeric              int    `json:"numeric,omitempty"` // 0 any, 1 digits only, 2 no digits
	Math                 bool   `json:"math,omitempty"`
}

// NewImageToTextRequest builds a request from raw image bytes.
func NewImageToTextRequest(image []byte) ImageToTextRequest {
	return ImageToTextRequest{Body: base64.StdEncoding.EncodeToString(image)}
}

func (r ImageToTextRequest) TaskType() TaskType { return TaskImageToText }

func (r ImageToTextRequest) validate() error {
	t := r.TaskType()
	if err := checkRequired(t, "body", r.Body); err != nil {
		return err
	}
	if r.RecognizingThreshold < 0 || r.RecognizingThreshold > 100 {
		return invalid(t, "recognizingThreshold", "must be within 0..100")
	}
	if r.Numeric < 0 || r.Numeric > 2 {
		return invalid(t, "numeric", "must be 0, 1 or 2")
	}
	return nil
}

// RecaptchaV2Request solves a reCAPTCHA v2 checkbox or invisible challenge.
type RecaptchaV2Request struct {
	WebsiteURL string `json:"websiteURL"`
	WebsiteKey string `json:"websiteKey"`
	DataSValue string `json:"recaptchaDataSValue,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
	Cookies    string `json:"cookies,omitempty"`
	*Proxy
}

func (r RecaptchaV2Request) TaskType() TaskType {
	return proxied(r.Proxy, TaskRecaptchaV2, TaskRecaptchaV2Proxyless)
}

func (r RecaptchaV2Request) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "websiteKey", r.WebsiteKey); err != nil {
		return err
	}
	return checkProxy(t, r.Proxy)
}

// RecaptchaV3Request solves a score-based reCAPTCHA v3. The service always fetches it itself.
type RecaptchaV3Request struct {
	WebsiteURL string  `json:"websiteURL"`
	WebsiteKey string  `json:"websiteKey"`
	MinScore   float64 `json:"minScore,omitempty"`
	PageAction string  `json:"pageAction,omitempty"`
}

func (r RecaptchaV3Request) TaskType() TaskType { return TaskRecaptchaV3Proxyless }

func (r RecaptchaV3Request) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "websiteKey", r.WebsiteKey); err != nil {
		return err
	}
	if r.MinScore != 0 && (r.MinScore < 0.1 || r.MinScore > 0.9) {
		return invalid(t, "minScore", "must be within 0.1..0.9")
	}
	return nil
}

// RecaptchaV2EnterpriseRequest solves a reCAPTCHA v2 Enterprise challenge.
type RecaptchaV2EnterpriseRequest struct {
	WebsiteURL        string `json:"websiteURL"`
	WebsiteKey        string `json:"websiteKey"`
	EnterprisePayload string `json:"enterprisePayload,omitempty"`
	APIDomain         string `json:"apiDomain,omitempty"`
	UserAgent         string `json:"userAgent,omitempty"`
	Cookies           string `json:"cookies,omitempty"`
	*Proxy
}

func (r RecaptchaV2EnterpriseRequest) TaskType() TaskType {
	return proxied(r.Proxy, TaskRecaptchaV2Enterprise, TaskRecaptchaV2EnterpriseProxyless)
}

func (r RecaptchaV2EnterpriseRequest) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "websiteKey", r.WebsiteKey); err != nil {
		return err
	}
	return checkProxy(t, r.Proxy)
}

// FunCaptchaRequest solves an Arkose Labs FunCaptcha.
type FunCaptchaRequest struct {
	WebsiteURL       string `json:"websiteURL"`
	WebsitePublicKey string `json:"websitePublicKey"`
	APIJSSubdomain   string `json:"funcaptchaApiJSSubdomain,omitempty"`
	Data             string `json:"data,omitempty"`
	UserAgent        string `json:"userAgent,omitempty"`
	*Proxy
}

func (r FunCaptchaRequest) TaskType() TaskType {
	return proxied(r.Proxy, TaskFunCaptcha, TaskFunCaptchaProxyless)
}

func (r FunCaptchaRequest) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "websitePublicKey", r.WebsitePublicKey); err != nil {
		return err
	}
	return checkProxy(t, r.Proxy)
}

// HCaptchaRequest solves an hCaptcha checkbox or invisible challenge.
type HCaptchaRequest struct {
	WebsiteURL  string `json:"websiteURL"`
	WebsiteKey  string `json:"websiteKey"`
	IsInvisible bool   `json:"isInvisible,omitempty"`
	Data        string `json:"data,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
	Cookies     string `json:"cookies,omitempty"`
	*Proxy
}

func (r HCaptchaRequest) TaskType() TaskType {
	return proxied(r.Proxy, TaskHCaptcha, TaskHCaptchaProxyless)
}

func (r HCaptchaRequest) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "websiteKey", r.WebsiteKey); err != nil {
		return err
	}
	return checkProxy(t, r.Proxy)
}

// GeeTestRequest solves a GeeTest v3 or v4 challenge. Version zero means v3.
type GeeTestRequest struct {
	WebsiteURL         string         `json:"websiteURL"`
	Gt                 string         `json:"gt"`
	Challenge          string         `json:"challenge,omitempty"`
	APIServerSubdomain string         `json:"geetestApiServerSubdomain,omitempty"`
	GetLib             string         `json:"geetestGetLib,omitempty"`
	Version            int            `json:"version,omitempty"`
	InitParameters     map[string]any `json:"initParameters,omitempty"`
	UserAgent          string         `json:"userAgent,omitempty"`
	*Proxy
}

func (r GeeTestRequest) TaskType() TaskType {
	return proxied(r.Proxy, TaskGeeTest, TaskGeeTestProxyless)
}

func (r GeeTestRequest) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "gt", r.Gt); err != nil {
		return err
	}
	switch r.Version {
	case 0, 3:
		if err := checkRequired(t, "challenge", r.Challenge); err != nil {
			return err
		}
	case 4:
	default:
		return invalid(t, "version", fmt.Sprintf("%d is not 3 or 4", r.Version))
	}
	return checkProxy(t, r.Proxy)
}

// TurnstileRequest solves a Cloudflare Turnstile widget.
type TurnstileRequest struct {
	WebsiteURL string `json:"websiteURL"`
	WebsiteKey string `json:"websiteKey"`
	*Proxy
}

func (r TurnstileRequest) TaskType() TaskType {
	return proxied(r.Proxy, TaskTurnstile, TaskTurnstileProxyless)
}

func (r TurnstileRequest) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "websiteKey", r.WebsiteKey); err != nil {
		return err
	}
	return checkProxy(t, r.Proxy)
}

// ComplexImages are the grid tiles of a complex image task: URLs or base64 bodies, not both.
type ComplexImages struct {
	ImageURLs    []string `json:"imageUrls,omitempty"`
	ImagesBase64 []string `json:"imagesBase64,omitempty"`
	UserAgent    string   `json:"userAgent,omitempty"`
	WebsiteURL   string   `json:"websiteUrl,omitempty"`
}

func (ci ComplexImages) validate(t TaskType) error {
	switch {
	case len(ci.ImageURLs) == 0 && len(ci.ImagesBase64) == 0:
		return invalid(t, "images", "are required")
	case len(ci.ImageURLs) > 0 && len(ci.ImagesBase64) > 0:
		return invalid(t, "images", "must be URLs or base64, not both")
	}
	return nil
}

func (ci ComplexImages) count() int {
	return len(ci.ImageURLs) + len(ci.ImagesBase64)
}

// RecaptchaComplexImageMetadata describes a reCAPTCHA tile grid.
type RecaptchaComplexImageMetadata struct {
	Grid           string `json:"Grid"` // "3x3", "4x4" or "1x1"
	Task           string `json:"Task,omitempty"`
	TaskDefinition string `json:"TaskDefinition,omitempty"`
}

// RecaptchaComplexImageRequest classifies reCAPTCHA grid tiles.
type RecaptchaComplexImageRequest struct {
	Metadata RecaptchaComplexImageMetadata `json:"metadata"`
	ComplexImages
}

func (r RecaptchaComplexImageRequest) TaskType() TaskType { return TaskComplexImage }
func (r RecaptchaComplexImageRequest) taskClass() string  { return "recaptcha" }

func (r RecaptchaComplexImageRequest) validate() error {
	t := r.TaskType()
	switch r.Metadata.Grid {
	case "3x3", "4x4", "1x1":
	default:
		return invalid(t, "metadata.Grid", fmt.Sprintf("%q is not 3x3, 4x4 or 1x1", r.Metadata.Grid))
	}
	if r.Metadata.Task == "" && r.Metadata.TaskDefinition == "" {
		return invalid(t, "metadata.Task", "or TaskDefinition is required")
	}
	return r.ComplexImages.validate(t)
}

// ComplexImageMetadata carries the instruction text shown with the tiles.
type ComplexImageMetadata struct {
	Task string `json:"Task"`
}

// HCaptchaComplexImageRequest classifies hCaptcha grid tiles.
type HCaptchaComplexImageRequest struct {
	Metadata ComplexImageMetadata `json:"metadata"`
	ComplexImages
}

func (r HCaptchaComplexImageRequest) TaskType() TaskType { return TaskComplexImage }
func (r HCaptchaComplexImageRequest) taskClass() string  { return "hcaptcha" }

func (r HCaptchaComplexImageRequest) validate() error {
	t := r.TaskType()
	if err := checkRequired(t, "metadata.Task", r.Metadata.Task); err != nil {
		return err
	}
	return r.ComplexImages.validate(t)
}

// FunCaptchaComplexImageRequest classifies a single FunCaptcha image.
type FunCaptchaComplexImageRequest struct {
	Metadata ComplexImageMetadata `json:"metadata"`
	ComplexImages
}

func (r FunCaptchaComplexImageRequest) TaskType() TaskType { return TaskComplexImage }
func (r FunCaptchaComplexImageRequest) taskClass() string  { return "funcaptcha" }

func (r FunCaptchaComplexImageRequest) validate() error {
	t := r.TaskType()
	if err := checkRequired(t, "metadata.Task", r.Metadata.Task); err != nil {
		return err
	}
	if err := r.ComplexImages.validate(t); err != nil {
		return err
	}
	if r.count() != 1 {
		return invalid(t, "images", "must contain exactly one image")
	}
	return nil
}

// DataDomeMetadata identifies the DataDome challenge. Exactly one of HTMLPageBase64 and
// CaptchaURL is set.
type DataDomeMetadata struct {
	HTMLPageBase64 string `json:"htmlPageBase64,omitempty"`
	CaptchaURL     string `json:"captchaUrl,omitempty"`
	DatadomeCookie string `json:"datadomeCookie"`
}

// DataDomeRequest obtains DataDome clearance cookies through a custom task.
type DataDomeRequest struct {
	WebsiteURL string           `json:"websiteURL"`
	Metadata   DataDomeMetadata `json:"metadata"`
	UserAgent  string           `json:"userAgent,omitempty"`
	*Proxy
}

func (r DataDomeRequest) TaskType() TaskType { return TaskCustom }
func (r DataDomeRequest) taskClass() string  { return "DataDome" }

func (r DataDomeRequest) validate() error {
	t := r.TaskType()
	if err := checkURL(t, "websiteURL", r.WebsiteURL); err != nil {
		return err
	}
	if err := checkRequired(t, "metadata.datadomeCookie", r.Metadata.DatadomeCookie); err != nil {
		return err
	}
	if (r.Metadata.HTMLPageBase64 == "") == (r.Metadata.CaptchaURL == "") {
		return invalid(t, "metadata", "needs exactly one of htmlPageBase64 and captchaUrl")
	}
	return checkProxy(t, r.Proxy)
}
