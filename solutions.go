package capmonster

import "time"

// CaptchaResult is the terminal value of a successful solve.
type CaptchaResult[S any] struct {
	TaskID   int64
	Solution S
	Cost     float64       // USD charged for the task, when reported
	Polls    int           // getTaskResult calls made, including the final one
	Elapsed  time.Duration // from task creation to the ready response
}

// ImageToTextSolution is the recognized text of an image captcha.
type ImageToTextSolution struct {
	Text string `json:"text"`
}

// RecaptchaV2Solution is a g-recaptcha-response token.
type RecaptchaV2Solution struct {
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

// RecaptchaV3Solution is a g-recaptcha-response token.
type RecaptchaV3Solution struct {
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

// RecaptchaV2EnterpriseSolution is a g-recaptcha-response token.
type RecaptchaV2EnterpriseSolution struct {
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

// FunCaptchaSolution is an Arkose Labs session token.
type FunCaptchaSolution struct {
	Token string `json:"token"`
}

// HCaptchaSolution is an hCaptcha response token.
type HCaptchaSolution struct {
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
	RespKey            string `json:"respKey,omitempty"`
	UserAgent          string `json:"userAgent,omitempty"`
}

// GeeTestSolution carries v3 fields (Challenge, Validate, SecCode) or v4 fields.
type GeeTestSolution struct {
	Challenge string `json:"challenge,omitempty"`
	Validate  string `json:"validate,omitempty"`
	SecCode   string `json:"seccode,omitempty"`

	CaptchaID     string `json:"captcha_id,omitempty"`
	LotNumber     string `json:"lot_number,omitempty"`
	PassToken     string `json:"pass_token,omitempty"`
	GenTime       string `json:"gen_time,omitempty"`
	CaptchaOutput string `json:"captcha_output,omitempty"`
}

// TurnstileSolution is a Cloudflare Turnstile token.
type TurnstileSolution struct {
	Token     string `json:"token"`
	UserAgent string `json:"userAgent,omitempty"`
}

// GridComplexImageSolution marks, per tile in request order, whether it should be clicked.
type GridComplexImageSolution struct {
	Answer []bool `json:"answer"`
}

// DomainInfo holds the cookies and storage a custom task produced for one domain.
type DomainInfo struct {
	Cookies      map[string]string `json:"cookies,omitempty"`
	LocalStorage map[string]string `json:"localStorage,omitempty"`
}

// CustomTaskSolution is the result of a custom task such as DataDome.
type CustomTaskSolution struct {
	Domains     map[string]DomainInfo `json:"domains,omitempty"`
	URL         string                `json:"url,omitempty"`
	Fingerprint map[string]string     `json:"fingerprint,omitempty"`
	Headers     map[string]string     `json:"headers,omitempty"`
	Data        map[string]string     `json:"data,omitempty"`
}

// Cookies returns the cookies issued for domain, or nil.
func (s CustomTaskSolution) Cookies(domain string) map[string]string {
	return s.Domains[domain].Cookies
}
