package capmonster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// maskedProxy is satisfied by tasks that embed *Proxy.
type maskedProxy interface {
	Masked() string
}

// solve runs one task end to end: validate, create, poll, decode into S.
func solve[S any](ctx context.Context, c *Client, t Task) (*CaptchaResult[S], error) {
	tt := t.TaskType()
	if err := t.validate(); err != nil {
		return nil, &SolveError{Task: tt, Phase: PhaseValidate, Err: err}
	}

	log := c.log.With(slog.String("solve_id", uuid.NewString()), slog.String("type", string(tt)))
	if mp, ok := t.(maskedProxy); ok {
		if p := mp.Masked(); p != "" {
			log = log.With(slog.String("proxy", p))
		}
	}

	h, err := c.createTask(ctx, t)
	if err != nil {
		if ctx.Err() != nil {
			err = cancelled(ctx)
		}
		log.Warn("captcha task not created", slog.Any("error", err))
		return nil, &SolveError{Task: tt, Phase: PhaseCreate, Err: err}
	}
	log.Info("captcha task created", slog.Int64("task_id", h.ID))

	out, err := c.poll(ctx, h, c.opts.timing(tt), log)
	if err != nil {
		log.Warn("captcha not solved", slog.Int64("task_id", h.ID), slog.Int("polls", out.polls), slog.Any("error", err))
		return nil, &SolveError{Task: tt, Phase: PhasePoll, TaskID: h.ID, Err: err}
	}

	var sol S
	if err := c.enc.Decode(out.state.Solution, &sol); err != nil {
		terr := &TransportError{
			Op:     string(RequestGetTaskResult),
			Status: 200,
			Body:   truncateBytes(out.state.Solution, 200),
			Err:    fmt.Errorf("decode solution: %w", err),
		}
		return nil, &SolveError{Task: tt, Phase: PhasePoll, TaskID: h.ID, Err: terr}
	}

	res := &CaptchaResult[S]{
		TaskID:   h.ID,
		Solution: sol,
		Cost:     out.state.Cost,
		Polls:    out.polls,
		Elapsed:  time.Since(h.CreatedAt),
	}
	log.Info("captcha solved",
		slog.Int64("task_id", h.ID),
		slog.Int("polls", res.Polls),
		slog.Duration("elapsed", res.Elapsed),
		slog.Float64("cost", res.Cost))
	return res, nil
}

// SolveImageToText recognizes the text in an image.
func (c *Client) SolveImageToText(ctx context.Context, r ImageToTextRequest) (*CaptchaResult[ImageToTextSolution], error) {
	return solve[ImageToTextSolution](ctx, c, r)
}

// SolveRecaptchaV2 solves reCAPTCHA v2, through r.Proxy when set.
func (c *Client) SolveRecaptchaV2(ctx context.Context, r RecaptchaV2Request) (*CaptchaResult[RecaptchaV2Solution], error) {
	return solve[RecaptchaV2Solution](ctx, c, r)
}

// SolveRecaptchaV3 solves reCAPTCHA v3.
func (c *Client) SolveRecaptchaV3(ctx context.Context, r RecaptchaV3Request) (*CaptchaResult[RecaptchaV3Solution], error) {
	return solve[RecaptchaV3Solution](ctx, c, r)
}

// SolveRecaptchaV2Enterprise solves reCAPTCHA v2 Enterprise, through r.Proxy when set.
func (c *Client) SolveRecaptchaV2Enterprise(ctx context.Context, r RecaptchaV2EnterpriseRequest) (*CaptchaResult[RecaptchaV2EnterpriseSolution], error) {
	return solve[RecaptchaV2EnterpriseSolution](ctx, c, r)
}

// SolveFunCaptcha solves FunCaptcha, through r.Proxy when set.
func (c *Client) SolveFunCaptcha(ctx context.Context, r FunCaptchaRequest) (*CaptchaResult[FunCaptchaSolution], error) {
	return solve[FunCaptchaSolution](ctx, c, r)
}

// SolveHCaptcha solves hCaptcha, through r.Proxy when set.
func (c *Client) SolveHCaptcha(ctx context.Context, r HCaptchaRequest) (*CaptchaResult[HCaptchaSolution], error) {
	return solve[HCaptchaSolution](ctx, c, r)
}

// SolveGeeTest solves GeeTest v3 or v4, through r.Proxy when set.
func (c *Client) SolveGeeTest(ctx context.Context, r GeeTestRequest) (*CaptchaResult[GeeTestSolution], error) {
	return solve[GeeTestSolution](ctx, c, r)
}

// SolveTurnstile solves Cloudflare Turnstile, through r.Proxy when set.
func (c *Client) SolveTurnstile(ctx context.Context, r TurnstileRequest) (*CaptchaResult[TurnstileSolution], error) {
	return solve[TurnstileSolution](ctx, c, r)
}

// SolveRecaptchaComplexImage marks which tiles of a reCAPTCHA grid match the prompt.
func (c *Client) SolveRecaptchaComplexImage(ctx context.Context, r RecaptchaComplexImageRequest) (*CaptchaResult[GridComplexImageSolution], error) {
	return solve[GridComplexImageSolution](ctx, c, r)
}

// SolveHCaptchaComplexImage marks which hCaptcha tiles match the prompt.
func (c *Client) SolveHCaptchaComplexImage(ctx context.Context, r HCaptchaComplexImageRequest) (*CaptchaResult[GridComplexImageSolution], error) {
	return solve[GridComplexImageSolution](ctx, c, r)
}

// SolveFunCaptchaComplexImage answers a single FunCaptcha image.
func (c *Client) SolveFunCaptchaComplexImage(ctx context.Context, r FunCaptchaComplexImageRequest) (*CaptchaResult[GridComplexImageSolution], error) {
	return solve[GridComplexImageSolution](ctx, c, r)
}

// SolveDataDome obtains DataDome clearance cookies, through r.Proxy when set.
func (c *Client) SolveDataDome(ctx context.Context, r DataDomeRequest) (*CaptchaResult[CustomTaskSolution], error) {
	return solve[CustomTaskSolution](ctx, c, r)
}
