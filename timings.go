package capmonster

import "time"

// Timing is the poll schedule for one task type.
type Timing struct {
	// Interval is the fixed wait before each getTaskResult call, the first one included.
	Interval time.Duration
	// Timeout bounds polling, measured from task creation.
	Timeout time.Duration
}

var defaultTiming = Timing{Interval: 1 * time.Second, Timeout: 120 * time.Second}

// DefaultTimings are the service's recommended schedules per task type.
var DefaultTimings = map[TaskType]Timing{
	TaskImageToText:                    {Interval: 200 * time.Millisecond, Timeout: 20 * time.Second},
	TaskRecaptchaV2:                    {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskRecaptchaV2Proxyless:           {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskRecaptchaV3Proxyless:           {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskRecaptchaV2Enterprise:          {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskRecaptchaV2EnterpriseProxyless: {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskFunCaptcha:                     {Interval: 1 * time.Second, Timeout: 80 * time.Second},
	TaskFunCaptchaProxyless:            {Interval: 1 * time.Second, Timeout: 80 * time.Second},
	TaskHCaptcha:                       {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskHCaptchaProxyless:              {Interval: 3 * time.Second, Timeout: 180 * time.Second},
	TaskGeeTest:                        {Interval: 1 * time.Second, Timeout: 80 * time.Second},
	TaskGeeTestProxyless:               {Interval: 1 * time.Second, Timeout: 80 * time.Second},
	TaskTurnstile:                      {Interval: 1 * time.Second, Timeout: 80 * time.Second},
	TaskTurnstileProxyless:             {Interval: 1 * time.Second, Timeout: 80 * time.Second},
	TaskComplexImage:                   {Interval: 200 * time.Millisecond, Timeout: 10 * time.Second},
	TaskCustom:                         {Interval: 1 * time.Second, Timeout: 80 * time.Second},
}

// timing resolves the schedule for t: per-type override, then global override, then default.
func (o *ClientOptions) timing(t TaskType) Timing {
	if tm, ok := o.Timings[t]; ok {
		return tm
	}
	tm, ok := DefaultTimings[t]
	if !ok {
		tm = defaultTiming
	}
	if o.PollInterval > 0 {
		tm.Interval = o.PollInterval
	}
	if o.PollTimeout > 0 {
		tm.Timeout = o.PollTimeout
	}
	return tm
}
