package admission

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"meet-recorder-bot/core/models"
)

// Strategy is one way of locating the name-entry field: a selector with its
// own bounded wait. Strategies are tried in order, most specific first.
type Strategy struct {
	Name     string
	Selector string
	Timeout  time.Duration
}

// DefaultStrategies is the built-in locator chain for the name-entry field.
// The primary selector matches the current UI; the alternates are
// progressively more permissive fallbacks for markup drift.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "aria-your-name", Selector: `input[aria-label="Your name"]`, Timeout: 10 * time.Second},
		{Name: "placeholder-name", Selector: `input[placeholder*="name"]`, Timeout: 2 * time.Second},
		{Name: "placeholder-name-cap", Selector: `input[placeholder*="Name"]`, Timeout: 2 * time.Second},
		{Name: "any-text-input", Selector: `input[type="text"]`, Timeout: 2 * time.Second},
		{Name: "aria-name", Selector: `input[aria-label*="name"]`, Timeout: 2 * time.Second},
		{Name: "aria-name-cap", Selector: `input[aria-label*="Name"]`, Timeout: 2 * time.Second},
	}
}

// StrategiesFromSelectors builds a chain from raw selectors, as supplied by
// the config file. The first entry gets the primary timeout, the rest the
// short fallback timeout.
func StrategiesFromSelectors(selectors []string) []Strategy {
	strategies := make([]Strategy, 0, len(selectors))
	for i, sel := range selectors {
		timeout := 2 * time.Second
		if i == 0 {
			timeout = 10 * time.Second
		}
		strategies = append(strategies, Strategy{
			Name:     sel,
			Selector: sel,
			Timeout:  timeout,
		})
	}
	return strategies
}

// No single positive "you are in the meeting" signal survives UI revisions,
// so admission is inferred from the absence of pre-join markers.
const preJoinProbeJS = `[
	document.querySelector('[data-promo-anchor-id="join-now"]') === null,
	document.querySelector('[jsname="BOHaEe"]') === null,
	document.querySelector('button[aria-label*="Join"]') === null,
	document.querySelector('.VfPpkd-LgbsSe[data-promo-anchor-id="join-now"]') === null
].some(function(v) { return v })`

const joinControlSelector = `button[aria-label*="Join"], button[aria-label*="join"], button[jsname="BOHaEe"]`

// Protocol drives the pre-join gate: fill a display name if a field can be
// located, submit with the keyboard, and verify admission negatively. Every
// wait is bounded; the protocol trades admission accuracy for liveness and
// never blocks indefinitely.
type Protocol struct {
	Strategies []Strategy
	// JoinWait is how long the meeting UI gets to transition after submit.
	JoinWait time.Duration
	// RetryWait follows the one extra join-button click.
	RetryWait    time.Duration
	ClickTimeout time.Duration
}

// NewProtocol creates a protocol with the given locator chain
func NewProtocol(strategies []Strategy) *Protocol {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Protocol{
		Strategies:   strategies,
		JoinWait:     10 * time.Second,
		RetryWait:    5 * time.Second,
		ClickTimeout: 5 * time.Second,
	}
}

// Attempt runs the admission protocol inside an active session. It is
// best-effort and non-retried beyond the built-in fallbacks; an exhausted
// locator chain still submits, since the target UI may admit an anonymous
// participant.
func (p *Protocol) Attempt(ctx context.Context, displayName string) models.AdmissionResult {
	result := models.AdmissionResult{State: models.AdmissionUnknown}

	for _, st := range p.Strategies {
		sctx, cancel := context.WithTimeout(ctx, st.Timeout)
		err := chromedp.Run(sctx,
			chromedp.WaitVisible(st.Selector, chromedp.ByQuery),
			chromedp.SendKeys(st.Selector, displayName, chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			result.Strategy = st.Name
			break
		}
	}
	if result.Strategy == "" {
		log.Printf("admission: no name-entry field matched, submitting without a name")
	}

	// Keyboard submit avoids locating a submit button whose label and
	// markup change across UI versions.
	if err := chromedp.Run(ctx, chromedp.KeyEvent(kb.Enter)); err != nil {
		return result
	}

	if !sleepCtx(ctx, p.JoinWait) {
		return result
	}

	result.State = p.evaluate(ctx)
	if result.State != models.AdmissionNotAdmitted {
		return result
	}

	// One more try: click any join control still visible, then re-check.
	cctx, cancel := context.WithTimeout(ctx, p.ClickTimeout)
	err := chromedp.Run(cctx, chromedp.Click(joinControlSelector, chromedp.ByQuery))
	cancel()
	if err != nil {
		return result
	}
	if !sleepCtx(ctx, p.RetryWait) {
		return result
	}
	result.State = p.evaluate(ctx)
	return result
}

func (p *Protocol) evaluate(ctx context.Context) models.AdmissionState {
	var admitted bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(preJoinProbeJS, &admitted)); err != nil {
		return models.AdmissionUnknown
	}
	if admitted {
		return models.AdmissionAdmitted
	}
	return models.AdmissionNotAdmitted
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
