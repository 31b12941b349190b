// Package responder drives one review from rating detection to submission.
//
// State machine:
//
//	Idle -> RatingDetected -> [IdentityResolved] -> Composed -> Submitted
//	                  \                                   \
//	                   -> Failed (rating undetected)       -> Failed (any click miss)
//
// IdentityResolved is only entered for 1-2 star reviews. A failed review is
// abandoned as is; the caller moves on to the next one.
package responder

import (
	"strconv"
	"time"

	"review-responder/internal/humanize"
	"review-responder/internal/logging"
	"review-responder/internal/vision"
)

// State is a step of the review response state machine
type State int

const (
	StateIdle State = iota
	StateRatingDetected
	StateIdentityResolved
	StateComposed
	StateSubmitted
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRatingDetected:
		return "RatingDetected"
	case StateIdentityResolved:
		return "IdentityResolved"
	case StateComposed:
		return "Composed"
	case StateSubmitted:
		return "Submitted"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Surface is the part of the perception layer the responder clicks through.
type Surface interface {
	DetectStarRating() int
	Click(template string) bool
}

// Hands types text and waits like a person would.
type Hands interface {
	TypeText(text string) error
	Pause(r humanize.Range) time.Duration
}

// NameReader resolves the reviewer's identity.
type NameReader interface {
	ExtractCustomerName() string
}

// Ledger records one-time apology discounts.
type Ledger interface {
	Has(identity string) bool
	Grant(identity string) error
}

// Pauses are the waits between the steps of composing a reply.
type Pauses struct {
	AfterRating  humanize.Range `yaml:"after_rating"`
	AfterReply   humanize.Range `yaml:"after_reply"`
	BeforeAmount humanize.Range `yaml:"before_amount"`
	BeforeSend   humanize.Range `yaml:"before_send"`
	AfterSend    humanize.Range `yaml:"after_send"`
}

// DefaultPauses returns the stock pauses.
func DefaultPauses() Pauses {
	return Pauses{
		AfterRating:  humanize.Between(500*time.Millisecond, time.Second),
		AfterReply:   humanize.Between(800*time.Millisecond, 1500*time.Millisecond),
		BeforeAmount: humanize.Between(500*time.Millisecond, time.Second),
		BeforeSend:   humanize.Between(800*time.Millisecond, 1500*time.Millisecond),
		AfterSend:    humanize.Between(1500*time.Millisecond, 2500*time.Millisecond),
	}
}

// Settings configures replies, amounts and pacing.
type Settings struct {
	Replies   Replies   `yaml:"replies"`
	Discounts Discounts `yaml:"discounts"`
	Pauses    Pauses    `yaml:"pauses"`
}

// DefaultSettings returns the stock settings
func DefaultSettings() Settings {
	return Settings{
		Replies:   DefaultReplies(),
		Discounts: DefaultDiscounts(),
		Pauses:    DefaultPauses(),
	}
}

// Outcome describes how one review ended.
type Outcome struct {
	State    State
	Rating   int
	Identity string
	Discount int
	// Granted is set when this review added the identity to the ledger.
	Granted bool
}

// Submitted reports whether the reply was sent
func (o Outcome) Submitted() bool {
	return o.State == StateSubmitted
}

// Responder answers the review currently open on screen.
type Responder struct {
	surface  Surface
	hands    Hands
	names    NameReader
	ledger   Ledger
	settings Settings
}

// New creates a new Responder
func New(surface Surface, hands Hands, names NameReader, ledger Ledger, settings Settings) *Responder {
	return &Responder{
		surface:  surface,
		hands:    hands,
		names:    names,
		ledger:   ledger,
		settings: settings,
	}
}

// Respond classifies the open review, decides the reply and discount, and
// submits them. It never retries; a miss anywhere ends in StateFailed.
func (r *Responder) Respond(log *logging.Logger) Outcome {
	if log == nil {
		log = logging.With()
	}
	out := Outcome{State: StateIdle}

	out.Rating = r.surface.DetectStarRating()
	log = log.With("rating", out.Rating)
	if out.Rating < 1 || out.Rating > 5 {
		log.Warn("Star rating undetected, skipping review")
		return r.fail(out, StateIdle)
	}
	out.State = StateRatingDetected

	discounted := false
	if NeedsIdentity(out.Rating) {
		out.Identity = r.names.ExtractCustomerName()
		discounted = r.ledger.Has(out.Identity)
		out.State = StateIdentityResolved
		log = log.With("customer", out.Identity)
	}
	r.hands.Pause(r.settings.Pauses.AfterRating)

	decision, _ := Decide(out.Rating, discounted, r.settings.Replies, r.settings.Discounts)
	out.Discount = decision.Discount
	if decision.Grant {
		// The grant is recorded before submission; a later click miss still
		// leaves the customer marked.
		if err := r.ledger.Grant(out.Identity); err != nil {
			log.Error("Failed to persist discount ledger: %v", err)
		}
		out.Granted = true
		log.Info("First-time low rating from %s, giving $%d discount", out.Identity, decision.Discount)
	} else if NeedsIdentity(out.Rating) {
		log.Info("Repeat low rating from %s, no additional discount", out.Identity)
	}
	out.State = StateComposed
	log = log.With("discount", out.Discount)
	log.Info("Processing %d-star review with discount $%d", out.Rating, out.Discount)

	if !r.submit(decision, log) {
		return r.fail(out, out.State)
	}

	out.State = StateSubmitted
	log.Info("Review response sent")
	return out
}

func (r *Responder) submit(d Decision, log *logging.Logger) bool {
	p := r.settings.Pauses

	if !r.surface.Click(vision.TemplateTextBox) {
		log.Error("Failed to find text box")
		return false
	}
	if err := r.hands.TypeText(d.Reply); err != nil {
		log.Error("Failed to type reply: %v", err)
		return false
	}
	r.hands.Pause(p.AfterReply)

	if d.Discount > 0 {
		if !r.surface.Click(vision.TemplateOtherDiscount) {
			log.Error("Failed to click other discount")
			return false
		}
		r.hands.Pause(p.BeforeAmount)
		if !r.surface.Click(vision.TemplateAmountBox) {
			log.Error("Failed to click amount box")
			return false
		}
		if err := r.hands.TypeText(strconv.Itoa(d.Discount)); err != nil {
			log.Error("Failed to type discount amount: %v", err)
			return false
		}
	}
	r.hands.Pause(p.BeforeSend)

	if !r.surface.Click(vision.TemplateSendButton) {
		log.Error("Failed to click send button")
		return false
	}
	r.hands.Pause(p.AfterSend)
	return true
}

func (r *Responder) fail(out Outcome, from State) Outcome {
	logging.Debug("Review failed in state %s", from)
	out.State = StateFailed
	return out
}
