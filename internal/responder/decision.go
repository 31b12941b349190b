package responder

import "fmt"

// Replies are the fixed reply texts per rating band.
type Replies struct {
	Positive string `yaml:"positive"`
	Neutral  string `yaml:"neutral"`
	Apology  string `yaml:"apology"`
}

// DefaultReplies returns the stock replies.
func DefaultReplies() Replies {
	return Replies{
		Positive: "It was a pleasure serving you. We appreciate you taking the time to share your feedback and being so open with us. We're happy you enjoyed our service, and we hope you'll come and see us again soon!",
		Neutral:  "Thanks for your balanced feedback. We're always working to improve our service and your insights help us do that. We appreciate you taking the time to share your experience and hope to serve you again soon!",
		Apology:  "We're sorry to hear about your issue. We understand your frustration and will look to improve so we can provide a better experience for your next time",
	}
}

// Discounts are the dollar amounts per rating band.
type Discounts struct {
	Positive int `yaml:"positive"`
	Neutral  int `yaml:"neutral"`
	Apology  int `yaml:"apology"`
}

// DefaultDiscounts returns $2 for 4-5 stars, $1 for 3 stars and a one-time
// $5 for 1-2 stars.
func DefaultDiscounts() Discounts {
	return Discounts{Positive: 2, Neutral: 1, Apology: 5}
}

// Validate rejects negative amounts.
func (d Discounts) Validate() error {
	if d.Positive < 0 || d.Neutral < 0 || d.Apology < 0 {
		return fmt.Errorf("discounts must not be negative: %+v", d)
	}
	return nil
}

// Decision is the reply and discount chosen for one review.
type Decision struct {
	Rating   int
	Reply    string
	Discount int
	// Grant is set when the discount is a first-time apology discount that
	// must be recorded in the ledger.
	Grant bool
}

// NeedsIdentity reports whether a rating's decision depends on who wrote it.
func NeedsIdentity(rating int) bool {
	return rating == 1 || rating == 2
}

// Decide maps a rating and ledger membership to a reply and discount.
// alreadyDiscounted is ignored for ratings 3-5. Ratings outside 1..5,
// including the undetected sentinel 0, have no decision.
func Decide(rating int, alreadyDiscounted bool, replies Replies, discounts Discounts) (Decision, bool) {
	switch rating {
	case 4, 5:
		return Decision{Rating: rating, Reply: replies.Positive, Discount: discounts.Positive}, true
	case 3:
		return Decision{Rating: rating, Reply: replies.Neutral, Discount: discounts.Neutral}, true
	case 1, 2:
		if alreadyDiscounted {
			return Decision{Rating: rating, Reply: replies.Apology}, true
		}
		return Decision{Rating: rating, Reply: replies.Apology, Discount: discounts.Apology, Grant: discounts.Apology > 0}, true
	default:
		return Decision{Rating: rating}, false
	}
}
