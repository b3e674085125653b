// Package review enforces the internal -> client gate on quotes.
package review

import (
	"fmt"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
)

var transitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionCollecting:     {models.SessionReady},
	models.SessionReady:          {models.SessionInternalReview},
	models.SessionInternalReview: {models.SessionApproved},
	// a revision reopens review on a fresh snapshot
	models.SessionApproved: {models.SessionInternalReview},
}

func CanTransition(from, to models.SessionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition returns a CONFLICT error when the move is not allowed.
func Transition(from, to models.SessionStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return utils.E(utils.CodeConflict, "Review.Transition", fmt.Sprintf("cannot move session from %s to %s", from, to), nil)
}
