// Package authz is the single place ownership rules are decided. It is
// stateless and never touches storage: callers load the entity, then ask.
package authz

import (
	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/users"
)

// Action names a mutation a caller wants to perform on a resource.
type Action string

const (
	ActionCreateCleaning   Action = "cleaning:create"
	ActionUpdateCleaning   Action = "cleaning:update"
	ActionDeleteCleaning   Action = "cleaning:delete"
	ActionCreateOffer      Action = "offer:create"
	ActionAcceptOffer      Action = "offer:accept"
	ActionListOffers       Action = "offer:list"
	ActionCreateEvaluation Action = "evaluation:create"
)

// ownershipActions require actor.ID == resource owner.
var ownershipActions = map[Action]bool{
	ActionUpdateCleaning:   true,
	ActionDeleteCleaning:   true,
	ActionAcceptOffer:      true,
	ActionListOffers:       true,
	ActionCreateEvaluation: true,
}

// Resource is anything with an owning user.
type Resource interface {
	ResourceOwner() int64
}

// Authorize evaluates the rules in priority order; the first match wins.
//
//  1. no authenticated actor            -> Unauthorized
//  2. ownership action, actor not owner -> Forbidden
//  3. offer creation by the owner       -> InvalidAction (no self-bids)
//  4. otherwise                         -> allow
func Authorize(actor *users.User, action Action, resource Resource) error {
	if actor == nil || actor.ID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	if ownershipActions[action] && actor.ID != resource.ResourceOwner() {
		return apperrors.Forbidden("only the owner may perform this action")
	}
	if action == ActionCreateOffer && actor.ID == resource.ResourceOwner() {
		return apperrors.InvalidAction("users cannot bid on their own cleaning job")
	}
	return nil
}
