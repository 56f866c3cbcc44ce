package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/users"
)

type stubResource struct{ owner int64 }

func (r stubResource) ResourceOwner() int64 { return r.owner }

func TestAuthorize(t *testing.T) {
	alice := &users.User{ID: 1}
	bob := &users.User{ID: 2}
	res := stubResource{owner: 1}

	tests := []struct {
		name     string
		actor    *users.User
		action   Action
		resource Resource
		wantCode apperrors.ErrorCode
	}{
		{"nil actor", nil, ActionUpdateCleaning, res, apperrors.CodeUnauthorized},
		{"zero id actor", &users.User{}, ActionUpdateCleaning, res, apperrors.CodeUnauthorized},
		{"owner updates", alice, ActionUpdateCleaning, res, ""},
		{"non-owner updates", bob, ActionUpdateCleaning, res, apperrors.CodeForbidden},
		{"owner deletes", alice, ActionDeleteCleaning, res, ""},
		{"non-owner deletes", bob, ActionDeleteCleaning, res, apperrors.CodeForbidden},
		{"owner accepts", alice, ActionAcceptOffer, res, ""},
		{"non-owner accepts", bob, ActionAcceptOffer, res, apperrors.CodeForbidden},
		{"owner lists offers", alice, ActionListOffers, res, ""},
		{"non-owner lists offers", bob, ActionListOffers, res, apperrors.CodeForbidden},
		{"owner evaluates", alice, ActionCreateEvaluation, res, ""},
		{"non-owner evaluates", bob, ActionCreateEvaluation, res, apperrors.CodeForbidden},
		{"non-owner bids", bob, ActionCreateOffer, res, ""},
		{"owner self-bids", alice, ActionCreateOffer, res, apperrors.CodeInvalidAction},
		{"anyone creates a cleaning", bob, ActionCreateCleaning, nil, ""},
		{"anonymous creates a cleaning", nil, ActionCreateCleaning, nil, apperrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.resource)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}
