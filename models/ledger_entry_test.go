package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreditReason_Valid(t *testing.T) {
	valid := []CreditReason{
		CreditReasonPostImage,
		CreditReasonLikePost,
		CreditReasonRerollSearch,
		CreditReasonTaskCompletion,
		CreditReasonAdminAdjustment,
	}
	for _, r := range valid {
		assert.True(t, r.Valid(), "expected %q to be valid", r)
	}

	invalid := []CreditReason{"", "refund", "POST_IMAGE", "post-image"}
	for _, r := range invalid {
		assert.False(t, r.Valid(), "expected %q to be invalid", r)
	}
}
