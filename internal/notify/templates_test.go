package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindNewRequest, "ben wants to borrow your item: Ladder"},
		{KindApproved, `Your borrow request for "Ladder" was approved.`},
		{KindDenied, `Your borrow request for "Ladder" was denied.`},
		{KindCancelled, `A borrow request for "Ladder" was cancelled.`},
		{KindReturned, `ben has marked "Ladder" as returned.`},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			got, ok := renderMessage(tt.kind, "ben", "Ladder")
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		_, ok := renderMessage(Kind("poke"), "ben", "Ladder")
		assert.False(t, ok)
	})
}
