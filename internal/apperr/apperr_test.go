package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WalksChain(t *testing.T) {
	cause := errors.New("row missing")
	err := fmt.Errorf("lookup: %w", NotFound("match not found").Wrap(cause))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "match not found", Message(err))
	assert.Equal(t, "lookup: match not found: row missing", err.Error())
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "boom", Message(err))
	assert.Equal(t, "unknown", KindOf(err).String())
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, KindValidation, Validation("limit reached: %d per pool", 5).Kind)
	assert.Equal(t, "limit reached: 5 per pool", Validation("limit reached: %d per pool", 5).Error())
	assert.Equal(t, KindPermission, Permission("no").Kind)
	assert.Equal(t, KindState, State("match is %s", "reported").Kind)
	assert.Equal(t, "state", KindState.String())
}
