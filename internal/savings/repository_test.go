package savings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusUpdateQueryGuardsCompletion(t *testing.T) {
	query := statusUpdateQuery(StatusCompleted)

	assert.Contains(t, query, "AND status <> 'completed'")
	assert.Contains(t, query, "RETURNING")
}

func TestStatusUpdateQueryLeavesOtherTransitionsOpen(t *testing.T) {
	for _, status := range []string{StatusPending, StatusFailed, StatusCancelled} {
		query := statusUpdateQuery(status)

		assert.NotContains(t, query, "status <> 'completed'", "status %s", status)
		assert.Contains(t, query, "WHERE contribution_id = ($1)", "status %s", status)
	}
}

func TestTransactionRefShape(t *testing.T) {
	ref := transactionRef()

	assert.True(t, strings.HasPrefix(ref, "TXN-"))
	assert.NotEqual(t, ref, transactionRef())
}
