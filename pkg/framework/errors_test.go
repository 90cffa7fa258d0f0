package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())

	errs.Add(errors.New("first"))
	require.EqualError(t, errs.Aggregate(), "first")

	errs.Add(nil, errors.New("second"))
	require.EqualError(t, errs.Aggregate(), "Multiple errors:\nfirst\nsecond")
	require.Len(t, errs.Errors, 2)
}
