package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"cockpit/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, sentinel.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("select: %w", sql.ErrNoRows), sentinel.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, sentinel.ErrConflict},
		{"connection failure", &pq.Error{Code: "08006"}, sentinel.ErrUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, sentinel.ErrUnavailable},
		{"serialization failure", &pq.Error{Code: "40001"}, sentinel.ErrUnavailable},
		{"deadlock", &pq.Error{Code: "40P01"}, sentinel.ErrUnavailable},
		{"bad connection", driver.ErrBadConn, sentinel.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, sentinel.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tc.err), tc.want)
		})
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	assert.NoError(t, Classify(nil))

	check := &pq.Error{Code: "23514"}
	assert.Same(t, error(check), Classify(check))

	plain := errors.New("boom")
	assert.Same(t, plain, Classify(plain))

	classified := Classify(context.DeadlineExceeded)
	assert.Same(t, classified, Classify(classified))
}
