package db_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/oggyb/fall-in/internal/db"
)

// Polled and cursor-paged timestamps must keep microseconds on MySQL, whose
// default datetime column only holds milliseconds.
func TestOrderingTimestampsKeepMicroseconds(t *testing.T) {
	cases := []struct {
		model any
		field string
	}{
		{&db.Message{}, "SentAt"},
		{&db.Confession{}, "CreatedAt"},
	}
	for _, tc := range cases {
		s, err := schema.Parse(tc.model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		f := s.LookUpField(tc.field)
		require.NotNil(t, f, tc.field)
		assert.Equal(t, 6, f.Precision, "%s.%s", s.Name, tc.field)
	}
}
