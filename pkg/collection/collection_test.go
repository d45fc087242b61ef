package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	ID   string
	Name string
}

func id(r row) string { return r.ID }

func TestUpsertByReplacesInPlaceAndDeduplicates(t *testing.T) {
	in := []row{{"1", "a"}, {"2", "b"}, {"1", "stale"}}

	out := UpsertBy(in, row{"1", "new"}, id)

	assert.Equal(t, []row{{"1", "new"}, {"2", "b"}}, out)
	assert.Equal(t, "a", in[0].Name, "input untouched")
}

func TestUpsertByPrependsMissing(t *testing.T) {
	out := UpsertBy([]row{{"1", "a"}}, row{"9", "z"}, id)
	assert.Equal(t, []row{{"9", "z"}, {"1", "a"}}, out)

	out = UpsertBy(nil, row{"9", "z"}, id)
	assert.Equal(t, []row{{"9", "z"}}, out)
}

func TestRemoveBy(t *testing.T) {
	out := RemoveBy([]row{{"1", "a"}, {"2", "b"}, {"1", "c"}}, "1", id)
	assert.Equal(t, []row{{"2", "b"}}, out)
	assert.Empty(t, RemoveBy(nil, "1", id))
}

func TestHelpers(t *testing.T) {
	rows := []row{{"1", "a"}, {"2", "b"}, {"1", "c"}}

	assert.Equal(t, []string{"a", "b", "c"}, Map(rows, func(r row) string { return r.Name }))
	assert.Equal(t, []row{{"2", "b"}}, Filter(rows, func(r row) bool { return r.ID == "2" }))
	assert.Equal(t, []row{{"1", "a"}, {"2", "b"}}, UniqueBy(rows, id))
	assert.Equal(t, row{"1", "c"}, KeyBy(rows, id)["1"])

	r, ok := First(rows, func(r row) bool { return r.Name == "b" })
	assert.True(t, ok)
	assert.Equal(t, "2", r.ID)
	_, ok = First(rows, func(r row) bool { return false })
	assert.False(t, ok)
}
