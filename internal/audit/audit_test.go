// AngelaMos | 2026
// audit_test.go

package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	v, err := encode(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = encode(map[string]string{"status": "review"})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"review"}`, v)

	_, err = encode(make(chan int))
	assert.Error(t, err)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("abc"))
	assert.Equal(t, "abc", *nullable("abc"))
}

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{PageSize: 1000}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 200, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PageSize: 20}
	p.Normalize()
	assert.Equal(t, 40, p.Offset())
}
