package po_test

import (
	"fmt"
	"testing"

	"github.com/streamfox/services-media/internal/models/po"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoIDRoundTrip(t *testing.T) {
	values := []int64{0, 1, 7, 42, 1000, 987654321, 1<<62 - 1}
	for _, v := range values {
		t.Run(fmt.Sprintf("%d", v), func(t *testing.T) {
			id, err := po.ParseVideoID(fmt.Sprintf("%d", v))
			require.NoError(t, err)
			assert.Equal(t, v, id.Int64())
			assert.Equal(t, fmt.Sprintf("%d", v), id.String())

			// 再次解析字符串形式应得到相同值
			again, err := po.ParseVideoID(id.String())
			require.NoError(t, err)
			assert.Equal(t, id, again)
		})
	}
}

func TestParseVideoIDRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "空字符串", raw: ""},
		{name: "负数", raw: "-1"},
		{name: "带正号", raw: "+7"},
		{name: "非数字", raw: "thumbnail.jpg"},
		{name: "混合字符", raw: "42x"},
		{name: "前导空白", raw: " 42"},
		{name: "十六进制", raw: "0x2a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := po.ParseVideoID(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestSortVideoIDsAscending(t *testing.T) {
	ids := []po.VideoID{42, 7, 1000, 0, 43}
	po.SortVideoIDs(ids)
	assert.Equal(t, []po.VideoID{0, 7, 42, 43, 1000}, ids)
}

func TestVideoIDLess(t *testing.T) {
	assert.True(t, po.VideoID(1).Less(po.VideoID(2)))
	assert.False(t, po.VideoID(2).Less(po.VideoID(2)))
	assert.False(t, po.VideoID(3).Less(po.VideoID(2)))
}
