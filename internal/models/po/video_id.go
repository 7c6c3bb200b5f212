package po

import (
	"fmt"
	"sort"
	"strconv"
)

// VideoID 是视频的规范数字标识，由数据库 identity 序列生成。
// 其十进制字符串形式同时作为二进制资产的存储键（文件名/对象名）。
type VideoID int64

// ParseVideoID 将存储键解析为 VideoID。
// 严格解析：仅接受无符号、无前导空白的十进制数字。
func ParseVideoID(raw string) (VideoID, error) {
	value, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("parse video id %q: %w", raw, err)
	}
	return VideoID(value), nil
}

// String 返回规范的十进制表示，即存储键本身。
func (id VideoID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Int64 返回底层整数值。
func (id VideoID) Int64() int64 {
	return int64(id)
}

// Less 按底层整数比较，升序即上传顺序。
func (id VideoID) Less(other VideoID) bool {
	return id < other
}

// SortVideoIDs 原地升序排序。
func SortVideoIDs(ids []VideoID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
