package po

// Tag 表示 tags 表的数据库实体。
// Value 必填且非空；唯一性由 ingestion 层通过 upsert 保证。
type Tag struct {
	ID    int64  `db:"id"`
	Value string `db:"value"`
}

// VideoTag 表示 video_tags 联结表的一行，复合主键 (VideoID, TagID)。
// 两侧外键均级联删除，删除 Video 或 Tag 不会留下悬挂关联。
type VideoTag struct {
	VideoID VideoID `db:"video_id"`
	TagID   int64   `db:"tag_id"`
}
