package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamfox/services-media/internal/models/po"
)

// TagRepository 封装 tags 与 video_tags 表的访问逻辑。
type TagRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewTagRepository 构造 TagRepository。
func NewTagRepository(db *pgxpool.Pool, logger log.Logger) *TagRepository {
	return &TagRepository{
		db:  db,
		log: log.NewHelper(logger),
	}
}

// Ensure 返回 value 对应的标签，不存在则创建。
// Value 唯一性是软不变量：未建唯一索引，read committed 下先查后插
// 不能串行化并发写入，两个事务并发摄取同一标签仍可能各插一行。
// 残留的重复行由查询侧容忍，不影响正确性。
func (r *TagRepository) Ensure(ctx context.Context, sess txmanager.Session, value string) (*po.Tag, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrTagValueRequired
	}

	q := sessionQuerier(r.db, sess)

	var tag po.Tag
	err := q.QueryRow(ctx, `SELECT id, value FROM tags WHERE value = $1 LIMIT 1`, value).Scan(&tag.ID, &tag.Value)
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find tag by value: %w", err)
	}

	err = q.QueryRow(ctx, `INSERT INTO tags (value) VALUES ($1) RETURNING id, value`, value).Scan(&tag.ID, &tag.Value)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return &tag, nil
}

// FindByValue 按标签文本查询。
func (r *TagRepository) FindByValue(ctx context.Context, sess txmanager.Session, value string) (*po.Tag, error) {
	q := sessionQuerier(r.db, sess)
	var tag po.Tag
	err := q.QueryRow(ctx, `SELECT id, value FROM tags WHERE value = $1 LIMIT 1`, value).Scan(&tag.ID, &tag.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("find tag by value: %w", err)
	}
	return &tag, nil
}

// Attach 建立视频与标签的关联。对级幂等：已存在的配对是 no-op，不产生重复行。
func (r *TagRepository) Attach(ctx context.Context, sess txmanager.Session, videoID po.VideoID, tagID int64) error {
	q := sessionQuerier(r.db, sess)
	_, err := q.Exec(ctx, `
		INSERT INTO video_tags (video_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (video_id, tag_id) DO NOTHING`,
		videoID.Int64(), tagID,
	)
	if err != nil {
		r.log.WithContext(ctx).Errorf("attach tag failed: video_id=%s tag_id=%d err=%v", videoID, tagID, err)
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

// Detach 解除视频与标签的关联。配对不存在时同样返回 nil。
func (r *TagRepository) Detach(ctx context.Context, sess txmanager.Session, videoID po.VideoID, tagID int64) error {
	q := sessionQuerier(r.db, sess)
	_, err := q.Exec(ctx, `DELETE FROM video_tags WHERE video_id = $1 AND tag_id = $2`, videoID.Int64(), tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return nil
}

// Delete 删除标签行，引用它的全部关联经外键级联一并删除，视频行保持不变。
func (r *TagRepository) Delete(ctx context.Context, sess txmanager.Session, tagID int64) error {
	q := sessionQuerier(r.db, sess)
	tag, err := q.Exec(ctx, `DELETE FROM tags WHERE id = $1`, tagID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTagNotFound
	}
	return nil
}

// ListForVideo 返回视频的全部标签，按文本升序。
func (r *TagRepository) ListForVideo(ctx context.Context, sess txmanager.Session, videoID po.VideoID) ([]po.Tag, error) {
	q := sessionQuerier(r.db, sess)
	rows, err := q.Query(ctx, `
		SELECT t.id, t.value
		FROM video_tags vt
		JOIN tags t ON t.id = vt.tag_id
		WHERE vt.video_id = $1
		ORDER BY t.value ASC`, videoID.Int64())
	if err != nil {
		return nil, fmt.Errorf("list tags for video: %w", err)
	}
	defer rows.Close()

	var tags []po.Tag
	for rows.Next() {
		var tag po.Tag
		if err := rows.Scan(&tag.ID, &tag.Value); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags for video: %w", err)
	}
	return tags, nil
}

// ListVideoIDsForTag 返回引用标签的全部视频标识，升序。
func (r *TagRepository) ListVideoIDsForTag(ctx context.Context, sess txmanager.Session, tagID int64) ([]po.VideoID, error) {
	q := sessionQuerier(r.db, sess)
	rows, err := q.Query(ctx, `SELECT video_id FROM video_tags WHERE tag_id = $1 ORDER BY video_id ASC`, tagID)
	if err != nil {
		return nil, fmt.Errorf("list videos for tag: %w", err)
	}
	defer rows.Close()

	var ids []po.VideoID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan video id row: %w", err)
		}
		ids = append(ids, po.VideoID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos for tag: %w", err)
	}
	return ids, nil
}
