package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamfox/services-media/internal/models/po"
)

// VideoRepository 封装 videos 表的访问逻辑。
type VideoRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewVideoRepository 构造 VideoRepository。
func NewVideoRepository(db *pgxpool.Pool, logger log.Logger) *VideoRepository {
	return &VideoRepository{
		db:  db,
		log: log.NewHelper(logger),
	}
}

const videoColumns = "id, name, codec, format, status, views, size_bytes, bitrate_bps, created_at, updated_at"

// CreateVideoInput 描述插入新视频行所需的字段。标识由 identity 序列生成。
type CreateVideoInput struct {
	Name       *string
	Codec      po.VideoCodec
	Format     po.VideoFormat
	BitrateBPS *int64
}

// Create 插入元数据行并返回携带生成标识的实体。新行状态为 pending，
// 在二进制资产写入完成前不会出现在对外列表中。
func (r *VideoRepository) Create(ctx context.Context, sess txmanager.Session, input CreateVideoInput) (*po.Video, error) {
	q := sessionQuerier(r.db, sess)
	row := q.QueryRow(ctx, `
		INSERT INTO videos (name, codec, format, status, bitrate_bps)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+videoColumns,
		input.Name, string(input.Codec), string(input.Format), string(po.VideoStatusPending), input.BitrateBPS,
	)
	video, err := scanVideo(row)
	if err != nil {
		r.log.WithContext(ctx).Errorf("insert video failed: err=%v", err)
		return nil, fmt.Errorf("insert video: %w", err)
	}
	return video, nil
}

// FindByID 查询单个视频及其标签。
func (r *VideoRepository) FindByID(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error) {
	q := sessionQuerier(r.db, sess)
	row := q.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id.Int64())
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}

	tags, err := r.tagsForVideos(ctx, q, []po.VideoID{video.ID})
	if err != nil {
		return nil, err
	}
	video.Tags = tags[video.ID]
	return video, nil
}

// List 按 id 升序返回视频及标签。onlyAvailable 为 true 时过滤掉资产尚未写入的行。
func (r *VideoRepository) List(ctx context.Context, sess txmanager.Session, onlyAvailable bool) ([]*po.Video, error) {
	q := sessionQuerier(r.db, sess)

	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY id ASC`
	if onlyAvailable {
		query = `SELECT ` + videoColumns + ` FROM videos WHERE status = '` + string(po.VideoStatusAvailable) + `' ORDER BY id ASC`
	}

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*po.Video
	var ids []po.VideoID
	for rows.Next() {
		video, scanErr := scanVideo(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan video row: %w", scanErr)
		}
		videos = append(videos, video)
		ids = append(ids, video.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	tags, err := r.tagsForVideos(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, video := range videos {
		video.Tags = tags[video.ID]
	}
	return videos, nil
}

// UpdateVideoInput 表示更新视频时的可选字段，nil 字段保持不变。
type UpdateVideoInput struct {
	ID     po.VideoID
	Name   *string
	Codec  *po.VideoCodec
	Format *po.VideoFormat
}

// Update 执行部分更新，采用 last-write-wins 语义处理并发编辑。
func (r *VideoRepository) Update(ctx context.Context, sess txmanager.Session, input UpdateVideoInput) (*po.Video, error) {
	q := sessionQuerier(r.db, sess)

	var codec, format *string
	if input.Codec != nil {
		value := string(*input.Codec)
		codec = &value
	}
	if input.Format != nil {
		value := string(*input.Format)
		format = &value
	}

	row := q.QueryRow(ctx, `
		UPDATE videos
		SET name       = COALESCE($2, name),
		    codec      = COALESCE($3, codec),
		    format     = COALESCE($4, format),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+videoColumns,
		input.ID.Int64(), input.Name, codec, format,
	)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// MarkAvailable 在二进制资产写入成功后将行置为可列举状态并补写资产大小。
func (r *VideoRepository) MarkAvailable(ctx context.Context, sess txmanager.Session, id po.VideoID, sizeBytes int64) (*po.Video, error) {
	q := sessionQuerier(r.db, sess)
	row := q.QueryRow(ctx, `
		UPDATE videos
		SET status = $2, size_bytes = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+videoColumns,
		id.Int64(), string(po.VideoStatusAvailable), sizeBytes,
	)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("mark video available: %w", err)
	}
	return video, nil
}

// Delete 删除元数据行并返回删除前的实体。
// video_tags 关联由外键级联删除，与行删除同一原子操作。
func (r *VideoRepository) Delete(ctx context.Context, sess txmanager.Session, id po.VideoID) (*po.Video, error) {
	q := sessionQuerier(r.db, sess)
	row := q.QueryRow(ctx, `DELETE FROM videos WHERE id = $1 RETURNING `+videoColumns, id.Int64())
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("delete video: %w", err)
	}
	return video, nil
}

// IncrementViews 原子递增观看计数并返回最新值。
// 递增在数据库内就地完成，并发观看者下不会丢失更新。
func (r *VideoRepository) IncrementViews(ctx context.Context, sess txmanager.Session, id po.VideoID) (int64, error) {
	q := sessionQuerier(r.db, sess)
	var views int64
	err := q.QueryRow(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1 RETURNING views`, id.Int64()).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVideoNotFound
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// tagsForVideos 一次查询取回多个视频的标签，按 VideoID 分组。
func (r *VideoRepository) tagsForVideos(ctx context.Context, q querier, ids []po.VideoID) (map[po.VideoID][]po.Tag, error) {
	result := make(map[po.VideoID][]po.Tag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	raw := make([]int64, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Int64())
	}

	rows, err := q.Query(ctx, `
		SELECT vt.video_id, t.id, t.value
		FROM video_tags vt
		JOIN tags t ON t.id = vt.tag_id
		WHERE vt.video_id = ANY($1)
		ORDER BY t.value ASC`, raw)
	if err != nil {
		return nil, fmt.Errorf("load tags for videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var videoID int64
		var tag po.Tag
		if err := rows.Scan(&videoID, &tag.ID, &tag.Value); err != nil {
			return nil, fmt.Errorf("scan video tag row: %w", err)
		}
		result[po.VideoID(videoID)] = append(result[po.VideoID(videoID)], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tags for videos: %w", err)
	}
	return result, nil
}

func scanVideo(row pgx.Row) (*po.Video, error) {
	var video po.Video
	var id int64
	var codec, format, status string
	err := row.Scan(
		&id,
		&video.Name,
		&codec,
		&format,
		&status,
		&video.Views,
		&video.SizeBytes,
		&video.BitrateBPS,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	video.ID = po.VideoID(id)
	video.Codec = po.VideoCodec(codec)
	video.Format = po.VideoFormat(format)
	video.Status = po.VideoStatus(status)
	return &video, nil
}
