// Package repositories 实现数据访问层，基于 pgx 直接执行 SQL。
// 所有方法接受可选的 txmanager.Session：处于事务时绑定事务连接，否则回退到连接池。
package repositories

import (
	"context"
	"errors"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 数据层哨兵错误，由 Service 层映射为边界错误。
var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrTagValueRequired = errors.New("tag value is required")
)

// querier 抽象 pgxpool.Pool 与 pgx.Tx 共有的查询能力。
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// sessionQuerier 在事务内返回事务连接，否则返回连接池。
func sessionQuerier(pool *pgxpool.Pool, sess txmanager.Session) querier {
	if sess != nil {
		if tx := sess.Tx(); tx != nil {
			return tx
		}
	}
	return pool
}
