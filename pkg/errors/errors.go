package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

var (
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("记录已存在")
	// ErrReferenced 违反外键约束（被引用或引用不存在的记录）
	ErrReferenced = errors.New("记录存在关联数据")
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("记录不存在")
)

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Classify 将数据库驱动错误归类为领域无关的哨兵错误
// 无法识别的错误原样返回
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrReferenced
		}
	}
	return err
}

// IsNotFound 判断是否记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
