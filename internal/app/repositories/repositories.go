package repositories

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/yigit/jobportal/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository        *UserRepository
	PositionRepository    *PositionRepository
	DocumentRepository    *DocumentRepository
	ApplicationRepository *ApplicationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.Database) *Repositories {
	return &Repositories{
		UserRepository:        NewUserRepository(database.DB, database.Dialect),
		PositionRepository:    NewPositionRepository(database.DB, database.Dialect),
		DocumentRepository:    NewDocumentRepository(database.DB, database.Dialect),
		ApplicationRepository: NewApplicationRepository(database.DB, database.Dialect),
	}
}

// WithTx returns copies of every repository bound to tx
func (r *Repositories) WithTx(tx *sql.Tx) *Repositories {
	return &Repositories{
		UserRepository:        r.UserRepository.WithTx(tx),
		PositionRepository:    r.PositionRepository.WithTx(tx),
		DocumentRepository:    r.DocumentRepository.WithTx(tx),
		ApplicationRepository: r.ApplicationRepository.WithTx(tx),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// base carries the connection (or transaction) and the dialect's builder
type base struct {
	db      db.Querier
	dialect db.Dialect
	sb      sq.StatementBuilderType
}

func newBase(q db.Querier, dialect db.Dialect) base {
	return base{db: q, dialect: dialect, sb: dialect.Builder()}
}

func (b base) withTx(tx *sql.Tx) base {
	return base{db: tx, dialect: b.dialect, sb: b.sb}
}
