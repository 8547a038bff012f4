package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"usersvc/internal/model"
)

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// userRow is the table layout of a stored user. Seq keeps insertion order;
// Email is nullable so the unique index only applies to users that have one.
type userRow struct {
	Seq       int       `gorm:"primaryKey;autoIncrement:false"`
	ID        string    `gorm:"size:64;uniqueIndex;not null"`
	Name      string    `gorm:"size:255;not null"`
	Email     *string   `gorm:"size:255;uniqueIndex"`
	Password  string    `gorm:"size:255"`
	Role      string    `gorm:"size:50;not null;default:'user'"`
	CreatedAt time.Time `gorm:"not null"`
}

func (userRow) TableName() string {
	return "users"
}

// MySQLBackend stores the collection in a MySQL table. Save replaces every
// row inside one transaction, which keeps the whole-collection semantics of
// the file backend.
type MySQLBackend struct {
	db *gorm.DB
}

var _ Backend = (*MySQLBackend)(nil)

// NewMySQLBackend creates the users table if needed.
func NewMySQLBackend(db *gorm.DB) (*MySQLBackend, error) {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate users: %w", err)
	}
	return &MySQLBackend{db: db}, nil
}

func (b *MySQLBackend) Load(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := b.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

func (b *MySQLBackend) Save(ctx context.Context, users []model.User) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&userRow{}).Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		if len(users) == 0 {
			return nil
		}

		rows := make([]userRow, 0, len(users))
		for i := range users {
			rows = append(rows, rowFromModel(i, &users[i]))
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		return nil
	})
}

func rowFromModel(seq int, u *model.User) userRow {
	row := userRow{
		Seq:       seq,
		ID:        u.ID,
		Name:      u.Name,
		Password:  u.Password,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.Email != "" {
		email := u.Email
		row.Email = &email
	}
	return row
}

func (r userRow) toModel() model.User {
	u := model.User{
		ID:        r.ID,
		Name:      r.Name,
		Password:  r.Password,
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	return u
}
