// Package storetest opens throwaway in-memory databases for tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/stores"
)

// Open returns a migrated in-memory SQLite database with the default roles.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := stores.EnsureRoles(context.Background(), db); err != nil {
		t.Fatalf("ensure roles: %v", err)
	}
	return db
}

// CreateUser stores a user holding the given groups; no groups means Members.
func CreateUser(t testing.TB, db *gorm.DB, username string, groups ...string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x"}
	for _, name := range groups {
		var g models.Group
		if err := db.Where("name = ?", name).First(&g).Error; err != nil {
			t.Fatalf("group %s: %v", name, err)
		}
		u.Groups = append(u.Groups, g)
	}
	if err := stores.NewUserStore(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateArticle stores an article written by author.
func CreateArticle(t testing.TB, db *gorm.DB, author *models.User, title string) *models.Article {
	t.Helper()
	a := &models.Article{AuthorID: author.ID, Title: title, Content: "body of " + title}
	if err := stores.NewArticleStore(db).Create(context.Background(), a, nil); err != nil {
		t.Fatalf("create article %s: %v", title, err)
	}
	return a
}
