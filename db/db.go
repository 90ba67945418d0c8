package db

import (
	"context"

	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/env"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func init() {
	var err error
	db, err = gorm.Open(postgres.Open(env.DB_CONN), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	db.AutoMigrate(&model.BlindUser{})
	db.AutoMigrate(&model.Guardian{})
	db.AutoMigrate(&model.Session{})
	db.AutoMigrate(&model.Connection{})
}

func GetDB(ctx context.Context) *gorm.DB {
	return db.WithContext(ctx)
}
