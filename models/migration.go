package models

import (
	"log"

	"github.com/mmdatafocus/billing_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &Settings{},
		&Client{}, &Product{},
		&Document{}, &DocumentItem{},
		&UserPin{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
