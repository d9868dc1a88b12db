package models

import (
	"log"

	"bitbucket.org/mmdatafocus/chores_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Task{},
		&Transaction{},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Migration completed")
}
