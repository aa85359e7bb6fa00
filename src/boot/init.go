package boot

import (
	"dcp/src/db"
	"dcp/src/lib"
	"dcp/src/models"
	"dcp/src/utils"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.AdminUser{},
		&models.Campaign{},
		&models.Donation{},
		&models.Subscriber{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// SeedAdminUser creates the bootstrap admin account from env on an empty
// install. No-op once any admin exists.
func SeedAdminUser() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	g := db.GetDb()
	var count int64
	if err := g.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
		log.Printf("Error checking admin users: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing seed password: %s\n", err.Error())
		return
	}
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Admin"
	}
	admin := models.AdminUser{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := g.Create(&admin).Error; err != nil {
		log.Printf("Error seeding admin user: %s\n", err.Error())
		return
	}
	log.Printf("Seeded admin user [%s]\n", email)
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if os.Getenv("RECONCILE_DISABLE") != "true" {
		jobID, err := lib.CreateCronJob(func() {
			utils.ReconcilePendingDonations(time.Hour)
		}, 30*time.Minute)
		if err != nil {
			log.Printf("Error scheduling reconcile sweep: %s\n", err.Error())
		} else {
			log.Printf("Reconcile sweep scheduled: %s\n", *jobID)
		}
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
