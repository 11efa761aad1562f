package main

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/config"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	user := seedUser(db)
	seedStores(db)
	seedDemoList(db, user)

	log.Println("🎉 Seeding completed!")
}

func seedUser(db *gorm.DB) *model.User {
	email := "demo@nearbuy.local"

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("🔄 User already exists: %s", email)
		return &existing
	}

	user := model.User{
		ID:    uuid.New(),
		Name:  "Demo Shopper",
		Email: email,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("❌ Failed to create user: %v", err)
	}
	log.Printf("✅ Created user: %s (id=%s, use the id as bearer subject)", email, user.ID)

	device := model.DeviceToken{
		UserID:       user.ID,
		FCMToken:     "demo-fcm-token",
		DeviceType:   "android",
		LastActiveAt: time.Now(),
	}
	if err := db.Create(&device).Error; err != nil {
		log.Printf("⚠️ Failed to create device token: %v", err)
	}

	return &user
}

func seedStores(db *gorm.DB) {
	stores := []model.Store{
		{Name: "Edeka Mitte", Latitude: 52.5208, Longitude: 13.4095},
		{Name: "Rewe Alexanderplatz", Latitude: 52.5219, Longitude: 13.4132},
		{Name: "Lidl Prenzlauer Berg", Latitude: 52.5387, Longitude: 13.4244},
		{Name: "dm Friedrichshain", Latitude: 52.5125, Longitude: 13.4536},
	}

	for _, store := range stores {
		var count int64
		db.Model(&model.Store{}).Where("name = ?", store.Name).Count(&count)
		if count > 0 {
			continue
		}
		store.ID = uuid.New()
		if err := db.Create(&store).Error; err != nil {
			log.Printf("❌ Failed to create store %s: %v", store.Name, err)
		} else {
			log.Printf("✅ Created store: %s", store.Name)
		}
	}
}

func seedDemoList(db *gorm.DB, user *model.User) {
	var count int64
	db.Model(&model.List{}).Where("user_id = ? AND name = ?", user.ID, "Weekly Groceries").Count(&count)
	if count > 0 {
		return
	}

	deadline := time.Now().Add(20 * time.Hour)
	list := model.List{
		ID:       uuid.New(),
		UserID:   user.ID,
		Name:     "Weekly Groceries",
		Deadline: &deadline,
	}
	if err := db.Create(&list).Error; err != nil {
		log.Printf("❌ Failed to create list: %v", err)
		return
	}

	items := []model.ListItem{
		{ListID: list.ID, Name: "Milk", GeoAlert: true},
		{ListID: list.ID, Name: "Eggs", GeoAlert: true},
		{ListID: list.ID, Name: "Sourdough Bread", GeoAlert: true},
		{ListID: list.ID, Name: "Birthday Card", Deadline: &deadline},
	}
	for i := range items {
		items[i].ID = uuid.New()
		if err := db.Create(&items[i]).Error; err != nil {
			log.Printf("❌ Failed to create item %s: %v", items[i].Name, err)
		}
	}

	log.Printf("✅ Created demo list 'Weekly Groceries' with %d items", len(items))
}
