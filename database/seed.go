package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/auth"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedPrograms(); err != nil {
		return fmt.Errorf("failed to seed programs: %w", err)
	}

	if err := s.SeedAnnouncements(); err != nil {
		return fmt.Errorf("failed to seed announcements: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	// Hash password
	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	admin := &model.User{
		Email:           adminEmail,
		PasswordHash:    passwordHash,
		FullName:        "System Administrator",
		Role:            model.RoleAdmin,
		EmailVerifiedAt: &now,
		TokenVersion:    0,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedPrograms creates sample grant programs
func (s *Seeder) SeedPrograms() error {
	// Check if programs already exist
	var count int64
	if err := s.db.Model(&model.Program{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Programs already exist, skipping...")
		return nil
	}

	inThirtyDays := time.Now().AddDate(0, 0, 30)
	inNinetyDays := time.Now().AddDate(0, 0, 90)

	programs := []model.Program{
		{
			Title:       "Undergraduate STEM Grant",
			Description: "Tuition support for undergraduate students in science, technology, engineering and mathematics programs.",
			GrantAmount: 50000000, // ₦500,000
			Currency:    "NGN",
			Deadline:    &inThirtyDays,
			Active:      true,
		},
		{
			Title:       "Postgraduate Research Fellowship",
			Description: "Research funding for masters and doctoral candidates with a published research proposal.",
			GrantAmount: 150000000, // ₦1,500,000
			Currency:    "NGN",
			Deadline:    &inNinetyDays,
			Active:      true,
		},
		{
			Title:       "Vocational Skills Bursary",
			Description: "Support for accredited vocational and technical training programs. Rolling deadline.",
			GrantAmount: 25000000, // ₦250,000
			Currency:    "NGN",
			Active:      true,
		},
	}

	if err := s.db.Create(&programs).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d grant programs\n", len(programs))
	return nil
}

// SeedAnnouncements creates the welcome announcement
func (s *Seeder) SeedAnnouncements() error {
	var count int64
	if err := s.db.Model(&model.Announcement{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Announcements already exist, skipping...")
		return nil
	}

	var admin model.User
	if err := s.db.Where("role = ?", model.RoleAdmin).First(&admin).Error; err != nil {
		log.Println("⚠️  No admin user found, skipping announcement seeding")
		return nil
	}

	announcement := model.Announcement{
		AuthorID:  admin.ID,
		Title:     "Welcome to GrantHub",
		Body:      "Browse the open grant programs, start an application, and connect with a mentor. Applications save automatically while you type.",
		Published: true,
	}

	if err := s.db.Create(&announcement).Error; err != nil {
		return err
	}

	log.Println("✅ Created welcome announcement")
	return nil
}

// RunSeeds is the entry point used by cmd/seed
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
