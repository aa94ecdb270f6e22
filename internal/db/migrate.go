package db

import (
	"context"
	"correspondence-tracker/internal/directory"
	"correspondence-tracker/internal/domain"
	"correspondence-tracker/internal/user"
	"log"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&domain.Service{},
		&domain.User{},
		&domain.Document{},
		&domain.Transfer{},
	)

	if err != nil {
		log.Fatal(err)
	}

	// Composite index backing the per-service dashboard query.
	if !AppDb.Migrator().HasIndex(&domain.Document{}, "idx_documents_service_lookup") {
		AppDb.Exec("CREATE INDEX idx_documents_service_lookup ON documents (target_service_id)")
	}

	log.Println("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	ctx := context.Background()
	serviceRepo := directory.NewRepository(AppDb)
	userRepo := user.NewRepository(AppDb)

	svc, err := serviceRepo.FindByName(ctx, "Direction Générale")
	if err != nil {
		svc = &domain.Service{Name: "Direction Générale"}
		if err := serviceRepo.Create(ctx, svc); err != nil {
			log.Printf("Error creating default service: %v", err)
			return
		}
		log.Printf("Created default service: %s", svc.Name)
	}

	adminEmail := "admin@example.com"
	if _, err := userRepo.FindByEmail(ctx, adminEmail); err != nil {
		admin := &domain.User{
			Name:      "Admin",
			Email:     adminEmail,
			Password:  "password123",
			Role:      domain.RoleAdmin,
			Position:  "Administrator",
			ServiceID: &svc.ID,
		}
		userService := user.NewService(userRepo)
		if err := userService.Register(ctx, admin); err != nil {
			log.Printf("Error creating admin user: %v", err)
		} else {
			log.Printf("Created admin user: %s", adminEmail)
		}
	} else {
		log.Printf("Admin user already exists: %s", adminEmail)
	}
}
