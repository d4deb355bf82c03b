package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"work_log_items", "scheduled_days", "doc_items", "client_objects", "price_items", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		seedUsers(db)
		seedPrices(db)
		seedObjects(db)
		seedGeneralDocs(db)

		fmt.Println("Database seeded successfully")
	},
}

func seedUsers(db *gorm.DB) {
	users := []struct {
		TelegramID int64
		Name       string
		Role       string
	}{
		{100000001, "Алексей Админов", "admin"},
		{100000002, "Иван Монтажников", "installer"},
		{100000003, "Пётр Установщиков", "installer"},
	}

	for _, u := range users {
		var exists int
		row := db.Raw("SELECT 1 FROM users WHERE telegram_id = ?", u.TelegramID).Row()
		if err := row.Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec("INSERT INTO users (telegram_id, name, role, created_at) VALUES (?, ?, ?, now())", u.TelegramID, u.Name, u.Role).Error; err != nil {
			log.Fatalf("failed to insert user %s: %v", u.Name, err)
		}
		fmt.Printf("Seeded user: %s (%s)\n", u.Name, u.Role)
	}
}

func seedPrices(db *gorm.DB) {
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM price_items").Row().Scan(&count); err != nil {
		log.Fatalf("failed to count price items: %v", err)
	}
	if count > 0 {
		fmt.Println("price items already present; skipping")
		return
	}

	prices := []struct {
		Category string
		Name     string
		Price    int64
	}{
		{"Датчики", "Монтаж датчика протечки", 500},
		{"Датчики", "Монтаж датчика движения", 600},
		{"Датчики", "Настройка датчика открытия", 450},
		{"Инфраструктура", "Установка и настройка Хаба", 1500},
		{"Инфраструктура", "Расключение реле в щите", 1200},
		{"Инфраструктура", "Укладка кабеля (за м)", 100},
		{"Освещение", "Установка умного выключателя", 800},
		{"Освещение", "Контроллер RGB ленты", 950},
		{"Пусконаладка", "Программирование сценариев", 2000},
		{"Пусконаладка", "Настройка приложения клиента", 1000},
	}

	for _, p := range prices {
		if err := db.Exec("INSERT INTO price_items (category, name, price, coefficient) VALUES (?, ?, ?, 1)", p.Category, p.Name, p.Price).Error; err != nil {
			log.Fatalf("failed to insert price item %s: %v", p.Name, err)
		}
	}
	fmt.Printf("Seeded %d price items\n", len(prices))
}

func seedObjects(db *gorm.DB) {
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM client_objects").Row().Scan(&count); err != nil {
		log.Fatalf("failed to count client objects: %v", err)
	}
	if count > 0 {
		fmt.Println("client objects already present; skipping")
		return
	}

	objects := []struct {
		Name    string
		Address string
		Status  string
	}{
		{`Вилла "Барвиха"`, "Рублево-Успенское ш., 42", "active"},
		{`ЖК "Небо"`, "Мичуринский проспект, 56, кв 102", "maintenance"},
		{`Офис "TechCorp"`, "Тверская 12, 4 этаж", "completed"},
	}

	ids := make([]int64, len(objects))
	for i, o := range objects {
		if err := db.Raw(
			"INSERT INTO client_objects (name, address, status, created_at) VALUES (?, ?, ?, now()) RETURNING id",
			o.Name, o.Address, o.Status,
		).Row().Scan(&ids[i]); err != nil {
			log.Fatalf("failed to insert client object %s: %v", o.Name, err)
		}
	}
	fmt.Printf("Seeded %d client objects\n", len(objects))

	docs := []struct {
		Title    string
		Type     string
		Content  string
		ObjectID int64
	}{
		{"Схема проводки v2.0", "pdf", "", ids[0]},
		{"Фото размещения хаба", "img", "", ids[0]},
		{"Код и Wi-Fi", "text", "Код: 4589, WiFi: SmartHome_Guest / Пароль: instal123", ids[0]},
		{"Список датчиков", "text", "Кухня: 2 протечки, Холл: 1 движение", ids[1]},
		{"Пропуск на въезд", "img", "", ids[1]},
	}

	for _, d := range docs {
		var content any
		if d.Content != "" {
			content = d.Content
		}
		if err := db.Exec(
			"INSERT INTO doc_items (title, type, content, object_id, created_at) VALUES (?, ?, ?, ?, now())",
			d.Title, d.Type, content, d.ObjectID,
		).Error; err != nil {
			log.Fatalf("failed to insert doc %s: %v", d.Title, err)
		}
	}
	fmt.Printf("Seeded %d object documents\n", len(docs))
}

func seedGeneralDocs(db *gorm.DB) {
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM doc_items WHERE object_id IS NULL").Row().Scan(&count); err != nil {
		log.Fatalf("failed to count general docs: %v", err)
	}
	if count > 0 {
		fmt.Println("general docs already present; skipping")
		return
	}

	type generalDoc struct {
		Title   string
		Type    string
		URL     string
		Content string
	}
	docs := []generalDoc{
		{Title: "Регламент работ 2025", Type: "pdf"},
		{Title: "Настройка роутера Mikrotik", Type: "link", URL: "https://wiki.mikrotik.com/wiki/Manual:TOC"},
		{Title: "Пароли от сервисов", Type: "text", Content: "CRM: admin/admin123"},
	}

	for _, d := range docs {
		var url, content any
		if d.URL != "" {
			url = d.URL
		}
		if d.Content != "" {
			content = d.Content
		}
		if err := db.Exec(
			"INSERT INTO doc_items (title, type, url, content, created_at) VALUES (?, ?, ?, ?, now())",
			d.Title, d.Type, url, content,
		).Error; err != nil {
			log.Fatalf("failed to insert general doc %s: %v", d.Title, err)
		}
	}
	fmt.Printf("Seeded %d general documents\n", len(docs))
}
