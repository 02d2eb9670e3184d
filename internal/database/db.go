package database

import (
	"log"

	"depo-backend/internal/config"
	"depo-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

// Open: bağlantıyı kurar ve şemayı günceller. TranslateError açık olduğu için
// unique indeks ihlalleri gorm.ErrDuplicatedKey olarak yakalanabilir
// (eşzamanlı stok kaydı oluşturma yarışında ConflictError'a çevrilir).
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return db, Migrate(db)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Location{},
		&models.User{},
		&models.StockItem{},
		&models.Transfer{},
		&models.Operation{},
		&models.AuditLog{},
	)
}

func Init(cfg *config.Config) {
	db, err := Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}
	DB = db
	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// LockForUpdate: satır bazlı kilit (SELECT ... FOR UPDATE). SQLite FOR UPDATE
// tanımaz; zaten tek yazarlı çalıştığı için testlerde kilitsiz geçilir.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
