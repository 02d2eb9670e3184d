// depoctl: sunucu çalışmadan veritabanı üzerinde yönetim işleri.
// İlk kurulumda admin açmak ve kilitli hesapları kurtarmak için.
package main

import (
	"fmt"
	"log"
	"os"

	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func openDB() {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN environment değişkeni tanımlanmamış")
	}
	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}
	database.DB = db
}

func hashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Şifre hashlenemedi: %v", err)
	}
	return string(hash)
}

func newCreateAdminCmd() *cobra.Command {
	var name, login, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Yeni admin kullanıcısı oluşturur",
		Run: func(cmd *cobra.Command, args []string) {
			openDB()

			user := models.User{
				Name:         name,
				Login:        login,
				PasswordHash: hashPassword(password),
				Role:         models.RoleAdmin,
				Active:       true,
			}
			if err := database.DB.Create(&user).Error; err != nil {
				log.Fatalf("Kullanıcı oluşturulamadı: %v", err)
			}
			fmt.Printf("Admin oluşturuldu: id=%d login=%s\n", user.ID, user.Login)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "görünen isim")
	cmd.Flags().StringVar(&login, "login", "", "giriş adı")
	cmd.Flags().StringVar(&password, "password", "", "şifre")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Kullanıcının şifresini sıfırlar; ilk girişte değiştirme zorunlu olur",
		Run: func(cmd *cobra.Command, args []string) {
			openDB()

			var user models.User
			if err := database.DB.Where("login = ?", login).First(&user).Error; err != nil {
				log.Fatalf("Kullanıcı bulunamadı: %s", login)
			}

			if err := database.DB.Model(&user).Updates(map[string]any{
				"password_hash":        hashPassword(password),
				"must_change_password": true,
			}).Error; err != nil {
				log.Fatalf("Şifre güncellenemedi: %v", err)
			}
			fmt.Printf("Şifre sıfırlandı: %s\n", user.Login)
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "giriş adı")
	cmd.Flags().StringVar(&password, "password", "", "yeni geçici şifre")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newDeactivateUserCmd() *cobra.Command {
	var login string

	cmd := &cobra.Command{
		Use:   "deactivate-user",
		Short: "Kullanıcı hesabını pasifleştirir",
		Run: func(cmd *cobra.Command, args []string) {
			openDB()

			var user models.User
			if err := database.DB.Where("login = ?", login).First(&user).Error; err != nil {
				log.Fatalf("Kullanıcı bulunamadı: %s", login)
			}

			if err := database.DB.Model(&user).Update("active", false).Error; err != nil {
				log.Fatalf("Kullanıcı pasifleştirilemedi: %v", err)
			}
			fmt.Printf("Hesap pasifleştirildi: %s\n", user.Login)
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "giriş adı")
	_ = cmd.MarkFlagRequired("login")

	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "depoctl",
		Short: "Depo yönetim araçları",
	}

	root.AddCommand(newCreateAdminCmd())
	root.AddCommand(newResetPasswordCmd())
	root.AddCommand(newDeactivateUserCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
