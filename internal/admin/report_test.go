package admin

import (
	"testing"
	"time"

	"depo-backend/internal/clock"
	"depo-backend/internal/database"
	"depo-backend/internal/ledger"
	"depo-backend/internal/models"
)

// Rapor filtre kesitleri için küçük bir defter: iki depo, üç hareket,
// zaman damgaları sabitlenmiş.
func seedReportLedger(t *testing.T) (merkez, sube models.Location, ts []int64) {
	t.Helper()
	db := database.NewTestDB(t)

	merkez = models.Location{Name: "Merkez", Active: true}
	sube = models.Location{Name: "Şube", Active: true}
	for _, loc := range []*models.Location{&merkez, &sube} {
		if err := db.Create(loc).Error; err != nil {
			t.Fatalf("depo oluşturulamadı: %v", err)
		}
	}

	mkUser := func(login string, locID uint) models.User {
		u := models.User{
			Name: login, Login: login, PasswordHash: "x",
			Role: models.RoleStorekeeper, LocationID: &locID, Active: true,
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("kullanıcı oluşturulamadı: %v", err)
		}
		return u
	}
	userA := mkUser("merkez-depocu", merkez.ID)
	userB := mkUser("sube-depocu", sube.ID)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prev := clock.Now
	t.Cleanup(func() { clock.Now = prev })

	apply := func(step int, in ledger.ApplyOperationInput) {
		clock.Now = func() time.Time { return base.Add(time.Duration(step) * time.Minute) }
		if _, err := ledger.ApplyOperation(in); err != nil {
			t.Fatalf("hareket %d başarısız: %v", step, err)
		}
		ts = append(ts, base.Add(time.Duration(step)*time.Minute).UnixMilli())
	}

	apply(0, ledger.ApplyOperationInput{
		LocationID: merkez.ID, Code: "100", Name: "Vida", Qty: 10,
		Type: models.OperationIn, UserID: userA.ID,
	})
	apply(1, ledger.ApplyOperationInput{
		LocationID: merkez.ID, Code: "100", Qty: 2,
		Type: models.OperationOut, UserID: userA.ID,
	})
	apply(2, ledger.ApplyOperationInput{
		LocationID: sube.ID, Code: "200", Name: "Çivi", Qty: 5,
		Type: models.OperationIn, UserID: userB.ID,
	})

	return merkez, sube, ts
}

func TestBuildReportUnfilteredNewestFirst(t *testing.T) {
	_, _, ts := seedReportLedger(t)

	rows, err := BuildReport(ReportFilter{})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("3 satır bekleniyordu: %d", len(rows))
	}
	for i, want := range []int64{ts[2], ts[1], ts[0]} {
		if rows[i].Ts != want {
			t.Errorf("satır %d: ts=%d, beklenen %d (en yeni önce)", i, rows[i].Ts, want)
		}
	}
}

func TestBuildReportFilters(t *testing.T) {
	merkez, sube, ts := seedReportLedger(t)

	// depo filtresi
	rows, err := BuildReport(ReportFilter{LocationID: &merkez.ID})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("merkez için 2 satır bekleniyordu: %d", len(rows))
	}
	for _, r := range rows {
		if r.LocationName != "Merkez" {
			t.Errorf("yabancı depo satırı sızmış: %s", r.LocationName)
		}
	}

	// barkod filtresi depolar arası çalışır
	rows, err = BuildReport(ReportFilter{ItemCode: " 200 "})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 1 || rows[0].Code != "200" || rows[0].LocationName != "Şube" {
		t.Errorf("barkod filtresi hatalı: %+v", rows)
	}

	// tip filtresi
	rows, err = BuildReport(ReportFilter{Type: string(models.OperationOut)})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 1 || rows[0].Type != "out" || rows[0].Qty != 2 {
		t.Errorf("tip filtresi hatalı: %+v", rows)
	}

	// zaman aralığı yalnızca ortadaki hareketi kapsar
	rows, err = BuildReport(ReportFilter{FromTs: &ts[1], ToTs: &ts[1]})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 1 || rows[0].Ts != ts[1] {
		t.Errorf("zaman filtresi hatalı: %+v", rows)
	}

	// birleşik filtre: depo + tip
	rows, err = BuildReport(ReportFilter{LocationID: &merkez.ID, Type: string(models.OperationIn)})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 1 || rows[0].Ts != ts[0] || rows[0].UserName != "merkez-depocu" {
		t.Errorf("birleşik filtre hatalı: %+v", rows)
	}

	// eşleşmeyen filtre boş döner
	rows, err = BuildReport(ReportFilter{LocationID: &sube.ID, Type: string(models.OperationOut)})
	if err != nil {
		t.Fatalf("rapor alınamadı: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("boş sonuç bekleniyordu: %+v", rows)
	}
}
