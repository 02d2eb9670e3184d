package transfer

import (
	"errors"
	"testing"
	"time"

	"depo-backend/internal/apperr"
	"depo-backend/internal/auth"
	"depo-backend/internal/clock"
	"depo-backend/internal/database"
	"depo-backend/internal/ledger"
	"depo-backend/internal/models"
)

type fixture struct {
	src, dst           models.Location
	srcActor, dstActor *auth.Actor
}

// newFixture: iki depo, her birinde bir depocu. Kaynak depoya başlangıç stoku
// ayrıca stockIn ile yüklenir.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)

	f := &fixture{
		src: models.Location{Name: "Merkez", Active: true},
		dst: models.Location{Name: "Şube", Active: true},
	}
	for _, loc := range []*models.Location{&f.src, &f.dst} {
		if err := db.Create(loc).Error; err != nil {
			t.Fatalf("depo oluşturulamadı: %v", err)
		}
	}

	mkActor := func(login string, locID uint) *auth.Actor {
		u := models.User{
			Name: login, Login: login, PasswordHash: "x",
			Role: models.RoleStorekeeper, LocationID: &locID, Active: true,
		}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("kullanıcı oluşturulamadı: %v", err)
		}
		return &auth.Actor{ID: u.ID, Name: u.Name, Login: u.Login, Role: u.Role, LocationID: u.LocationID}
	}
	f.srcActor = mkActor("kaynak-depocu", f.src.ID)
	f.dstActor = mkActor("hedef-depocu", f.dst.ID)
	return f
}

func (f *fixture) stockIn(t *testing.T, actor *auth.Actor, code, name string, qty int) *models.StockItem {
	t.Helper()
	item, err := ledger.ApplyOperation(ledger.ApplyOperationInput{
		LocationID: *actor.LocationID,
		Code:       code,
		Name:       name,
		Qty:        qty,
		Type:       models.OperationIn,
		UserID:     actor.ID,
	})
	if err != nil {
		t.Fatalf("stok girişi başarısız: %v", err)
	}
	return item
}

func (f *fixture) itemQty(t *testing.T, locID uint, code string) (qty int, active bool) {
	t.Helper()
	var item models.StockItem
	err := database.DB.Where("location_id = ? AND code = ?", locID, code).First(&item).Error
	if err != nil {
		t.Fatalf("stok kaydı okunamadı: %v", err)
	}
	return item.Quantity, item.Active
}

func TestCreateReservesWithoutDeducting(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "100", "Matkap", 10)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 6, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}
	if tr.Status != models.TransferPending {
		t.Errorf("durum PENDING olmalı: %s", tr.Status)
	}
	if tr.PublicID == "" {
		t.Error("public id boş")
	}

	// fiziksel miktar değişmez, rezervasyon hesaba yansır
	if qty, _ := f.itemQty(t, f.src.ID, "100"); qty != 10 {
		t.Errorf("bekleyen transfer miktarı düşmüş: %d", qty)
	}
	available, err := AvailableToTransfer(f.src.ID, "100")
	if err != nil {
		t.Fatalf("hesap başarısız: %v", err)
	}
	if available != 4 {
		t.Errorf("transfer edilebilir 4 olmalı: %d", available)
	}

	// ikinci transfer kalan 4'ü aşamaz
	_, err = Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 5, Actor: f.srcActor})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("yetersiz stok bekleniyordu, gelen: %v", err)
	}

	// tam kalan kadar olur
	if _, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 4, Actor: f.srcActor}); err != nil {
		t.Fatalf("kalan miktar için transfer açılamadı: %v", err)
	}
}

func TestAcceptSettlesBothSides(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "200", "Jeneratör", 10)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 6, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}

	accepted, err := Accept(tr.PublicID, f.dstActor)
	if err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}
	if accepted.Status != models.TransferAccepted {
		t.Errorf("durum: %s", accepted.Status)
	}
	if accepted.ActedByID == nil || *accepted.ActedByID != f.dstActor.ID {
		t.Error("kabul eden kullanıcı yazılmamış")
	}
	if accepted.ActedTs == nil {
		t.Error("sonuçlanma zamanı yazılmamış")
	}

	if qty, active := f.itemQty(t, f.src.ID, "200"); qty != 4 || !active {
		t.Errorf("kaynak: qty=%d active=%v", qty, active)
	}
	if qty, active := f.itemQty(t, f.dst.ID, "200"); qty != 6 || !active {
		t.Errorf("hedef: qty=%d active=%v", qty, active)
	}

	// hedef kayıt transferdeki ad kopyasıyla açılır
	var dstItem models.StockItem
	if err := database.DB.Where("location_id = ? AND code = ?", f.dst.ID, "200").First(&dstItem).Error; err != nil {
		t.Fatalf("hedef kayıt okunamadı: %v", err)
	}
	if dstItem.Name != "Jeneratör" {
		t.Errorf("hedef ad: %q", dstItem.Name)
	}

	// iki defter kaydı: kaynakta çıkış, hedefte giriş, ikisi de transfere bağlı
	var ops []models.Operation
	if err := database.DB.Where("transfer_id = ?", accepted.ID).Order("id ASC").Find(&ops).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("2 hareket bekleniyordu: %d", len(ops))
	}
	if ops[0].Type != models.OperationOut || ops[0].LocationID != f.src.ID || ops[0].UserID != f.srcActor.ID {
		t.Errorf("çıkış hareketi hatalı: %+v", ops[0])
	}
	if ops[1].Type != models.OperationIn || ops[1].LocationID != f.dst.ID || ops[1].UserID != f.dstActor.ID {
		t.Errorf("giriş hareketi hatalı: %+v", ops[1])
	}
}

func TestAcceptDrainsSourceToZero(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "250", "Halat", 5)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 5, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}
	if _, err := Accept(tr.PublicID, f.dstActor); err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}

	// sıfıra inen kaynak kayıt pasifleşir
	if qty, active := f.itemQty(t, f.src.ID, "250"); qty != 0 || active {
		t.Errorf("kaynak: qty=%d active=%v", qty, active)
	}
}

func TestRejectLeavesBalancesUntouched(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "300", "Kompresör", 8)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 8, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}

	rejected, err := Reject(tr.PublicID, f.dstActor)
	if err != nil {
		t.Fatalf("ret başarısız: %v", err)
	}
	if rejected.Status != models.TransferRejected {
		t.Errorf("durum: %s", rejected.Status)
	}

	if qty, _ := f.itemQty(t, f.src.ID, "300"); qty != 8 {
		t.Errorf("kaynak miktar değişmiş: %d", qty)
	}
	var dstCount int64
	database.DB.Model(&models.StockItem{}).
		Where("location_id = ? AND code = ?", f.dst.ID, "300").Count(&dstCount)
	if dstCount != 0 {
		t.Error("ret hedefte kayıt açmış")
	}

	// ret hareket defterine hiçbir şey yazmaz
	var opCount int64
	database.DB.Model(&models.Operation{}).Where("transfer_id = ?", rejected.ID).Count(&opCount)
	if opCount != 0 {
		t.Errorf("ret defter kaydı üretmiş: %d", opCount)
	}

	// rezervasyon düşer: tam miktar yeniden transfer edilebilir
	available, err := AvailableToTransfer(f.src.ID, "300")
	if err != nil {
		t.Fatalf("hesap başarısız: %v", err)
	}
	if available != 8 {
		t.Errorf("transfer edilebilir 8 olmalı: %d", available)
	}
}

func TestAcceptReactivatesDeletedDestinationItem(t *testing.T) {
	f := newFixture(t)

	// hedefte aynı barkodlu kayıt önce vardı, silindi (miktar sıfırlandı)
	dstItem := f.stockIn(t, f.dstActor, "400", "Orijinal Ad", 8)
	if _, err := ledger.SoftDeleteItem(dstItem.ID, f.dstActor.LocationID, false); err != nil {
		t.Fatalf("hedef kayıt silinemedi: %v", err)
	}

	srcItem := f.stockIn(t, f.srcActor, "400", "Kaynak Adı", 3)
	tr, err := Create(CreateInput{ItemID: srcItem.ID, ToLocationID: f.dst.ID, Qty: 3, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}
	if _, err := Accept(tr.PublicID, f.dstActor); err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}

	// kayıt geri açılır; miktar silme öncesinden DEĞİL sıfırdan başlar,
	// ad transferdeki kopyayla ezilmez
	var revived models.StockItem
	if err := database.DB.First(&revived, "id = ?", dstItem.ID).Error; err != nil {
		t.Fatalf("hedef kayıt okunamadı: %v", err)
	}
	if revived.Quantity != 3 {
		t.Errorf("miktar 3 olmalıydı: %d", revived.Quantity)
	}
	if !revived.Active {
		t.Error("kayıt aktifleşmemiş")
	}
	if revived.Name != "Orijinal Ad" {
		t.Errorf("hedef ad ezilmiş: %q", revived.Name)
	}
}

func TestDecideTwiceFails(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "500", "Testere", 10)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 2, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}
	if _, err := Accept(tr.PublicID, f.dstActor); err != nil {
		t.Fatalf("ilk kabul başarısız: %v", err)
	}

	if _, err := Accept(tr.PublicID, f.dstActor); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("ikinci kabul için invalid-state bekleniyordu, gelen: %v", err)
	}
	if _, err := Reject(tr.PublicID, f.dstActor); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("kabul sonrası ret için invalid-state bekleniyordu, gelen: %v", err)
	}

	// ikinci denemeler ikinci kez düşüm yapmamalı
	if qty, _ := f.itemQty(t, f.src.ID, "500"); qty != 8 {
		t.Errorf("kaynak miktar: %d", qty)
	}
	if qty, _ := f.itemQty(t, f.dst.ID, "500"); qty != 2 {
		t.Errorf("hedef miktar: %d", qty)
	}
}

func TestAcceptAfterWriteOffRollsBack(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "600", "Kaynak Makinesi", 10)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 6, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}

	// transfer beklerken manuel çıkış stoku 5'e düşürür
	if _, err := ledger.ApplyOperation(ledger.ApplyOperationInput{
		LocationID: f.src.ID, Code: "600", Qty: 5,
		Type: models.OperationOut, UserID: f.srcActor.ID,
	}); err != nil {
		t.Fatalf("manuel çıkış başarısız: %v", err)
	}

	_, err = Accept(tr.PublicID, f.dstActor)
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("yetersiz stok bekleniyordu, gelen: %v", err)
	}

	// başarısız kabul durum geçişini de geri alır; transfer PENDING kalır
	reloaded, err := GetByPublicID(tr.PublicID)
	if err != nil {
		t.Fatalf("transfer okunamadı: %v", err)
	}
	if reloaded.Status != models.TransferPending {
		t.Errorf("durum PENDING kalmalıydı: %s", reloaded.Status)
	}
	if qty, _ := f.itemQty(t, f.src.ID, "600"); qty != 5 {
		t.Errorf("kaynak miktar: %d", qty)
	}
}

func TestOnlyDestinationDecides(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "700", "Merdiven", 4)

	tr, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 2, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}

	// kaynak depocu kendi transferini kabul/ret edemez
	if _, err := Accept(tr.PublicID, f.srcActor); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("forbidden bekleniyordu, gelen: %v", err)
	}
	if _, err := Reject(tr.PublicID, f.srcActor); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("forbidden bekleniyordu, gelen: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "800", "El Arabası", 5)

	// hedef kaynakla aynı olamaz
	_, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.src.ID, Qty: 1, Actor: f.srcActor})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("aynı depo için validation bekleniyordu, gelen: %v", err)
	}

	// miktar pozitif olmalı
	_, err = Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 0, Actor: f.srcActor})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("sıfır miktar için validation bekleniyordu, gelen: %v", err)
	}

	// pasif hedef depo
	if err := database.DB.Model(&models.Location{}).
		Where("id = ?", f.dst.ID).Update("active", false).Error; err != nil {
		t.Fatalf("depo pasifleştirilemedi: %v", err)
	}
	_, err = Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 1, Actor: f.srcActor})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("pasif hedef için not-found bekleniyordu, gelen: %v", err)
	}

	// başka deponun stok kaydıyla transfer açılamaz
	if err := database.DB.Model(&models.Location{}).
		Where("id = ?", f.dst.ID).Update("active", true).Error; err != nil {
		t.Fatalf("depo aktifleştirilemedi: %v", err)
	}
	_, err = Create(CreateInput{ItemID: item.ID, ToLocationID: f.src.ID, Qty: 1, Actor: f.dstActor})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("yabancı kayıt için forbidden bekleniyordu, gelen: %v", err)
	}
}

func TestListUpdatesReturnsResolvedInOrder(t *testing.T) {
	f := newFixture(t)
	item := f.stockIn(t, f.srcActor, "900", "Vinç Halatı", 10)

	tr1, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 2, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}
	tr2, err := Create(CreateInput{ItemID: item.ID, ToLocationID: f.dst.ID, Qty: 3, Actor: f.srcActor})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}

	if _, err := Reject(tr1.PublicID, f.dstActor); err != nil {
		t.Fatalf("ret başarısız: %v", err)
	}
	if _, err := Accept(tr2.PublicID, f.dstActor); err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}

	updates, err := ListUpdates(f.src.ID, 0)
	if err != nil {
		t.Fatalf("güncellemeler alınamadı: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("2 güncelleme bekleniyordu: %d", len(updates))
	}
	for i := 1; i < len(updates); i++ {
		if *updates[i-1].ActedTs > *updates[i].ActedTs {
			t.Error("güncellemeler eski→yeni sıralı değil")
		}
	}

	// bekleyenler listelerde, sonuçlananlar değil
	outgoing, err := ListOutgoing(f.src.ID)
	if err != nil {
		t.Fatalf("giden liste alınamadı: %v", err)
	}
	if len(outgoing) != 0 {
		t.Errorf("sonuçlanan transfer bekleyen listesinde: %d", len(outgoing))
	}
}

func TestHistoryAnnotatesTransferOperations(t *testing.T) {
	f := newFixture(t)

	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	prev := clock.Now
	t.Cleanup(func() { clock.Now = prev })
	clock.Now = func() time.Time { return base }

	item := f.stockIn(t, f.srcActor, "950", "Cam Panel", 10)

	tr, err := Create(CreateInput{
		ItemID:       item.ID,
		ToLocationID: f.dst.ID,
		Qty:          4,
		Damaged:      true,
		Comment:      "köşesi çatlak",
		Actor:        f.srcActor,
	})
	if err != nil {
		t.Fatalf("transfer açılamadı: %v", err)
	}

	// kabul girişten bir dakika sonra; sıralama iddiası belirsiz kalmasın
	clock.Now = func() time.Time { return base.Add(time.Minute) }
	if _, err := Accept(tr.PublicID, f.dstActor); err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}

	entries, err := ledger.GetHistory(item.ID, 0, base.Add(time.Hour).UnixMilli())
	if err != nil {
		t.Fatalf("geçmiş alınamadı: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("kaynakta 2 hareket bekleniyordu: %d", len(entries))
	}

	// en yeni önce: önce transfer çıkışı, sonra manuel giriş
	out := entries[0]
	if out.Type != models.OperationOut || out.Qty != 4 {
		t.Errorf("ilk satır transfer çıkışı olmalıydı: %+v", out)
	}
	if out.TransferID != tr.PublicID {
		t.Errorf("transfer etiketi: %q", out.TransferID)
	}
	if !out.Damaged || !out.HasComment {
		t.Errorf("hasar/yorum işareti eksik: damaged=%v hasComment=%v", out.Damaged, out.HasComment)
	}
	if out.Ts != base.Add(time.Minute).UnixMilli() {
		t.Errorf("çıkış ts: %d", out.Ts)
	}

	in := entries[1]
	if in.Type != models.OperationIn || in.Qty != 10 {
		t.Errorf("ikinci satır manuel giriş olmalıydı: %+v", in)
	}
	if in.TransferID != "" || in.Damaged || in.HasComment {
		t.Errorf("manuel hareket transfer işaretleri taşımamalı: %+v", in)
	}

	// hedef kaydın geçmişi tek, etiketli girişten oluşur
	var dstItem models.StockItem
	if err := database.DB.Where("location_id = ? AND code = ?", f.dst.ID, "950").First(&dstItem).Error; err != nil {
		t.Fatalf("hedef kayıt okunamadı: %v", err)
	}
	dstEntries, err := ledger.GetHistory(dstItem.ID, 0, base.Add(time.Hour).UnixMilli())
	if err != nil {
		t.Fatalf("hedef geçmişi alınamadı: %v", err)
	}
	if len(dstEntries) != 1 {
		t.Fatalf("hedefte 1 hareket bekleniyordu: %d", len(dstEntries))
	}
	if dstEntries[0].Type != models.OperationIn || dstEntries[0].TransferID != tr.PublicID || !dstEntries[0].Damaged {
		t.Errorf("hedef giriş etiketi hatalı: %+v", dstEntries[0])
	}
}
